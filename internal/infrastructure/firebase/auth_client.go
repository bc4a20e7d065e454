package firebase

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"

	"lostfound/internal/domain/service"
	"lostfound/pkg/errors"
)

// FirebaseAuthClient combines the Admin SDK (user management, token
// verification) with the Identity Toolkit REST API for password sign-in,
// which the Admin SDK does not offer.
type FirebaseAuthClient struct {
	client   *auth.Client
	identity *IdentityToolkit
}

func NewFirebaseAuthClient(client *auth.Client, apiKey string) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:   client,
		identity: NewIdentityToolkit(apiKey, nil),
	}
}

var _ service.IdentityProvider = (*FirebaseAuthClient)(nil)

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", errors.EmailInUse(err)
		}
		if strings.Contains(strings.ToLower(err.Error()), "password must be") {
			return "", errors.WeakPassword("Password must be at least 6 characters", err)
		}
		return "", errors.Store("Failed to create user in authentication provider", err)
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) SignInWithPassword(ctx context.Context, email, password string) (*service.SignInResult, error) {
	return f.identity.SignInWithPassword(ctx, email, password)
}

func (f *FirebaseAuthClient) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return token.UID, nil
}

func (f *FirebaseAuthClient) RevokeSessions(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return errors.Store("Failed to sign out", err)
	}
	return nil
}

// SetRoleClaim mirrors the role into the user's custom claims so store access
// rules can read it from the token.
func (f *FirebaseAuthClient) SetRoleClaim(ctx context.Context, email, role string) (string, error) {
	user, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", errors.NotFound("User", err)
		}
		return "", errors.Store("Failed to look up user", err)
	}

	if err := f.client.SetCustomUserClaims(ctx, user.UID, map[string]interface{}{"role": role}); err != nil {
		return "", errors.Store("Failed to set custom claims", err)
	}
	return user.UID, nil
}
