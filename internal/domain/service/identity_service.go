package service

import "context"

// SignInResult carries the tokens returned by a password sign-in.
type SignInResult struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
}

type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
	RevokeSessions(ctx context.Context, uid string) error
}
