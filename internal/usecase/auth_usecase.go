package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/internal/domain/service"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

const minPasswordLength = 6

// AuthStateEvent is delivered on every sign-in and sign-out. Principal is nil
// on sign-out.
type AuthStateEvent struct {
	UID       string
	Principal *entity.Principal
}

type AuthStateFunc func(AuthStateEvent)

type authObserver struct {
	id int
	fn AuthStateFunc
}

type AuthUseCase struct {
	userRepo repository.UserRepository
	identity service.IdentityProvider
	now      func() time.Time

	mu        sync.RWMutex
	observers []authObserver
	nextID    int
}

func NewAuthUseCase(userRepo repository.UserRepository, identity service.IdentityProvider) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		identity: identity,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*entity.Principal, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if input.Name == "" {
		return nil, errors.Validation("name is required")
	}
	if input.Email == "" {
		return nil, errors.Validation("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, errors.WeakPassword("Password must be at least 6 characters", nil)
	}

	existing, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, storeFailure("Failed to check email", err)
	}
	if existing != nil {
		return nil, errors.EmailInUse(nil)
	}

	uid, err := uc.identity.CreateUser(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:        uid,
		Name:      input.Name,
		Email:     input.Email,
		Role:      entity.RoleUser,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		logger.Error("Auth user %s created but users record failed: %v", uid, err)
		return nil, storeFailure("Failed to create user record", err)
	}

	res, err := uc.identity.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	principal := principalFrom(user, res)
	uc.notify(AuthStateEvent{UID: uid, Principal: principal})
	return principal, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*entity.Principal, error) {
	principal, err := uc.signIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	uc.notify(AuthStateEvent{UID: principal.UID, Principal: principal})
	return principal, nil
}

// AdminLogin signs in and immediately signs the user out again if they are
// not an administrator.
func (uc *AuthUseCase) AdminLogin(ctx context.Context, email, password string) (*entity.Principal, error) {
	principal, err := uc.signIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() {
		if err := uc.identity.RevokeSessions(ctx, principal.UID); err != nil {
			logger.Error("Failed to revoke sessions for non-admin %s: %v", principal.UID, err)
		}
		return nil, errors.Forbidden("Access restricted to administrators", nil)
	}

	uc.notify(AuthStateEvent{UID: principal.UID, Principal: principal})
	return principal, nil
}

func (uc *AuthUseCase) signIn(ctx context.Context, email, password string) (*entity.Principal, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.InvalidCredentials(nil)
	}

	res, err := uc.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		logger.Debug("Sign-in failed for %s: %v", email, err)
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, res.UID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.NotFound("User data", err)
		}
		return nil, err
	}

	return principalFrom(user, res), nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, uid string) error {
	if uid == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if err := uc.identity.RevokeSessions(ctx, uid); err != nil {
		return err
	}
	uc.notify(AuthStateEvent{UID: uid})
	return nil
}

// ResolveSession verifies an ID token and looks up the caller's role. It runs
// on every request; a caller without a users record is a plain user.
func (uc *AuthUseCase) ResolveSession(ctx context.Context, idToken string) (*Session, error) {
	uid, err := uc.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	principal := &entity.Principal{UID: uid, Role: entity.RoleUser, IDToken: idToken}

	user, err := uc.userRepo.GetByID(ctx, uid)
	switch {
	case err == nil:
		principal.Name = user.Name
		principal.Email = user.Email
		if user.Role != "" {
			principal.Role = user.Role
		}
	case errors.Is(err, errors.CodeNotFound):
		logger.Warn("No users record for %s, treating as %s", uid, entity.RoleUser)
	default:
		return nil, err
	}

	return NewSession(principal, uc.now()), nil
}

// OnAuthStateChange registers fn for sign-in and sign-out events. Observers
// run synchronously, in registration order.
func (uc *AuthUseCase) OnAuthStateChange(fn AuthStateFunc) func() {
	uc.mu.Lock()
	uc.nextID++
	id := uc.nextID
	uc.observers = append(uc.observers, authObserver{id: id, fn: fn})
	uc.mu.Unlock()

	return func() {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		for i, o := range uc.observers {
			if o.id == id {
				uc.observers = append(uc.observers[:i:i], uc.observers[i+1:]...)
				return
			}
		}
	}
}

func (uc *AuthUseCase) notify(event AuthStateEvent) {
	uc.mu.RLock()
	observers := make([]authObserver, len(uc.observers))
	copy(observers, uc.observers)
	uc.mu.RUnlock()

	for _, o := range observers {
		o.fn(event)
	}
}

func principalFrom(user *entity.User, res *service.SignInResult) *entity.Principal {
	role := user.Role
	if role == "" {
		role = entity.RoleUser
	}
	return &entity.Principal{
		UID:          res.UID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         role,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
	}
}
