package usecase

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/domain/entity"
	"lostfound/pkg/errors"
)

func newAuthFixture(users ...*entity.User) (*AuthUseCase, *fakeUsers, *fakeIdentity) {
	repo := newFakeUsers(users...)
	identity := newFakeIdentity()
	uc := NewAuthUseCase(repo, identity)
	uc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return uc, repo, identity
}

func TestRegister(t *testing.T) {
	uc, users, _ := newAuthFixture()

	var events []AuthStateEvent
	uc.OnAuthStateChange(func(e AuthStateEvent) { events = append(events, e) })

	principal, err := uc.Register(context.Background(), RegisterInput{
		Name: " Rina ", Email: "rina@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "Rina", principal.Name)
	assert.Equal(t, entity.RoleUser, principal.Role)
	assert.NotEmpty(t, principal.IDToken)

	stored := users.users[principal.UID]
	require.NotNil(t, stored)
	assert.Equal(t, "rina@example.com", stored.Email)
	assert.Equal(t, entity.RoleUser, stored.Role)
	assert.False(t, stored.CreatedAt.IsZero())

	require.Len(t, events, 1)
	assert.Equal(t, principal.UID, events[0].UID)
}

func TestRegisterRejections(t *testing.T) {
	t.Run("weak password", func(t *testing.T) {
		uc, users, _ := newAuthFixture()
		_, err := uc.Register(context.Background(), RegisterInput{Name: "Rina", Email: "rina@example.com", Password: "12345"})
		assert.True(t, errors.Is(err, errors.CodeWeakPassword))
		assert.Empty(t, users.users)
	})

	t.Run("email in use", func(t *testing.T) {
		uc, _, identity := newAuthFixture()
		identity.add("uid-x", "rina@example.com", "secret123")
		_, err := uc.Register(context.Background(), RegisterInput{Name: "Rina", Email: "rina@example.com", Password: "secret123"})
		assert.True(t, errors.Is(err, errors.CodeEmailInUse))
	})

	t.Run("email already in users collection", func(t *testing.T) {
		uc, _, identity := newAuthFixture(&entity.User{ID: "legacy", Email: "rina@example.com", Role: entity.RoleUser})
		_, err := uc.Register(context.Background(), RegisterInput{Name: "Rina", Email: "rina@example.com", Password: "secret123"})
		assert.True(t, errors.Is(err, errors.CodeEmailInUse))
		assert.Empty(t, identity.accounts, "no auth account created")
	})

	t.Run("email lookup fails", func(t *testing.T) {
		uc, users, identity := newAuthFixture()
		users.queryErr = stderrors.New("deadline exceeded")
		_, err := uc.Register(context.Background(), RegisterInput{Name: "Rina", Email: "rina@example.com", Password: "secret123"})
		assert.True(t, errors.Is(err, errors.CodeStore))
		assert.Empty(t, identity.accounts)
	})

	t.Run("missing name", func(t *testing.T) {
		uc, _, _ := newAuthFixture()
		_, err := uc.Register(context.Background(), RegisterInput{Email: "rina@example.com", Password: "secret123"})
		assert.True(t, errors.Is(err, errors.CodeValidation))
	})

	t.Run("users record fails", func(t *testing.T) {
		uc, users, _ := newAuthFixture()
		users.createErr = stderrors.New("quota exceeded")
		_, err := uc.Register(context.Background(), RegisterInput{Name: "Rina", Email: "rina@example.com", Password: "secret123"})
		assert.True(t, errors.Is(err, errors.CodeStore))
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestLogin(t *testing.T) {
	uc, _, identity := newAuthFixture(&entity.User{ID: "u1", Name: "Budi", Email: "budi@example.com", Role: entity.RoleUser})
	identity.add("u1", "budi@example.com", "pw123456")

	principal, err := uc.Login(context.Background(), "budi@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UID)
	assert.Equal(t, "Budi", principal.Name)
	assert.False(t, principal.IsAdmin())

	_, err = uc.Login(context.Background(), "budi@example.com", "wrong")
	assert.True(t, errors.Is(err, errors.CodeInvalidCredentials))

	_, err = uc.Login(context.Background(), "", "")
	assert.True(t, errors.Is(err, errors.CodeInvalidCredentials))
}

func TestLoginWithoutUsersRecord(t *testing.T) {
	uc, _, identity := newAuthFixture()
	identity.add("u2", "ghost@example.com", "pw123456")

	_, err := uc.Login(context.Background(), "ghost@example.com", "pw123456")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.Contains(t, err.Error(), "User data")
}

func TestAdminLogin(t *testing.T) {
	uc, _, identity := newAuthFixture(
		&entity.User{ID: "a1", Name: "Admin", Email: "admin@example.com", Role: entity.RoleAdmin},
		&entity.User{ID: "u1", Name: "Budi", Email: "budi@example.com", Role: entity.RoleUser},
	)
	identity.add("a1", "admin@example.com", "pw123456")
	identity.add("u1", "budi@example.com", "pw123456")

	notified := 0
	uc.OnAuthStateChange(func(AuthStateEvent) { notified++ })

	principal, err := uc.AdminLogin(context.Background(), "admin@example.com", "pw123456")
	require.NoError(t, err)
	assert.True(t, principal.IsAdmin())
	assert.Equal(t, 1, notified)

	_, err = uc.AdminLogin(context.Background(), "budi@example.com", "pw123456")
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	assert.Equal(t, []string{"u1"}, identity.revoked, "non-admin is signed out again")
	assert.Equal(t, 1, notified)

	_, err = uc.ResolveSession(context.Background(), "token-u1")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestResolveSession(t *testing.T) {
	uc, _, identity := newAuthFixture(&entity.User{ID: "a1", Name: "Admin", Email: "admin@example.com", Role: entity.RoleAdmin})
	identity.add("a1", "admin@example.com", "pw123456")
	identity.add("u9", "norecord@example.com", "pw123456")
	identity.tokens["token-a1"] = "a1"
	identity.tokens["token-u9"] = "u9"

	session, err := uc.ResolveSession(context.Background(), "token-a1")
	require.NoError(t, err)
	assert.True(t, session.IsAdmin())
	assert.Equal(t, "a1", session.UID())
	assert.Equal(t, "admin@example.com", session.Principal.Email)

	session, err = uc.ResolveSession(context.Background(), "token-u9")
	require.NoError(t, err)
	assert.False(t, session.IsAdmin(), "missing record defaults to user")
	assert.Equal(t, entity.RoleUser, session.Principal.Role)

	_, err = uc.ResolveSession(context.Background(), "garbage")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestOnAuthStateChangeOrderAndUnsubscribe(t *testing.T) {
	uc, _, identity := newAuthFixture(&entity.User{ID: "u1", Name: "Budi", Email: "budi@example.com", Role: entity.RoleUser})
	identity.add("u1", "budi@example.com", "pw123456")

	var order []string
	stopFirst := uc.OnAuthStateChange(func(AuthStateEvent) { order = append(order, "first") })
	uc.OnAuthStateChange(func(AuthStateEvent) { order = append(order, "second") })

	_, err := uc.Login(context.Background(), "budi@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)

	stopFirst()
	stopFirst()
	order = nil

	_, err = uc.Login(context.Background(), "budi@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, order)
}

func TestLogout(t *testing.T) {
	uc, _, identity := newAuthFixture()

	var events []AuthStateEvent
	uc.OnAuthStateChange(func(e AuthStateEvent) { events = append(events, e) })

	require.NoError(t, uc.Logout(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, identity.revoked)
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].UID)
	assert.Nil(t, events[0].Principal)

	err := uc.Logout(context.Background(), "")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestRequireAdmin(t *testing.T) {
	assert.True(t, errors.Is(requireAdmin(nil), errors.CodeUnauthorized))
	assert.True(t, errors.Is(requireAdmin(&Session{}), errors.CodeUnauthorized))
	assert.True(t, errors.Is(requireAdmin(userSession()), errors.CodeForbidden))
	assert.NoError(t, requireAdmin(adminSession()))
}
