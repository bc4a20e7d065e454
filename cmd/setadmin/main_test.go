package main

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/domain/entity"
	"lostfound/pkg/errors"
)

type fakeClaims struct {
	uids map[string]string
	set  map[string]string
}

func (f *fakeClaims) SetRoleClaim(ctx context.Context, email, role string) (string, error) {
	uid, ok := f.uids[email]
	if !ok {
		return "", errors.NotFound("User", nil)
	}
	f.set[uid] = role
	return uid, nil
}

type fakeRoles struct {
	roles map[string]string
	err   error
}

func (f *fakeRoles) SetRole(ctx context.Context, id, role string) error {
	if f.err != nil {
		return f.err
	}
	f.roles[id] = role
	return nil
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--email", " admin@example.com "})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", opts.email)
	assert.Equal(t, entity.RoleAdmin, opts.role)

	opts, err = parseFlags([]string{"--email=budi@example.com", "--role=user"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, opts.role)

	_, err = parseFlags(nil)
	assert.Error(t, err)

	_, err = parseFlags([]string{"--email", "a@example.com", "--role", "owner"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--email", "a@example.com", "extra"})
	assert.Error(t, err)
}

func TestSetRole(t *testing.T) {
	claims := &fakeClaims{uids: map[string]string{"admin@example.com": "a1"}, set: map[string]string{}}
	roles := &fakeRoles{roles: map[string]string{}}

	uid, err := setRole(context.Background(), claims, roles, "admin@example.com", entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "a1", uid)
	assert.Equal(t, entity.RoleAdmin, claims.set["a1"])
	assert.Equal(t, entity.RoleAdmin, roles.roles["a1"])

	_, err = setRole(context.Background(), claims, roles, "nobody@example.com", entity.RoleAdmin)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	roles.err = stderrors.New("unavailable")
	_, err = setRole(context.Background(), claims, roles, "admin@example.com", entity.RoleUser)
	assert.Error(t, err)
}
