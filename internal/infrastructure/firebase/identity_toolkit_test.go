package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/pkg/errors"
)

func newTestToolkit(t *testing.T, handler http.HandlerFunc) *IdentityToolkit {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tk := NewIdentityToolkit("test-key", srv.Client())
	tk.baseURL = srv.URL
	return tk
}

func TestSignInWithPasswordSuccess(t *testing.T) {
	tk := newTestToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req signInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "admin@example.com", req.Email)
		assert.True(t, req.ReturnSecureToken)

		_ = json.NewEncoder(w).Encode(signInResponse{
			LocalID:      "uid-1",
			Email:        "admin@example.com",
			IDToken:      "id-token",
			RefreshToken: "refresh-token",
		})
	})

	res, err := tk.SignInWithPassword(context.Background(), "admin@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", res.UID)
	assert.Equal(t, "id-token", res.IDToken)
	assert.Equal(t, "refresh-token", res.RefreshToken)
}

func TestSignInWithPasswordEscapesKey(t *testing.T) {
	const key = "k&ey=1+2 #x"
	tk := newTestToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, key, r.URL.Query().Get("key"))
		assert.Len(t, r.URL.Query(), 1)
		_ = json.NewEncoder(w).Encode(signInResponse{LocalID: "uid-1", IDToken: "id-token"})
	})
	tk.apiKey = key

	_, err := tk.SignInWithPassword(context.Background(), "admin@example.com", "secret123")
	require.NoError(t, err)
}

func TestSignInWithPasswordInvalidCredentials(t *testing.T) {
	tk := newTestToolkit(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	})

	_, err := tk.SignInWithPassword(context.Background(), "a@example.com", "wrong")
	assert.True(t, errors.Is(err, errors.CodeInvalidCredentials))
}

func TestMapToolkitError(t *testing.T) {
	cases := map[string]string{
		"EMAIL_NOT_FOUND":  errors.CodeInvalidCredentials,
		"INVALID_PASSWORD": errors.CodeInvalidCredentials,
		"USER_DISABLED":    errors.CodeInvalidCredentials,
		"EMAIL_EXISTS":     errors.CodeEmailInUse,
		"WEAK_PASSWORD : Password should be at least 6 characters": errors.CodeWeakPassword,
		"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled": errors.CodeTooManyRequests,
		"QUOTA_EXCEEDED": errors.CodeStore,
	}

	for message, code := range cases {
		t.Run(message, func(t *testing.T) {
			assert.True(t, errors.Is(mapToolkitError(message), code))
		})
	}
}

func TestStoreErrorKeepsProviderMessage(t *testing.T) {
	err := mapToolkitError("QUOTA_EXCEEDED")
	assert.Contains(t, err.Error(), "QUOTA_EXCEEDED")
}
