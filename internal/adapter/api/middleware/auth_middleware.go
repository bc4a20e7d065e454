package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"lostfound/internal/usecase"
	"lostfound/pkg/errors"
	"lostfound/pkg/response"
)

const (
	ContextSessionKey = "session"
	ContextUIDKey     = "uid"
)

// SessionResolver turns a bearer ID token into a Session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, idToken string) (*usecase.Session, error)
}

type AuthMiddleware struct {
	resolver SessionResolver
}

func NewAuthMiddleware(resolver SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
	}
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		session, err := m.resolver.ResolveSession(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		setSession(c, session)
		return next(c)
	}
}

// OptionalAuth resolves a session when a valid bearer token is present and
// otherwise lets the request through as anonymous.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return next(c)
		}

		session, err := m.resolver.ResolveSession(c.Request().Context(), token)
		if err == nil {
			setSession(c, session)
		}
		return next(c)
	}
}

// GetSession returns the request's session, or nil for anonymous callers.
func GetSession(c echo.Context) *usecase.Session {
	session, _ := c.Get(ContextSessionKey).(*usecase.Session)
	return session
}

func setSession(c echo.Context, session *usecase.Session) {
	c.Set(ContextSessionKey, session)
	c.Set(ContextUIDKey, session.UID())
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
