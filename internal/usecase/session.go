package usecase

import (
	"time"

	"lostfound/internal/domain/entity"
	"lostfound/pkg/errors"
)

// Session is the caller identity resolved for one request. A nil *Session is
// an anonymous caller.
type Session struct {
	Principal  *entity.Principal
	ResolvedAt time.Time
}

func NewSession(principal *entity.Principal, resolvedAt time.Time) *Session {
	return &Session{Principal: principal, ResolvedAt: resolvedAt}
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Principal.IsAdmin()
}

func (s *Session) UID() string {
	if s == nil || s.Principal == nil {
		return ""
	}
	return s.Principal.UID
}

func requireAdmin(s *Session) error {
	if s.UID() == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if !s.IsAdmin() {
		return errors.Forbidden("Admin privileges required", nil)
	}
	return nil
}
