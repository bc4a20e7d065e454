package middleware

import (
	"github.com/labstack/echo/v4"

	"lostfound/pkg/errors"
	"lostfound/pkg/response"
)

type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// AdminOnly must run after Authenticate. The role comes from the session
// resolved for this request.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := GetSession(c)
		if session == nil {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if !session.IsAdmin() {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}

		return next(c)
	}
}
