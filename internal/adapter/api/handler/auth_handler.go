package handler

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/middleware"
	"lostfound/internal/domain/entity"
	"lostfound/internal/usecase"
	"lostfound/pkg/errors"
	"lostfound/pkg/response"
)

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type authResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

func newAuthResponse(p *entity.Principal) authResponse {
	return authResponse{
		Token:        p.IDToken,
		RefreshToken: p.RefreshToken,
		User:         newUserResponse(p),
	}
}

func newUserResponse(p *entity.Principal) userResponse {
	return userResponse{
		ID:    p.UID,
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	principal, err := h.authService.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, newAuthResponse(principal))
}

func (h *AuthHandler) Login(c echo.Context) error {
	req, err := bindLogin(c)
	if err != nil {
		return response.Error(c, err)
	}

	principal, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, newAuthResponse(principal))
}

func (h *AuthHandler) AdminLogin(c echo.Context) error {
	req, err := bindLogin(c)
	if err != nil {
		return response.Error(c, err)
	}

	principal, err := h.authService.AdminLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, newAuthResponse(principal))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	session := middleware.GetSession(c)

	if err := h.authService.Logout(c.Request().Context(), session.UID()); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Successfully logged out",
	})
}

// Me returns the caller's resolved session.
func (h *AuthHandler) Me(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil || session.Principal == nil {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	return response.Success(c, map[string]interface{}{
		"user":       newUserResponse(session.Principal),
		"isAdmin":    session.IsAdmin(),
		"resolvedAt": session.ResolvedAt,
	})
}

func bindLogin(c echo.Context) (*loginRequest, error) {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return nil, errors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}
