package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talkahistory/chat-archive/internal/api/dto"
	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/service"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// AuthHandler exposes login, logout and session introspection.
type AuthHandler struct {
	auth     *service.AuthService
	validate *Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validate *Validator) *AuthHandler {
	return &AuthHandler{auth: authService, validate: validate}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}

	result, session, err := h.auth.StartSession(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		ID:        result.UserID,
		Username:  result.Username,
		Role:      string(result.Role),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.MeResponse{
		ID:        principal.UserID,
		Username:  principal.Username,
		Role:      string(principal.Role),
		ExpiresAt: principal.ExpiresAt,
	})
}
