package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/talkahistory/chat-archive/internal/api/dto"
	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	admin    *service.UserAdminService
	validate *Validator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(adminService *service.UserAdminService, validate *Validator) *UsersHandler {
	return &UsersHandler{admin: adminService, validate: validate}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	users, err := h.admin.ListUsers(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(items)
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	user, err := h.admin.GetUser(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateUserRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}

	if _, err := h.admin.CreateUser(c.UserContext(), principal, service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: "user created"})
}

// Update handles PUT /api/users.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.UpdateUserRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}

	patch := service.UpdateUserInput{Username: req.Username, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		patch.Status = &status
	}

	user, err := h.admin.UpdateUser(c.UserContext(), principal, req.ID, patch)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Delete handles DELETE /api/users.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.DeleteUserRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	if err := h.admin.DeleteUser(c.UserContext(), principal, req.ID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "user deleted"})
}
