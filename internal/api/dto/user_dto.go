package dto

import (
	"time"

	"github.com/talkahistory/chat-archive/internal/domain"
)

// CreateUserRequest payload for POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

// UpdateUserRequest payload for PUT /api/users. Absent fields are unchanged.
type UpdateUserRequest struct {
	ID       string  `json:"id" validate:"required,uuid"`
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// DeleteUserRequest payload for DELETE /api/users.
type DeleteUserRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// UserResponse is the public view of an account. It never carries the hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Reserved  bool      `json:"reserved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		Status:    string(u.Status),
		Reserved:  u.Reserved,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
