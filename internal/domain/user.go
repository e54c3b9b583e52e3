package domain

import (
	"regexp"
	"time"
)

// UsernamePattern is the character set allowed in usernames.
var UsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Role grants access levels to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Valid reports whether the status is a known value.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User is an account able to sign in to the archive.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	Status       UserStatus
	// Reserved marks the protected administrator account. Reserved users
	// cannot be deleted, demoted or deactivated.
	Reserved  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
