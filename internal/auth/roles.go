package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// AccessLevel is the guard state of a request.
type AccessLevel int

const (
	Anonymous AccessLevel = iota
	AuthenticatedUser
	AuthenticatedAdmin
)

func (l AccessLevel) String() string {
	switch l {
	case AuthenticatedUser:
		return "authenticated_user"
	case AuthenticatedAdmin:
		return "authenticated_admin"
	default:
		return "anonymous"
	}
}

// AccessLevelOf derives the guard state from a principal.
func AccessLevelOf(p *Principal) AccessLevel {
	switch {
	case p == nil:
		return Anonymous
	case p.IsAdmin():
		return AuthenticatedAdmin
	default:
		return AuthenticatedUser
	}
}

// AccessLevelFromContext returns the guard state for the current request.
func AccessLevelFromContext(c *fiber.Ctx) AccessLevel {
	p, _ := PrincipalFromContext(c)
	return AccessLevelOf(p)
}

// RequireAuthenticated admits users and admins.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if AccessLevelFromContext(c) == Anonymous {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin admits only admins.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch AccessLevelFromContext(c) {
		case AuthenticatedAdmin:
			return c.Next()
		case AuthenticatedUser:
			return apperrors.NewForbidden("admin role required")
		default:
			return apperrors.NewUnauthorized("authentication required")
		}
	}
}
