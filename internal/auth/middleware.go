package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/talkahistory/chat-archive/internal/domain"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID    string
	Username  string
	Role      domain.Role
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller currently holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	sessions *SessionManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions *SessionManager) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	sc, err := m.sessions.ValidateSession(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{
		UserID:    sc.User.ID,
		Username:  sc.User.Username,
		Role:      sc.Session.Role,
		SessionID: sc.Session.ID,
		Token:     token,
		ExpiresAt: sc.Session.ExpiresAt,
	})
	return c.Next()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
