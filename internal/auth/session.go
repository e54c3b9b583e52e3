package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talkahistory/chat-archive/internal/domain"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// ErrInvalidSession is the single outward error for any rejected session.
var ErrInvalidSession = apperrors.NewUnauthorized("invalid or expired session")

// UserLookup loads the current user record for a session.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// IssuedSession is returned to the client after login.
type IssuedSession struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// SessionContext is the validated state of a session. User and Role come
// from the store at validation time, not from the token.
type SessionContext struct {
	Session domain.Session
	User    *domain.User
}

// SessionManager issues, validates and revokes session tokens.
type SessionManager struct {
	tokens      *TokenManager
	revocations RevocationStore
	users       UserLookup
	now         func() time.Time
}

// NewSessionManager builds a SessionManager.
func NewSessionManager(tokens *TokenManager, revocations RevocationStore, users UserLookup) *SessionManager {
	return &SessionManager{tokens: tokens, revocations: revocations, users: users, now: time.Now}
}

// CreateSession issues a signed token bound to userID and role.
func (m *SessionManager) CreateSession(_ context.Context, userID string, role domain.Role) (*IssuedSession, error) {
	token, claims, err := m.tokens.GenerateToken(userID, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &IssuedSession{Token: token, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateSession checks the token, its revocation state and the current
// user record. Deleted or inactive users lose access immediately.
func (m *SessionManager) ValidateSession(ctx context.Context, token string) (*SessionContext, error) {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if revoked {
		return nil, ErrInvalidSession
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !user.IsActive() {
		return nil, ErrInvalidSession
	}

	return &SessionContext{
		Session: domain.Session{
			ID:        claims.ID,
			UserID:    user.ID,
			Role:      user.Role,
			IssuedAt:  claims.IssuedAt.Time,
			ExpiresAt: claims.ExpiresAt.Time,
		},
		User: user,
	}, nil
}

// InvalidateSession revokes the token until its natural expiry.
func (m *SessionManager) InvalidateSession(ctx context.Context, token string) error {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return ErrInvalidSession
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if err := m.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}
