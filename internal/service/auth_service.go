package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/events"
	"github.com/talkahistory/chat-archive/internal/repository"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// ErrInvalidCredentials is the only failure a login reports. Unknown
// usernames, wrong passwords and inactive accounts are indistinguishable.
var ErrInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// LoginResult identifies the authenticated user.
type LoginResult struct {
	UserID   string
	Username string
	Role     domain.Role
}

// AuthService verifies credentials and hashes passwords.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	sessions   *auth.SessionManager
	dispatcher events.Dispatcher
	metrics    LoginRecorder
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.PasswordHasher
	Sessions   *auth.SessionManager
	Dispatcher events.Dispatcher
	Metrics    LoginRecorder
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// HashPassword produces a storable hash of plain.
func (s *AuthService) HashPassword(ctx context.Context, plain string) (string, error) {
	if err := validatePassword(plain); err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(ctx, plain)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

// VerifyPassword reports whether plain matches hash. Malformed hashes never match.
func (s *AuthService) VerifyPassword(ctx context.Context, plain, hash string) (bool, error) {
	ok, err := s.hasher.Verify(ctx, plain, hash)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	return ok, nil
}

// Login checks username and password against the credential store. It
// never creates a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInternalError(err)
		}
		// Spend the same bcrypt work as a real comparison.
		if _, verr := s.hasher.Verify(ctx, password, s.hasher.DummyHash()); verr != nil {
			return nil, apperrors.NewInternalError(verr)
		}
		s.loginFailed(ctx, username)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !ok || !user.IsActive() {
		s.loginFailed(ctx, username)
		return nil, ErrInvalidCredentials
	}

	s.record("success")
	s.publish(ctx, events.Event{
		Type:      events.EventLoginSucceeded,
		Actor:     events.Actor{UserID: user.ID, Username: user.Username, Role: user.Role},
		SubjectID: user.ID,
	})
	return &LoginResult{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// StartSession logs in and issues a session for the user.
func (s *AuthService) StartSession(ctx context.Context, username, password string) (*LoginResult, *auth.IssuedSession, error) {
	result, err := s.Login(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.CreateSession(ctx, result.UserID, result.Role)
	if err != nil {
		return nil, nil, err
	}
	return result, session, nil
}

// Logout revokes the caller's current session.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := s.sessions.InvalidateSession(ctx, principal.Token); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:      events.EventSessionRevoked,
		Actor:     actorOf(principal),
		SubjectID: principal.SessionID,
	})
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, username string) {
	s.record("failure")
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Payload: events.LoginFailedPayload{Username: username},
	})
}

func (s *AuthService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(outcome)
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}
