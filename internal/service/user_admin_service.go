package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/events"
	"github.com/talkahistory/chat-archive/internal/repository"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// PasswordHashing is the hashing half of AuthService.
type PasswordHashing interface {
	HashPassword(ctx context.Context, plain string) (string, error)
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Username string
	Password string
	Role     domain.Role
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Password *string
	Role     *domain.Role
	Status   *domain.UserStatus
}

func (in UpdateUserInput) empty() bool {
	return in.Username == nil && in.Password == nil && in.Role == nil && in.Status == nil
}

// UserAdminService manages accounts on behalf of administrators.
type UserAdminService struct {
	users      repository.UserRepository
	hashing    PasswordHashing
	dispatcher events.Dispatcher
}

// NewUserAdminService builds the service.
func NewUserAdminService(users repository.UserRepository, hashing PasswordHashing, dispatcher events.Dispatcher) *UserAdminService {
	return &UserAdminService{users: users, hashing: hashing, dispatcher: dispatcher}
}

// ListUsers returns every account.
func (s *UserAdminService) ListUsers(ctx context.Context, actor *auth.Principal) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// GetUser returns one account. Malformed ids are reported as not found.
func (s *UserAdminService) GetUser(ctx context.Context, actor *auth.Principal, id string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return s.getUser(ctx, id)
}

// CreateUser hashes the password and inserts an active account. The store's
// unique constraint decides races on the same username.
func (s *UserAdminService) CreateUser(ctx context.Context, actor *auth.Principal, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if err := validateUsername(input.Username); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": "must be admin or user"})
	}

	hash, err := s.hashing.HashPassword(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         input.Role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, usernameConflict(input.Username)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publishUserEvent(ctx, events.EventUserCreated, actor, user, nil)
	return user, nil
}

// UpdateUser applies a partial update. A new password is re-hashed; the
// reserved administrator cannot be demoted or deactivated.
func (s *UserAdminService) UpdateUser(ctx context.Context, actor *auth.Principal, id string, patch UpdateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if patch.Username != nil && *patch.Username != user.Username {
		if err := validateUsername(*patch.Username); err != nil {
			return nil, err
		}
		user.Username = *patch.Username
		changed = append(changed, "username")
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": "must be admin or user"})
		}
		if user.Reserved && *patch.Role != domain.RoleAdmin {
			return nil, apperrors.NewForbidden("reserved administrator cannot be demoted")
		}
		user.Role = *patch.Role
		changed = append(changed, "role")
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": "must be active or inactive"})
		}
		if user.Reserved && *patch.Status != domain.UserStatusActive {
			return nil, apperrors.NewForbidden("reserved administrator cannot be deactivated")
		}
		user.Status = *patch.Status
		changed = append(changed, "status")
	}
	if patch.Password != nil {
		hash, err := s.hashing.HashPassword(ctx, *patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			return nil, usernameConflict(user.Username)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		default:
			return nil, apperrors.NewInternalError(err)
		}
	}

	s.publishUserEvent(ctx, events.EventUserUpdated, actor, user, changed)
	return user, nil
}

// DeleteUser removes an account. The reserved administrator is never deleted.
func (s *UserAdminService) DeleteUser(ctx context.Context, actor *auth.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Reserved {
		return apperrors.NewForbidden("reserved administrator cannot be deleted")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(err)
	}

	s.publishUserEvent(ctx, events.EventUserDeleted, actor, user, nil)
	return nil
}

// EnsureReservedAdmin makes sure the reserved administrator exists. With an
// empty password it only flags an existing account and returns nil when the
// account is missing.
func (s *UserAdminService) EnsureReservedAdmin(ctx context.Context, username, password string) (*domain.User, bool, error) {
	user := &domain.User{Username: username}

	if password == "" {
		existing, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, err
		}
		user.PasswordHash = existing.PasswordHash
	} else {
		hash, err := s.hashing.HashPassword(ctx, password)
		if err != nil {
			return nil, false, err
		}
		user.PasswordHash = hash
	}

	created, err := s.users.EnsureReserved(ctx, user)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publishUserEvent(ctx, events.EventUserCreated, nil, user, nil)
	}
	return user, created, nil
}

func (s *UserAdminService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *UserAdminService) publishUserEvent(ctx context.Context, eventType events.EventType, actor *auth.Principal, user *domain.User, fields []string) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      eventType,
		Actor:     actorOf(actor),
		SubjectID: user.ID,
		Payload: events.UserChangedPayload{
			Username: user.Username,
			Role:     user.Role,
			Status:   user.Status,
			Fields:   fields,
		},
	})
}

func usernameConflict(username string) error {
	return apperrors.NewConflict("username already exists", map[string]any{"username": username})
}
