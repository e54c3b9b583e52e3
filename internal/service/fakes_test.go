package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/events"
	"github.com/talkahistory/chat-archive/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memUserRepo enforces username uniqueness under one lock, like the
// users_username_key constraint.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"}
}

func (m *memUserRepo) usernameTaken(username, exceptID string) bool {
	for id, u := range m.users {
		if u.Username == username && id != exceptID {
			return true
		}
	}
	return false
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.usernameTaken(user.Username, "") {
		return uniqueViolation()
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	if m.usernameTaken(user.Username, user.ID) {
		return uniqueViolation()
	}
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u, ok := m.users[id]
	if !ok || u.Reserved {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserRepo) EnsureReserved(_ context.Context, user *domain.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	user.Role = domain.RoleAdmin
	user.Status = domain.UserStatusActive
	user.Reserved = true
	for id, u := range m.users {
		if u.Username == user.Username {
			user.ID = id
			user.CreatedAt = u.CreatedAt
			cp := *user
			m.users[id] = &cp
			return false, nil
		}
	}
	user.ID = uuid.NewString()
	cp := *user
	m.users[user.ID] = &cp
	return true, nil
}

func (m *memUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memRevocations) Revoke(_ context.Context, id string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[id], nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	convs, _ := args.Get(0).([]domain.Conversation)
	return convs, args.Error(1)
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	conv, _ := args.Get(0).(*domain.Conversation)
	return conv, args.Error(1)
}

func (m *mockConversationRepo) ReplaceByPhone(ctx context.Context, conv *domain.Conversation, messages []domain.Message) error {
	args := m.Called(ctx, conv, messages)
	if err := args.Error(0); err != nil {
		return err
	}
	conv.ID = "conv-" + conv.PhoneNumber
	conv.MessageCount = len(messages)
	return nil
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *mockMessageRepo) ListMediaByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

// testEnv wires the account services against in-memory stores.
type testEnv struct {
	users      *memUserRepo
	dispatcher *recordingDispatcher
	sessions   *auth.SessionManager
	auth       *AuthService
	admin      *UserAdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hasher, err := auth.NewBcryptHasher(4, 4, nil)
	require.NoError(t, err)

	users := newMemUserRepo()
	dispatcher := &recordingDispatcher{}
	sessions := auth.NewSessionManager(
		auth.NewTokenManager(testSecret, time.Hour),
		&memRevocations{revoked: map[string]bool{}},
		users,
	)
	authSvc := NewAuthService(AuthDependencies{
		UserRepo:   users,
		Hasher:     hasher,
		Sessions:   sessions,
		Dispatcher: dispatcher,
	})
	return &testEnv{
		users:      users,
		dispatcher: dispatcher,
		sessions:   sessions,
		auth:       authSvc,
		admin:      NewUserAdminService(users, authSvc, dispatcher),
	}
}

// seedAdmin installs the reserved admin and returns a principal for it.
func (e *testEnv) seedAdmin(t *testing.T) *auth.Principal {
	t.Helper()
	user, created, err := e.admin.EnsureReservedAdmin(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)
	require.True(t, created)
	return &auth.Principal{UserID: user.ID, Username: user.Username, Role: domain.RoleAdmin}
}

func principalFor(u *domain.User) *auth.Principal {
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}
