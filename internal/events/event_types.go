package events

import (
	"time"

	"github.com/talkahistory/chat-archive/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated           EventType = "user_created"
	EventUserUpdated           EventType = "user_updated"
	EventUserDeleted           EventType = "user_deleted"
	EventLoginSucceeded        EventType = "login_succeeded"
	EventLoginFailed           EventType = "login_failed"
	EventSessionRevoked        EventType = "session_revoked"
	EventConversationsImported EventType = "conversations_imported"
)

// Actor identifies who triggered an event. Empty for anonymous callers.
type Actor struct {
	UserID   string      `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserChangedPayload describes a user mutation. Never carries credentials.
type UserChangedPayload struct {
	Username string            `json:"username"`
	Role     domain.Role       `json:"role"`
	Status   domain.UserStatus `json:"status"`
	Fields   []string          `json:"fields,omitempty"`
}

// LoginFailedPayload records the attempted username only.
type LoginFailedPayload struct {
	Username string `json:"username"`
}

// ConversationsImportedPayload summarizes a CSV import.
type ConversationsImportedPayload struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	SkippedRows   int `json:"skipped_rows"`
}
