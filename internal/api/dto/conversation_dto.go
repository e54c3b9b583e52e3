package dto

import (
	"time"

	"github.com/talkahistory/chat-archive/internal/domain"
)

// ConversationResponse is one entry of a conversation listing.
type ConversationResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	PhoneNumber  string    `json:"phone_number"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageItem is one chat message.
type MessageItem struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	FromMe         bool      `json:"from_me"`
	MessageType    string    `json:"message_type"`
	MediaURL       *string   `json:"media_url"`
	MediaFilename  *string   `json:"media_filename"`
}

// ImportResponse summarizes a CSV import.
type ImportResponse struct {
	Message       string                 `json:"message"`
	Conversations []ConversationResponse `json:"conversations"`
	Messages      int                    `json:"messages"`
	SkippedRows   int                    `json:"skipped_rows"`
}

// NewConversationResponse maps a domain conversation.
func NewConversationResponse(c *domain.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:           c.ID,
		UserID:       c.UserID,
		Title:        c.Title,
		PhoneNumber:  c.PhoneNumber,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// NewConversationList maps a listing, never returning nil.
func NewConversationList(convs []domain.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(convs))
	for i := range convs {
		out = append(out, NewConversationResponse(&convs[i]))
	}
	return out
}

// NewMessageList maps messages, never returning nil.
func NewMessageList(msgs []domain.Message) []MessageItem {
	out := make([]MessageItem, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageItem{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Content:        m.Content,
			Timestamp:      m.Timestamp,
			FromMe:         m.FromMe,
			MessageType:    string(m.MessageType),
			MediaURL:       m.MediaURL,
			MediaFilename:  m.MediaFilename,
		})
	}
	return out
}
