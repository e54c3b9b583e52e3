package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/talkahistory/chat-archive/internal/domain"
)

// MessageRepository reads conversation messages.
type MessageRepository interface {
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	ListMediaByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
}

type messageRepository struct {
	pool DBTX
}

// NewMessageRepository returns a Postgres-backed implementation.
func NewMessageRepository(pool DBTX) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
        SELECT id, conversation_id, content, timestamp, from_me, message_type, media_url, media_filename
        FROM messages
        WHERE conversation_id = $1
        ORDER BY timestamp ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *messageRepository) ListMediaByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
        SELECT id, conversation_id, content, timestamp, from_me, message_type, media_url, media_filename
        FROM messages
        WHERE conversation_id = $1 AND message_type <> 'text'
        ORDER BY timestamp ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	result := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Content,
			&msg.Timestamp,
			&msg.FromMe,
			&msg.MessageType,
			&msg.MediaURL,
			&msg.MediaFilename,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
