package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/talkahistory/chat-archive/internal/domain"
)

// ConversationRepository reads and imports conversations.
type ConversationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	// ReplaceByPhone upserts the (owner, phone) conversation and replaces
	// all of its messages in one transaction.
	ReplaceByPhone(ctx context.Context, conv *domain.Conversation, messages []domain.Message) error
}

type conversationRepository struct {
	pool DBTX
}

// NewConversationRepository returns a Postgres-backed implementation.
func NewConversationRepository(pool DBTX) ConversationRepository {
	return &conversationRepository{pool: pool}
}

var messageCopyColumns = []string{
	"conversation_id", "content", "timestamp", "from_me", "message_type", "media_url", "media_filename",
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `
        SELECT c.id, c.user_id, c.title, c.phone_number, c.created_at, c.updated_at, COUNT(m.id)
        FROM conversations c
        LEFT JOIN messages m ON m.conversation_id = c.id
        WHERE c.user_id = $1
        GROUP BY c.id
        ORDER BY c.updated_at DESC, c.id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Conversation{}
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.PhoneNumber,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.MessageCount,
		); err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	return result, rows.Err()
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	const query = `
        SELECT c.id, c.user_id, c.title, c.phone_number, c.created_at, c.updated_at,
            (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
        FROM conversations c
        WHERE c.id = $1`

	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.PhoneNumber,
		&conv.CreatedAt,
		&conv.UpdatedAt,
		&conv.MessageCount,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ReplaceByPhone(ctx context.Context, conv *domain.Conversation, messages []domain.Message) (err error) {
	const upsert = `
        INSERT INTO conversations (user_id, title, phone_number, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, phone_number) DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id, title, created_at, updated_at`
	const clear = `DELETE FROM messages WHERE conversation_id = $1`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = tx.QueryRow(ctx, upsert, conv.UserID, conv.Title, conv.PhoneNumber, conv.UpdatedAt).
		Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	if _, err = tx.Exec(ctx, clear, conv.ID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	rows := make([][]any, 0, len(messages))
	for _, msg := range messages {
		rows = append(rows, []any{
			conv.ID, msg.Content, msg.Timestamp.UTC(), msg.FromMe, string(msg.MessageType), msg.MediaURL, msg.MediaFilename,
		})
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"messages"}, messageCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy messages: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	conv.MessageCount = int(copied)
	return nil
}

