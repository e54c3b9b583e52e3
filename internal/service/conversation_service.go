package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/repository"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// ConversationService projects a caller's own conversations. Admins get no
// cross-user read path.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

// NewConversationService builds the service.
func NewConversationService(conversations repository.ConversationRepository, messages repository.MessageRepository) *ConversationService {
	return &ConversationService{conversations: conversations, messages: messages}
}

// ListConversations returns userID's conversations, most recent first.
// userID must be the caller.
func (s *ConversationService) ListConversations(ctx context.Context, actor *auth.Principal, userID string) ([]domain.Conversation, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", map[string]any{"userId": "required"})
	}
	if userID != actor.UserID {
		return nil, apperrors.NewForbidden("cannot read another user's conversations")
	}

	conversations, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return conversations, nil
}

// ListMessages returns the messages of a conversation the caller owns,
// oldest first.
func (s *ConversationService) ListMessages(ctx context.Context, actor *auth.Principal, conversationID string) ([]domain.Message, error) {
	if err := s.authorize(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return messages, nil
}

// ListMedia is ListMessages restricted to non-text messages.
func (s *ConversationService) ListMedia(ctx context.Context, actor *auth.Principal, conversationID string) ([]domain.Message, error) {
	if err := s.authorize(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListMediaByConversation(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return messages, nil
}

func (s *ConversationService) authorize(ctx context.Context, actor *auth.Principal, conversationID string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	notFound := apperrors.NewNotFound("conversation", map[string]any{"id": conversationID})
	if _, err := uuid.Parse(conversationID); err != nil {
		return notFound
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		return apperrors.NewInternalError(err)
	}
	if conv.UserID != actor.UserID {
		return apperrors.NewForbidden("conversation belongs to another user")
	}
	return nil
}
