package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/events"
	"github.com/talkahistory/chat-archive/internal/importer"
	"github.com/talkahistory/chat-archive/internal/repository"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

// ImportRecorder counts imported messages.
type ImportRecorder interface {
	RecordImportedMessages(n int)
}

// ImportResult summarizes one CSV upload.
type ImportResult struct {
	Conversations []domain.Conversation
	Messages      int
	SkippedRows   int
}

// ImportService stores parsed chat exports under the uploading user.
type ImportService struct {
	parser        *importer.Parser
	conversations repository.ConversationRepository
	dispatcher    events.Dispatcher
	metrics       ImportRecorder
}

// NewImportService builds the service.
func NewImportService(parser *importer.Parser, conversations repository.ConversationRepository, dispatcher events.Dispatcher, metrics ImportRecorder) *ImportService {
	if parser == nil {
		parser = importer.NewParser(nil)
	}
	return &ImportService{parser: parser, conversations: conversations, dispatcher: dispatcher, metrics: metrics}
}

// ImportCSV parses r and replaces, per phone number, the caller's
// conversation and its messages. Each conversation is written atomically;
// a store failure stops the import with an internal error and leaves
// conversations committed before it in place.
func (s *ImportService) ImportCSV(ctx context.Context, actor *auth.Principal, r io.Reader) (*ImportResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	parsed, err := s.parser.Parse(r)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyFile) {
			return nil, apperrors.NewValidationError("csv file is empty", map[string]any{"file": "no rows"})
		}
		return nil, apperrors.NewValidationError("csv file could not be read", map[string]any{"file": err.Error()})
	}
	if len(parsed.Threads) == 0 {
		return nil, apperrors.NewValidationError("csv file has no valid rows", map[string]any{"skipped_rows": parsed.SkippedRows})
	}

	result := &ImportResult{
		Conversations: make([]domain.Conversation, 0, len(parsed.Threads)),
		SkippedRows:   parsed.SkippedRows,
	}
	for _, thread := range parsed.Threads {
		conv := domain.Conversation{
			UserID:      actor.UserID,
			Title:       fmt.Sprintf("Conversation with %s", thread.PhoneNumber),
			PhoneNumber: thread.PhoneNumber,
			UpdatedAt:   thread.LastActivity().UTC(),
		}
		if err := s.conversations.ReplaceByPhone(ctx, &conv, thread.Messages); err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("import %s: %w", thread.PhoneNumber, err))
		}
		result.Conversations = append(result.Conversations, conv)
	}
	result.Messages = parsed.MessageCount()

	if s.metrics != nil {
		s.metrics.RecordImportedMessages(result.Messages)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:  events.EventConversationsImported,
		Actor: actorOf(actor),
		Payload: events.ConversationsImportedPayload{
			Conversations: len(result.Conversations),
			Messages:      result.Messages,
			SkippedRows:   result.SkippedRows,
		},
	})
	return result, nil
}
