package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/talkahistory/chat-archive/internal/events"
)

var auditedEvents = []events.EventType{
	events.EventUserCreated,
	events.EventUserUpdated,
	events.EventUserDeleted,
	events.EventLoginSucceeded,
	events.EventLoginFailed,
	events.EventSessionRevoked,
	events.EventConversationsImported,
}

// AuditService writes account, session and import events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range auditedEvents {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.UserID != "" {
		fields = append(fields,
			zap.String("actor_id", event.Actor.UserID),
			zap.String("actor", event.Actor.Username),
			zap.String("actor_role", string(event.Actor.Role)))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}

	if event.Type == events.EventLoginFailed {
		a.logger.Warn("audit", fields...)
		return nil
	}
	a.logger.Info("audit", fields...)
	return nil
}
