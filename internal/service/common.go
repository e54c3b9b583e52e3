package service

import (
	"context"
	"unicode/utf8"

	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/events"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen || !domain.UsernamePattern.MatchString(username) {
		return apperrors.NewValidationError("invalid username", map[string]any{
			"username": "must be 3-50 characters of letters, digits, '_', '.' or '-'",
		})
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError("invalid password", map[string]any{
			"password": "must be 6-72 bytes",
		})
	}
	return nil
}

func requireAdmin(actor *auth.Principal) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func actorOf(p *auth.Principal) events.Actor {
	if p == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: p.UserID, Username: p.Username, Role: p.Role}
}

// publishEvent is best effort: audit handler failures never fail the request.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
