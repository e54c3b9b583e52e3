package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/talkahistory/chat-archive/internal/api/dto"
	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/service"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

const importFormField = "file"

// ConversationsHandler serves the caller's conversations and CSV imports.
type ConversationsHandler struct {
	conversations *service.ConversationService
	imports       *service.ImportService
}

// NewConversationsHandler constructs handler.
func NewConversationsHandler(conversations *service.ConversationService, imports *service.ImportService) *ConversationsHandler {
	return &ConversationsHandler{conversations: conversations, imports: imports}
}

// List handles GET /api/conversations?userId=.
func (h *ConversationsHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	convs, err := h.conversations.ListConversations(c.UserContext(), principal, strings.TrimSpace(c.Query("userId")))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewConversationList(convs))
}

// Messages handles GET /api/conversations/:id/messages.
func (h *ConversationsHandler) Messages(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	msgs, err := h.conversations.ListMessages(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMessageList(msgs))
}

// Media handles GET /api/conversations/:id/media.
func (h *ConversationsHandler) Media(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	msgs, err := h.conversations.ListMedia(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMessageList(msgs))
}

// Import handles POST /api/conversations/import with a multipart CSV file.
func (h *ConversationsHandler) Import(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	header, err := c.FormFile(importFormField)
	if err != nil {
		return apperrors.NewValidationError("file is required", map[string]any{importFormField: "is required"})
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return apperrors.NewValidationError("only .csv files are accepted", map[string]any{importFormField: "must be a .csv file"})
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	result, err := h.imports.ImportCSV(c.UserContext(), principal, file)
	if err != nil {
		return err
	}

	return c.JSON(dto.ImportResponse{
		Message:       fmt.Sprintf("imported %d messages into %d conversations", result.Messages, len(result.Conversations)),
		Conversations: dto.NewConversationList(result.Conversations),
		Messages:      result.Messages,
		SkippedRows:   result.SkippedRows,
	})
}
