package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talkahistory/chat-archive/internal/domain"
	"github.com/talkahistory/chat-archive/internal/events"
	apperrors "github.com/talkahistory/chat-archive/pkg/util/errorutil"
)

type countingRecorder struct {
	messages int
}

func (c *countingRecorder) RecordImportedMessages(n int) { c.messages += n }

const exportCSV = `timestamp,phone_number,content,from_me
01/03/2025 10:00:00,5511999990000,Oi,false
01/03/2025 10:01:00,5511999990000,https://cdn.example.com/foto.jpg,true
02/03/2025 09:00:00,5511888880000,Bom dia,false
not-a-date,5511888880000,broken,false
`

func TestImportService_ImportCSV(t *testing.T) {
	convs := &mockConversationRepo{}
	dispatcher := &recordingDispatcher{}
	recorder := &countingRecorder{}
	svc := NewImportService(nil, convs, dispatcher, recorder)

	convs.On("ReplaceByPhone", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.PhoneNumber == "5511999990000"
	}), mock.MatchedBy(func(m []domain.Message) bool { return len(m) == 2 })).Return(nil).Once()
	convs.On("ReplaceByPhone", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.PhoneNumber == "5511888880000"
	}), mock.MatchedBy(func(m []domain.Message) bool { return len(m) == 1 })).Return(nil).Once()

	result, err := svc.ImportCSV(context.Background(), aliceP, strings.NewReader(exportCSV))
	require.NoError(t, err)
	convs.AssertExpectations(t)

	require.Len(t, result.Conversations, 2)
	first := result.Conversations[0]
	assert.Equal(t, aliceID, first.UserID)
	assert.Equal(t, "Conversation with 5511999990000", first.Title)
	assert.Equal(t, 2, first.MessageCount)
	assert.Equal(t, 3, result.Messages)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Equal(t, 3, recorder.messages)
	assert.Equal(t, []events.EventType{events.EventConversationsImported}, dispatcher.types())
}

func TestImportService_ImportCSVRejectsEmpty(t *testing.T) {
	svc := NewImportService(nil, &mockConversationRepo{}, nil, nil)

	_, err := svc.ImportCSV(context.Background(), aliceP, strings.NewReader(""))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.ImportCSV(context.Background(), aliceP, strings.NewReader("timestamp,phone_number,content\n"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestImportService_ImportCSVStoreFailure(t *testing.T) {
	convs := &mockConversationRepo{}
	svc := NewImportService(nil, convs, nil, nil)
	convs.On("ReplaceByPhone", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("copy failed")).Once()

	_, err := svc.ImportCSV(context.Background(), aliceP, strings.NewReader(exportCSV))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestImportService_RequiresCaller(t *testing.T) {
	svc := NewImportService(nil, &mockConversationRepo{}, nil, nil)

	_, err := svc.ImportCSV(context.Background(), nil, strings.NewReader(exportCSV))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
