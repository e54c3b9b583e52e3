package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkahistory/chat-archive/internal/domain"
)

var msgCols = []string{"id", "conversation_id", "content", "timestamp", "from_me", "message_type", "media_url", "media_filename"}

func TestMessageRepository_ListByConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	t0 := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	url := "https://cdn.example.com/a.mp3"
	name := "a.mp3"
	mock.ExpectQuery(`ORDER BY timestamp ASC`).
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows(msgCols).
			AddRow("m-1", "c-1", "hello", t0, false, domain.MessageTypeText, (*string)(nil), (*string)(nil)).
			AddRow("m-2", "c-1", url, t0.Add(time.Minute), true, domain.MessageTypeAudio, &url, &name))

	msgs, err := NewMessageRepository(mock).ListByConversation(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[0].MediaURL)
	require.NotNil(t, msgs[1].MediaFilename)
	assert.Equal(t, "a.mp3", *msgs[1].MediaFilename)
	assert.True(t, msgs[1].FromMe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListMediaByConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`message_type <> 'text'`).
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows(msgCols))

	msgs, err := NewMessageRepository(mock).ListMediaByConversation(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
