package domain

import "time"

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
)

// IsMedia reports whether the type carries an attachment.
func (t MessageType) IsMedia() bool {
	switch t {
	case MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeDocument:
		return true
	default:
		return false
	}
}

// Message is a single entry in a conversation.
type Message struct {
	ID             string
	ConversationID string
	Content        string
	Timestamp      time.Time
	FromMe         bool
	MessageType    MessageType
	MediaURL       *string
	MediaFilename  *string
}
