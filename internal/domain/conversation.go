package domain

import "time"

// Conversation is an imported chat thread with a single phone number.
type Conversation struct {
	ID           string
	UserID       string
	Title        string
	PhoneNumber  string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
