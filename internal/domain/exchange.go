package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NoResponse is stored as the bot text when generation yields nothing usable
const NoResponse = "[No response]"

// Exchange is one user input paired with its generated reply. It is only
// ever built whole, never with one side missing.
type Exchange struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewExchange builds an exchange, substituting NoResponse for an empty reply
func NewExchange(user, bot string, now time.Time) Exchange {
	if bot == "" {
		bot = NoResponse
	}
	return Exchange{
		ID:        uuid.New(),
		User:      user,
		Bot:       bot,
		CreatedAt: now,
	}
}

// Message is an entry of the standalone chat log. It has the shape of an
// Exchange but belongs to no conversation.
type Message struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage builds a standalone log entry from a user/bot pair
func NewMessage(user, bot string, now time.Time) Message {
	ex := NewExchange(user, bot, now)
	return Message(ex)
}

// MessageRepository stores the standalone chat log
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// ListRecent returns at most limit entries, newest first
	ListRecent(ctx context.Context, limit int) ([]Message, error)
	// Delete removes the entry if it exists
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}
