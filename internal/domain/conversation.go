package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation is a named thread owning an ordered list of exchanges.
// Version increases by one on every persisted mutation.
type Conversation struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Messages  []Exchange `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	Version   int64      `json:"version"`
}

// ConversationSummary is the list view of a conversation, without messages
type ConversationSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationCreate is the request body for creating a conversation
type ConversationCreate struct {
	Name string `json:"name" validate:"required,max=200"`
}

// MessageCreate is the request body for sending a message
type MessageCreate struct {
	Message string `json:"message" validate:"required,max=8000"`
}

// NewConversation returns an empty conversation at version 1
func NewConversation(name string, now time.Time) *Conversation {
	return &Conversation{
		ID:        uuid.New(),
		Name:      name,
		Messages:  []Exchange{},
		CreatedAt: now,
		Version:   1,
	}
}

// Summary returns the list view of c
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// Append adds ex at the end of the thread
func (c *Conversation) Append(ex Exchange) {
	c.Messages = append(c.Messages, ex)
}

// RemoveExchange drops the exchange with id, keeping the order of the rest.
// It reports whether anything was removed.
func (c *Conversation) RemoveExchange(id uuid.UUID) bool {
	kept := make([]Exchange, 0, len(c.Messages))
	for _, ex := range c.Messages {
		if ex.ID != id {
			kept = append(kept, ex)
		}
	}
	removed := len(kept) != len(c.Messages)
	c.Messages = kept
	return removed
}

// ConversationRepository stores conversations as whole documents
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	// Get returns ErrConversationNotFound for an unknown id
	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// List returns summaries, newest first
	List(ctx context.Context) ([]ConversationSummary, error)
	// Replace writes conv only if the stored version still equals conv.Version,
	// then bumps conv.Version. It returns ErrConflict when the version moved and
	// ErrConversationNotFound when the document is gone.
	Replace(ctx context.Context, conv *Conversation) error
	// Delete removes the conversation and its exchanges if it exists
	Delete(ctx context.Context, id uuid.UUID) error
}
