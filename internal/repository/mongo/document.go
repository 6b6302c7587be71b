package mongo

import (
	"fmt"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
)

// Ids are stored as their string form so documents stay readable in the shell.

type exchangeDocument struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Bot       string    `bson:"bot"`
	CreatedAt time.Time `bson:"createdAt"`
}

type conversationDocument struct {
	ID        string             `bson:"_id"`
	Name      string             `bson:"name"`
	Messages  []exchangeDocument `bson:"messages"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type summaryDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toExchangeDocument(ex domain.Exchange) exchangeDocument {
	return exchangeDocument{
		ID:        ex.ID.String(),
		User:      ex.User,
		Bot:       ex.Bot,
		CreatedAt: ex.CreatedAt,
	}
}

func (d exchangeDocument) toDomain() (domain.Exchange, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("invalid exchange id %q: %w", d.ID, err)
	}
	return domain.Exchange{ID: id, User: d.User, Bot: d.Bot, CreatedAt: d.CreatedAt}, nil
}

func toConversationDocument(conv *domain.Conversation) conversationDocument {
	messages := make([]exchangeDocument, 0, len(conv.Messages))
	for _, ex := range conv.Messages {
		messages = append(messages, toExchangeDocument(ex))
	}
	return conversationDocument{
		ID:        conv.ID.String(),
		Name:      conv.Name,
		Messages:  messages,
		Version:   conv.Version,
		CreatedAt: conv.CreatedAt,
	}
}

func (d conversationDocument) toDomain() (*domain.Conversation, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation id %q: %w", d.ID, err)
	}

	messages := make([]domain.Exchange, 0, len(d.Messages))
	for _, m := range d.Messages {
		ex, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, ex)
	}

	return &domain.Conversation{
		ID:        id,
		Name:      d.Name,
		Messages:  messages,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
	}, nil
}

func (d summaryDocument) toDomain() (domain.ConversationSummary, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.ConversationSummary{}, fmt.Errorf("invalid conversation id %q: %w", d.ID, err)
	}
	return domain.ConversationSummary{ID: id, Name: d.Name, CreatedAt: d.CreatedAt}, nil
}
