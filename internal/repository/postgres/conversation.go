package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConversationRepository implements domain.ConversationRepository. Exchanges
// are kept in a JSONB column so a conversation stays a single row.
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	messages, err := marshalExchanges(conv.Messages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO conversations (id, name, messages, version, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		conv.ID,
		conv.Name,
		messages,
		conv.Version,
		conv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// Get retrieves a conversation with its exchanges
func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, name, messages, version, created_at
		FROM conversations
		WHERE id = $1
	`

	var conv domain.Conversation
	var messagesJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.Name,
		&messagesJSON,
		&conv.Version,
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	conv.Messages = []domain.Exchange{}
	if len(messagesJSON) > 0 {
		if err := json.Unmarshal(messagesJSON, &conv.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}

	return &conv, nil
}

// List retrieves conversation summaries, newest first
func (r *ConversationRepository) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	query := `
		SELECT id, name, created_at
		FROM conversations
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ConversationSummary{}
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return summaries, nil
}

// Replace writes conv if its version is unchanged since it was read
func (r *ConversationRepository) Replace(ctx context.Context, conv *domain.Conversation) error {
	messages, err := marshalExchanges(conv.Messages)
	if err != nil {
		return err
	}

	query := `
		UPDATE conversations
		SET name = $2, messages = $3, version = version + 1
		WHERE id = $1 AND version = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query, conv.ID, conv.Name, messages, conv.Version)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1)`, conv.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check conversation: %w", err)
		}
		if !exists {
			return domain.ErrConversationNotFound
		}
		return domain.ErrConflict
	}

	conv.Version++
	return nil
}

// Delete removes a conversation
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func marshalExchanges(exchanges []domain.Exchange) ([]byte, error) {
	if exchanges == nil {
		exchanges = []domain.Exchange{}
	}
	data, err := json.Marshal(exchanges)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	return data, nil
}
