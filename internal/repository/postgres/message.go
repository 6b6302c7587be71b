package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new standalone message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, user_text, bot_text, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		message.ID,
		message.User,
		message.Bot,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListRecent retrieves the latest messages, newest first
func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, user_text, bot_text, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.User, &m.Bot, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// Delete removes a message if it exists
func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// DeleteAll removes every message and returns how many were deleted
func (r *MessageRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}
	return tag.RowsAffected(), nil
}
