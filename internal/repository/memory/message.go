package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
)

// MessageRepository keeps the standalone log in process memory
type MessageRepository struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// NewMessageRepository creates an empty repository
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]domain.Message{}, r.messages...)
	// newest first; insertion order breaks ties so equal timestamps stay stable
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *MessageRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.messages))
	r.messages = nil
	return n, nil
}
