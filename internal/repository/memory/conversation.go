package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
)

// ConversationRepository keeps conversations in process memory. Stored
// values are copied on the way in and out so callers never share slices.
type ConversationRepository struct {
	mu    sync.RWMutex
	convs map[uuid.UUID]*domain.Conversation
}

// NewConversationRepository creates an empty repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{convs: make(map[uuid.UUID]*domain.Conversation)}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.ID] = clone(conv)
	return nil
}

func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.convs[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return clone(conv), nil
}

func (r *ConversationRepository) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]domain.ConversationSummary, 0, len(r.convs))
	for _, conv := range r.convs {
		summaries = append(summaries, conv.Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (r *ConversationRepository) Replace(ctx context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.convs[conv.ID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	if stored.Version != conv.Version {
		return domain.ErrConflict
	}

	conv.Version++
	r.convs[conv.ID] = clone(conv)
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, id)
	return nil
}

func clone(conv *domain.Conversation) *domain.Conversation {
	c := *conv
	c.Messages = append([]domain.Exchange{}, conv.Messages...)
	return &c
}
