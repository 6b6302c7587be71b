package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxNameLength = 200
	// maxWriteAttempts bounds the re-read and re-apply loop on version conflicts
	maxWriteAttempts = 3
)

// ConversationService handles conversations and their exchanges
type ConversationService struct {
	convRepo domain.ConversationRepository
	gateway  llm.Gateway
	now      func() time.Time
}

// NewConversationService creates a new conversation service
func NewConversationService(convRepo domain.ConversationRepository, gateway llm.Gateway) *ConversationService {
	return &ConversationService{
		convRepo: convRepo,
		gateway:  gateway,
		now:      time.Now,
	}
}

// List returns every conversation without its messages
func (s *ConversationService) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	summaries, err := s.convRepo.List(ctx)
	if err != nil {
		return nil, storeError("list conversations", err)
	}
	return summaries, nil
}

// Create starts an empty conversation named name
func (s *ConversationService) Create(ctx context.Context, name string) (*domain.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, &domain.ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}

	conv := domain.NewConversation(name, s.now())
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, storeError("create conversation", err)
	}

	log.Info().Str("conversation_id", conv.ID.String()).Msg("Conversation created")
	return conv, nil
}

// Remove deletes a conversation together with its exchanges. Unknown ids succeed.
func (s *ConversationService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.convRepo.Delete(ctx, id); err != nil {
		return storeError("delete conversation", err)
	}
	return nil
}

// ListMessages returns the exchanges of a conversation in chronological order
func (s *ConversationService) ListMessages(ctx context.Context, id uuid.UUID) ([]domain.Exchange, error) {
	conv, err := s.convRepo.Get(ctx, id)
	if err != nil {
		return nil, storeError("get conversation", err)
	}
	return conv.Messages, nil
}

// AppendMessage generates a reply to text and records the pair at the end
// of the conversation. Only the reply is returned.
//
// A failure after the reply was generated is reported as
// *domain.PersistenceAfterGenerationError so the caller still gets the text.
func (s *ConversationService) AppendMessage(ctx context.Context, id uuid.UUID, text string) (string, error) {
	if err := validateText(text); err != nil {
		return "", err
	}

	conv, err := s.convRepo.Get(ctx, id)
	if err != nil {
		return "", storeError("get conversation", err)
	}

	reply, err := generateReply(ctx, s.gateway, text)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", id.String()).Msg("Generation failed")
		return "", err
	}

	ex := domain.NewExchange(text, reply, s.now())
	if err := s.appendExchange(ctx, conv, ex); err != nil {
		log.Error().Err(err).
			Str("conversation_id", id.String()).
			Str("exchange_id", ex.ID.String()).
			Msg("Reply generated but not persisted")
		return "", &domain.PersistenceAfterGenerationError{Reply: reply, Err: err}
	}

	return reply, nil
}

// appendExchange appends ex and writes conv, re-reading it when another
// writer bumped the version in between. The reply is never regenerated.
func (s *ConversationService) appendExchange(ctx context.Context, conv *domain.Conversation, ex domain.Exchange) error {
	for attempt := 1; ; attempt++ {
		conv.Append(ex)
		err := s.convRepo.Replace(ctx, conv)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxWriteAttempts {
			return storeError("append message", err)
		}

		log.Warn().Str("conversation_id", conv.ID.String()).Int("attempt", attempt).Msg("Version conflict, retrying append")
		conv, err = s.convRepo.Get(ctx, conv.ID)
		if err != nil {
			return storeError("get conversation", err)
		}
	}
}

// DeleteMessage removes one exchange, keeping the order of the others
func (s *ConversationService) DeleteMessage(ctx context.Context, convID, msgID uuid.UUID) error {
	for attempt := 1; ; attempt++ {
		conv, err := s.convRepo.Get(ctx, convID)
		if err != nil {
			return storeError("get conversation", err)
		}

		if !conv.RemoveExchange(msgID) {
			return domain.ErrMessageNotFound
		}

		err = s.convRepo.Replace(ctx, conv)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxWriteAttempts {
			return storeError("delete message", err)
		}

		log.Warn().Str("conversation_id", convID.String()).Int("attempt", attempt).Msg("Version conflict, retrying delete")
	}
}
