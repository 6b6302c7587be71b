package service

import (
	"context"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HistoryLimit is the number of standalone messages History returns
const HistoryLimit = 20

// ChatService handles the standalone chat log
type ChatService struct {
	messageRepo domain.MessageRepository
	gateway     llm.Gateway
	now         func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(messageRepo domain.MessageRepository, gateway llm.Gateway) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		gateway:     gateway,
		now:         time.Now,
	}
}

// Send generates a reply to text and logs the pair
func (s *ChatService) Send(ctx context.Context, text string) (string, error) {
	if err := validateText(text); err != nil {
		return "", err
	}

	reply, err := generateReply(ctx, s.gateway, text)
	if err != nil {
		log.Error().Err(err).Msg("Generation failed")
		return "", err
	}

	msg := domain.NewMessage(text, reply, s.now())
	if err := s.messageRepo.Create(ctx, &msg); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID.String()).Msg("Reply generated but not persisted")
		return "", &domain.PersistenceAfterGenerationError{Reply: reply, Err: storeError("create message", err)}
	}

	return reply, nil
}

// History returns the latest messages, newest first
func (s *ChatService) History(ctx context.Context) ([]domain.Message, error) {
	messages, err := s.messageRepo.ListRecent(ctx, HistoryLimit)
	if err != nil {
		return nil, storeError("list messages", err)
	}
	return messages, nil
}

// Clear deletes the whole log
func (s *ChatService) Clear(ctx context.Context) error {
	n, err := s.messageRepo.DeleteAll(ctx)
	if err != nil {
		return storeError("clear messages", err)
	}
	log.Info().Int64("deleted", n).Msg("History cleared")
	return nil
}

// DeleteOne removes a message if it exists
func (s *ChatService) DeleteOne(ctx context.Context, id uuid.UUID) error {
	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return storeError("delete message", err)
	}
	return nil
}
