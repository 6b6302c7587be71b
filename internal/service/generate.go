package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/rs/zerolog/log"
)

// validateText rejects blank user input
func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &domain.ValidationError{Field: "message", Message: "must not be empty"}
	}
	return nil
}

// generateReply asks the gateway for a reply to text. The result is never
// empty: a reply without usable content becomes domain.NoResponse.
func generateReply(ctx context.Context, gateway llm.Gateway, text string) (string, error) {
	resp, err := gateway.Generate(ctx, llm.NewRequest(text))
	if err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) {
			return "", err
		}
		return "", &domain.GatewayError{Provider: "unknown", Err: err}
	}

	if resp != nil {
		log.Debug().
			Str("model", resp.Model).
			Int("tokens_used", resp.TokensUsed).
			Int64("latency_ms", resp.LatencyMs).
			Msg("Reply generated")
	}

	return llm.ReplyText(resp), nil
}

// storeError passes repository sentinels through and wraps everything else
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrConversationNotFound) ||
		errors.Is(err, domain.ErrMessageNotFound) ||
		errors.Is(err, domain.ErrConflict) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
