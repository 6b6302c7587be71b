package llm

import (
	"context"

	"github.com/Rrens/stackbot/internal/domain"
)

const (
	// DefaultMaxOutputTokens caps the reply length of every chat generation
	DefaultMaxOutputTokens int32 = 256
	// DefaultTemperature is the sampling temperature of every chat generation
	DefaultTemperature float32 = 0.7
)

// Request contains generation parameters
type Request struct {
	Prompt          string
	MaxOutputTokens int32
	Temperature     float32
}

// NewRequest returns a request for prompt with the fixed chat parameters
func NewRequest(prompt string) Request {
	return Request{
		Prompt:          prompt,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     DefaultTemperature,
	}
}

// Response contains the generation result. Text is empty when the provider
// answered without usable content.
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// ReplyText returns the text to store for resp
func ReplyText(resp *Response) string {
	if resp == nil || resp.Text == "" {
		return domain.NoResponse
	}
	return resp.Text
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the model used for generation
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate produces a reply for req.Prompt
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Gateway is the generation dependency of the chat services
type Gateway interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
