package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/stackbot/internal/llm"
)

// Provider implements llm.Provider for a local Ollama server
type Provider struct {
	host         string
	defaultModel string
	client       *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(host, defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "llama3"
	}
	return &Provider{
		host:         host,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 300 * time.Second},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "ollama"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if the provider has a host
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

// Generate produces a reply for req.Prompt
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	ollamaReq := ollamaRequest{
		Model:  p.defaultModel,
		Prompt: req.Prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &llm.Response{
		Text:       ollamaResp.Response,
		Model:      p.defaultModel,
		TokensUsed: ollamaResp.EvalCount,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
