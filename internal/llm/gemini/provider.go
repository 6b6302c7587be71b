package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/stackbot/internal/config"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := p.DefaultModel()
	generativeModel := client.GenerativeModel(model)
	generativeModel.SetMaxOutputTokens(req.MaxOutputTokens)
	generativeModel.SetTemperature(req.Temperature)

	start := time.Now()
	resp, err := generativeModel.GenerateContent(ctx, genai.Text(req.Prompt))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       firstText(resp),
		Model:      model,
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}

// firstText returns the first part of the first candidate when it is text.
// Any other shape yields "".
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return ""
	}
	if text, ok := content.Parts[0].(genai.Text); ok {
		return string(text)
	}
	return ""
}
