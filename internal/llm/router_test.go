package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	configured bool
	text       string
	err        error
	got        llm.Request
	deadline   bool
}

func (p *stubProvider) Name() string         { return p.name }
func (p *stubProvider) DefaultModel() string { return "stub-1" }
func (p *stubProvider) IsConfigured() bool   { return p.configured }

func (p *stubProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.got = req
	_, p.deadline = ctx.Deadline()
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Text: p.text, Model: "stub-1"}, nil
}

func TestNewRequest_FixedParameters(t *testing.T) {
	req := llm.NewRequest("hello")

	assert.Equal(t, "hello", req.Prompt)
	assert.Equal(t, int32(256), req.MaxOutputTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
}

func TestReplyText(t *testing.T) {
	assert.Equal(t, domain.NoResponse, llm.ReplyText(nil))
	assert.Equal(t, domain.NoResponse, llm.ReplyText(&llm.Response{}))
	assert.Equal(t, "hi there", llm.ReplyText(&llm.Response{Text: "hi there"}))
}

func TestRouter_GenerateUsesDefaultProvider(t *testing.T) {
	stub := &stubProvider{name: "stub", configured: true, text: "hi there"}
	router := llm.NewRouter("stub", time.Minute)
	router.RegisterProvider(stub)

	resp, err := router.Generate(context.Background(), llm.NewRequest("hello"))
	require.NoError(t, err)

	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "hello", stub.got.Prompt)
	assert.True(t, stub.deadline)
}

func TestRouter_GenerateErrors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		router := llm.NewRouter("stub", 0)
		router.RegisterProvider(&stubProvider{name: "stub", configured: true, err: errors.New("503")})

		_, err := router.Generate(context.Background(), llm.NewRequest("hello"))

		var gwErr *domain.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, "stub", gwErr.Provider)
	})

	t.Run("missing provider", func(t *testing.T) {
		router := llm.NewRouter("gemini", 0)

		_, err := router.Generate(context.Background(), llm.NewRequest("hello"))

		var gwErr *domain.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, "gemini", gwErr.Provider)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		router := llm.NewRouter("stub", 0)
		router.RegisterProvider(&stubProvider{name: "stub"})

		_, err := router.Generate(context.Background(), llm.NewRequest("hello"))
		assert.Error(t, err)
		assert.Empty(t, router.ListProviders())
	})
}
