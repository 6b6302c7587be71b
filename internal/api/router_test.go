package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/stackbot/internal/api"
	"github.com/Rrens/stackbot/internal/api/middleware"
	"github.com/Rrens/stackbot/internal/api/response"
	"github.com/Rrens/stackbot/internal/config"
	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/llm"
	"github.com/Rrens/stackbot/internal/repository/memory"
	"github.com/Rrens/stackbot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoGateway replies "re: <prompt>" unless err is set
type echoGateway struct {
	err   error
	calls int
}

func (g *echoGateway) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	g.calls++
	if g.err != nil {
		return nil, &domain.GatewayError{Provider: "echo", Err: g.err}
	}
	return &llm.Response{Text: "re: " + req.Prompt, Model: "echo"}, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	return false, 0, time.Now().Add(time.Minute), nil
}

func newTestServer(t *testing.T, gateway llm.Gateway, opts ...func(*api.Deps)) *httptest.Server {
	t.Helper()

	return newTestServerWithProxies(t, nil, gateway, opts...)
}

func newTestServerWithProxies(t *testing.T, proxies []string, gateway llm.Gateway, opts ...func(*api.Deps)) *httptest.Server {
	t.Helper()

	cfg := &config.Config{Server: config.ServerConfig{
		MiddlewareTimeout: 5 * time.Second,
		AllowedOrigins:    []string{"*"},
		TrustedProxies:    proxies,
	}}
	deps := api.Deps{
		Conversations: service.NewConversationService(memory.NewConversationRepository(), gateway),
		Chat:          service.NewChatService(memory.NewMessageRepository(), gateway),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv := httptest.NewServer(api.NewRouter(cfg, deps))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewReader([]byte(b))
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestConversationFlow(t *testing.T) {
	gateway := &echoGateway{}
	srv := newTestServer(t, gateway)
	base := srv.URL + "/api/conversations"

	var conv domain.Conversation
	status := do(t, http.MethodPost, base, map[string]string{"name": "Test"}, &conv)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Test", conv.Name)
	assert.NotNil(t, conv.Messages)

	var summaries []domain.ConversationSummary
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, base, nil, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, conv.ID, summaries[0].ID)

	messagesURL := base + "/" + conv.ID.String() + "/messages"

	var empty []domain.Exchange
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, messagesURL, nil, &empty))
	assert.Empty(t, empty)

	var reply map[string]string
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, messagesURL, map[string]string{"message": "hello"}, &reply))
	assert.Equal(t, map[string]string{"reply": "re: hello"}, reply)

	var messages []domain.Exchange
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, messagesURL, nil, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].User)
	assert.Equal(t, "re: hello", messages[0].Bot)

	var ack response.Ack
	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, messagesURL+"/"+messages[0].ID.String(), nil, &ack))
	assert.True(t, ack.Success)

	var errBody response.ErrorBody
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodDelete, messagesURL+"/"+messages[0].ID.String(), nil, &errBody))
	assert.Equal(t, "message not found", errBody.Error)

	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, base+"/"+conv.ID.String(), nil, &ack))
	assert.True(t, ack.Success)

	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, messagesURL, nil, &errBody))
	assert.Equal(t, "conversation not found", errBody.Error)

	calls := gateway.calls
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, messagesURL, map[string]string{"message": "hello"}, &errBody))
	assert.Equal(t, calls, gateway.calls)
}

func TestConversationValidation(t *testing.T) {
	srv := newTestServer(t, &echoGateway{})
	base := srv.URL + "/api/conversations"

	tests := []struct {
		name string
		url  string
		body any
	}{
		{"malformed json", base, "{name:"},
		{"missing name", base, map[string]string{}},
		{"blank name", base, map[string]string{"name": "   "}},
		{"long name", base, map[string]string{"name": strings.Repeat("n", 201)}},
		{"bad id", base + "/not-a-uuid/messages", map[string]string{"message": "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errBody response.ErrorBody
			assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, tt.url, tt.body, &errBody))
			assert.NotEmpty(t, errBody.Error)
			assert.NotEmpty(t, errBody.Detail)
		})
	}
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t, &echoGateway{})

	var reply map[string]string
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/api/chat", map[string]string{"message": "hello"}, &reply))
	assert.Equal(t, "re: hello", reply["reply"])

	var history []domain.Message
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/history", nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].User)

	var ack response.Ack
	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/api/history/"+history[0].ID.String(), nil, &ack))
	assert.Equal(t, response.Ack{Success: true, Message: "Chat deleted"}, ack)

	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/api/history", nil, &ack))
	assert.Equal(t, response.Ack{Success: true, Message: "History cleared"}, ack)

	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/history", nil, &history))
	assert.Empty(t, history)
}

func TestChatGatewayFailure(t *testing.T) {
	srv := newTestServer(t, &echoGateway{err: errors.New("upstream 503")})

	var errBody response.ErrorBody
	assert.Equal(t, http.StatusInternalServerError, do(t, http.MethodPost, srv.URL+"/api/chat", map[string]string{"message": "hello"}, &errBody))
	assert.Equal(t, "failed to generate reply", errBody.Error)
	assert.Contains(t, errBody.Detail, "upstream 503")

	var history []domain.Message
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/history", nil, &history))
	assert.Empty(t, history)
}

func TestRateLimitedGeneration(t *testing.T) {
	gateway := &echoGateway{}
	srv := newTestServer(t, gateway, func(d *api.Deps) { d.Limiter = denyLimiter{} })

	var errBody response.ErrorBody
	assert.Equal(t, http.StatusTooManyRequests, do(t, http.MethodPost, srv.URL+"/api/chat", map[string]string{"message": "hello"}, &errBody))
	assert.Equal(t, 0, gateway.calls)

	var history []domain.Message
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/history", nil, &history))
}

func postChatFrom(t *testing.T, url, forwardedFor string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/api/chat", strings.NewReader(`{"message":"hello"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimitIgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	gateway := &echoGateway{}
	srv := newTestServer(t, gateway, func(d *api.Deps) {
		d.Limiter = middleware.NewLocalLimiter(1, 0)
	})

	allowed := 0
	for i := 0; i < 20; i++ {
		if postChatFrom(t, srv.URL, fmt.Sprintf("198.51.100.%d", i)) == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, gateway.calls)
}

func TestRateLimitKeysOnForwardedClientBehindTrustedProxy(t *testing.T) {
	gateway := &echoGateway{}
	srv := newTestServerWithProxies(t, []string{"127.0.0.1", "::1"}, gateway, func(d *api.Deps) {
		d.Limiter = middleware.NewLocalLimiter(1, 0)
	})

	assert.Equal(t, http.StatusOK, postChatFrom(t, srv.URL, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, postChatFrom(t, srv.URL, "198.51.100.1"))
	assert.Equal(t, http.StatusOK, postChatFrom(t, srv.URL, "198.51.100.2"))
	assert.Equal(t, 2, gateway.calls)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &echoGateway{})

	var body map[string]string
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/health", nil, &body))
	assert.Equal(t, "ok", body["status"])

	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/api/ready", nil, &body))
	assert.Equal(t, "ready", body["status"])
}
