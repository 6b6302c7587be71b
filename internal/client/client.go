package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
)

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string `json:"error"`
	Detail  string `json:"detail"`
	// Reply is set when the backend generated a reply it could not store
	Reply string `json:"reply"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Detail)
}

// Client is a typed client for the chat backend HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL, e.g. http://localhost:3001
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 90 * time.Second})
}

// NewWithHTTPClient creates a client that sends requests through httpClient
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type replyBody struct {
	Reply string `json:"reply"`
}

type messageBody struct {
	Message string `json:"message"`
}

// ListConversations fetches every conversation summary, newest first
func (c *Client) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	var out []domain.ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates an empty conversation
func (c *Client) CreateConversation(ctx context.Context, name string) (*domain.Conversation, error) {
	var out domain.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/conversations", domain.ConversationCreate{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and its messages
func (c *Client) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/conversations/"+id.String(), nil, nil)
}

// ListMessages fetches the exchanges of a conversation in order
func (c *Client) ListMessages(ctx context.Context, id uuid.UUID) ([]domain.Exchange, error) {
	var out []domain.Exchange
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+id.String()+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage appends text to a conversation and returns the reply
func (c *Client) SendMessage(ctx context.Context, id uuid.UUID, text string) (string, error) {
	var out replyBody
	if err := c.do(ctx, http.MethodPost, "/api/conversations/"+id.String()+"/messages", messageBody{Message: text}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// DeleteMessage removes one exchange from a conversation
func (c *Client) DeleteMessage(ctx context.Context, convID, msgID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/conversations/"+convID.String()+"/messages/"+msgID.String(), nil, nil)
}

// Chat sends text to the standalone log and returns the reply
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	var out replyBody
	if err := c.do(ctx, http.MethodPost, "/api/chat", messageBody{Message: text}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// History fetches the latest standalone messages, newest first
func (c *Client) History(ctx context.Context) ([]domain.Message, error) {
	var out []domain.Message
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearHistory deletes the whole standalone log
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/history", nil, nil)
}

// DeleteHistoryMessage deletes one standalone message
func (c *Client) DeleteHistoryMessage(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/history/"+id.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
