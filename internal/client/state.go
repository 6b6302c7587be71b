package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
)

const autoNameLength = 20

// Backend is the part of the HTTP API the State drives
type Backend interface {
	ListConversations(ctx context.Context) ([]domain.ConversationSummary, error)
	CreateConversation(ctx context.Context, name string) (*domain.Conversation, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, id uuid.UUID) ([]domain.Exchange, error)
	SendMessage(ctx context.Context, id uuid.UUID, text string) (string, error)
	DeleteMessage(ctx context.Context, convID, msgID uuid.UUID) error
}

// Snapshot is a copy of the view state at one point in time
type Snapshot struct {
	Conversations []domain.ConversationSummary
	Selected      uuid.UUID
	HasSelection  bool
	Messages      []domain.Exchange
	PendingInput  string
	IsSending     bool
	LastError     error
}

// State keeps a multi-conversation chat view consistent with the backend.
// It is safe for concurrent use. Message fetches are tagged with a
// generation number and a response that was overtaken by a newer fetch or
// selection change is dropped.
type State struct {
	backend Backend
	now     func() time.Time

	mu            sync.Mutex
	conversations []domain.ConversationSummary
	selected      uuid.UUID
	hasSelection  bool
	messages      []domain.Exchange
	pendingInput  string
	isSending     bool
	lastError     error
	generation    uint64
	listGen       uint64
}

// NewState creates an empty view over backend
func NewState(backend Backend) *State {
	return &State{backend: backend, now: time.Now}
}

// AutoName labels a conversation created implicitly by its first message
func AutoName(text string, now time.Time) string {
	short := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(short) > autoNameLength {
		short = short[:autoNameLength]
	}
	return strings.TrimSpace(string(short) + " - " + now.Format("02/01/2006 15:04"))
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Conversations: append([]domain.ConversationSummary(nil), s.conversations...),
		Selected:      s.selected,
		HasSelection:  s.hasSelection,
		Messages:      append([]domain.Exchange(nil), s.messages...),
		PendingInput:  s.pendingInput,
		IsSending:     s.isSending,
		LastError:     s.lastError,
	}
}

// SetInput replaces the text that the next Send will submit
func (s *State) SetInput(text string) {
	s.mu.Lock()
	s.pendingInput = text
	s.mu.Unlock()
}

// ClearError resets the error slot
func (s *State) ClearError() {
	s.setError(nil)
}

// Mount loads the conversation list and selects the first conversation
// when none is selected yet
func (s *State) Mount(ctx context.Context) error {
	s.ClearError()
	if err := s.refreshConversations(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var first uuid.UUID
	pick := !s.hasSelection && len(s.conversations) > 0
	if pick {
		first = s.conversations[0].ID
	}
	s.mu.Unlock()

	if !pick {
		return nil
	}
	return s.Select(ctx, first)
}

// Select switches to conversation id and replaces the local messages with
// the ones fetched from the backend
func (s *State) Select(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	s.lastError = nil
	if !s.hasSelection || s.selected != id {
		s.messages = nil
	}
	s.selected = id
	s.hasSelection = true
	s.mu.Unlock()

	return s.loadMessages(ctx, id)
}

// Send submits the pending input to the selected conversation, creating
// one first when nothing is selected. Blank input is ignored.
func (s *State) Send(ctx context.Context) error {
	s.mu.Lock()
	text := s.pendingInput
	if strings.TrimSpace(text) == "" || s.isSending {
		s.mu.Unlock()
		return nil
	}
	s.isSending = true
	s.lastError = nil
	convID, ok := s.selected, s.hasSelection
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSending = false
		s.mu.Unlock()
	}()

	if !ok {
		conv, err := s.backend.CreateConversation(ctx, AutoName(text, s.now()))
		if err != nil {
			s.setError(err)
			return err
		}
		convID = conv.ID

		s.mu.Lock()
		s.selected = convID
		s.hasSelection = true
		s.messages = nil
		s.generation++
		if !containsConversation(s.conversations, convID) {
			s.conversations = append([]domain.ConversationSummary{conv.Summary()}, s.conversations...)
		}
		s.mu.Unlock()
	}

	if _, err := s.backend.SendMessage(ctx, convID, text); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	if s.pendingInput == text {
		s.pendingInput = ""
	}
	s.mu.Unlock()

	return s.loadMessages(ctx, convID)
}

// AddConversation creates a conversation called name and reloads the list
func (s *State) AddConversation(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	s.ClearError()

	if _, err := s.backend.CreateConversation(ctx, name); err != nil {
		s.setError(err)
		return err
	}
	return s.refreshConversations(ctx)
}

// DeleteConversation removes conversation id. The selection is dropped if
// it pointed at id and the list is reloaded even when the delete failed.
func (s *State) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	s.ClearError()
	err := s.backend.DeleteConversation(ctx, id)
	if err != nil {
		s.setError(err)
	}

	s.mu.Lock()
	if s.hasSelection && s.selected == id {
		s.selected = uuid.Nil
		s.hasSelection = false
		s.messages = nil
		s.generation++
	}
	s.mu.Unlock()

	if refreshErr := s.refreshConversations(ctx); err == nil {
		err = refreshErr
	}
	return err
}

// DeleteMessage removes one exchange from the selected conversation
func (s *State) DeleteMessage(ctx context.Context, msgID uuid.UUID) error {
	s.mu.Lock()
	convID, ok := s.selected, s.hasSelection
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.ClearError()

	if err := s.backend.DeleteMessage(ctx, convID, msgID); err != nil {
		s.setError(err)
		return err
	}
	return s.loadMessages(ctx, convID)
}

// refreshConversations reloads the list unless a newer list fetch started
// while this one was in flight
func (s *State) refreshConversations(ctx context.Context) error {
	s.mu.Lock()
	s.listGen++
	gen := s.listGen
	s.mu.Unlock()

	convs, err := s.backend.ListConversations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.listGen {
		return nil
	}
	if err != nil {
		s.lastError = err
		return err
	}
	s.conversations = convs
	return nil
}

// loadMessages fetches the messages of id and installs them unless a newer
// fetch started or the selection moved while the request was in flight
func (s *State) loadMessages(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	messages, err := s.backend.ListMessages(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.hasSelection || s.selected != id {
		return nil
	}
	if err != nil {
		s.lastError = err
		return err
	}
	s.messages = messages
	return nil
}

func (s *State) setError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

func containsConversation(convs []domain.ConversationSummary, id uuid.UUID) bool {
	for _, c := range convs {
		if c.ID == id {
			return true
		}
	}
	return false
}
