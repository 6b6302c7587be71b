package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend. ListMessages blocks on gates[id]
// when one is installed.
type fakeBackend struct {
	mu       sync.Mutex
	convs    []domain.ConversationSummary
	messages map[uuid.UUID][]domain.Exchange
	gates    map[uuid.UUID]chan struct{}
	started  chan uuid.UUID

	createErr error
	deleteErr error
	sendErr   error
	created   []string
	listCalls int

	// listGate, when set, holds the next ListConversations after it has
	// read the list
	listGate    chan struct{}
	listStarted chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: make(map[uuid.UUID][]domain.Exchange),
		gates:    make(map[uuid.UUID]chan struct{}),
		started:  make(chan uuid.UUID, 64),

		listStarted: make(chan struct{}, 1),
	}
}

func (f *fakeBackend) addConversation(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := domain.NewConversation(name, time.Now())
	f.convs = append([]domain.ConversationSummary{conv.Summary()}, f.convs...)
	f.messages[conv.ID] = nil
	return conv.ID
}

func (f *fakeBackend) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	f.mu.Lock()
	f.listCalls++
	convs := append([]domain.ConversationSummary(nil), f.convs...)
	gate := f.listGate
	f.listGate = nil
	f.mu.Unlock()

	if gate != nil {
		f.listStarted <- struct{}{}
		<-gate
	}
	return convs, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, name string) (*domain.Conversation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := domain.NewConversation(name, time.Now())
	f.convs = append([]domain.ConversationSummary{conv.Summary()}, f.convs...)
	f.created = append(f.created, name)
	return conv, nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.convs[:0]
	for _, c := range f.convs {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.convs = kept
	delete(f.messages, id)
	return nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, id uuid.UUID) ([]domain.Exchange, error) {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()

	f.started <- id
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	msgs, ok := f.messages[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return append([]domain.Exchange(nil), msgs...), nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, id uuid.UUID, text string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id] = append(f.messages[id], domain.NewExchange(text, "reply to "+text, time.Now()))
	return "reply to " + text, nil
}

func (f *fakeBackend) DeleteMessage(ctx context.Context, convID, msgID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[convID]
	kept := msgs[:0]
	for _, m := range msgs {
		if m.ID != msgID {
			kept = append(kept, m)
		}
	}
	f.messages[convID] = kept
	return nil
}

func drain(ch chan uuid.UUID) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestAutoName(t *testing.T) {
	at := time.Date(2025, 6, 17, 15, 42, 0, 0, time.Local)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"short", "hello", "hello - 17/06/2025 15:42"},
		{"truncated", "abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst - 17/06/2025 15:42"},
		{"newlines", "line one\nline two", "line one line two - 17/06/2025 15:42"},
		{"multibyte", "ééééééééééééééééééééé", "éééééééééééééééééééé - 17/06/2025 15:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AutoName(tt.text, at))
		})
	}
}

func TestState_MountSelectsFirst(t *testing.T) {
	backend := newFakeBackend()
	backend.addConversation("older")
	newest := backend.addConversation("newest")
	state := NewState(backend)

	require.NoError(t, state.Mount(context.Background()))

	snap := state.Snapshot()
	assert.Len(t, snap.Conversations, 2)
	assert.True(t, snap.HasSelection)
	assert.Equal(t, newest, snap.Selected)
}

func TestState_StaleSelectIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	slow := backend.addConversation("slow")
	fast := backend.addConversation("fast")
	backend.messages[slow] = []domain.Exchange{domain.NewExchange("from slow", "x", time.Now())}
	backend.messages[fast] = []domain.Exchange{domain.NewExchange("from fast", "y", time.Now())}
	gate := make(chan struct{})
	backend.gates[slow] = gate

	state := NewState(backend)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- state.Select(ctx, slow) }()
	require.Equal(t, slow, <-backend.started)

	require.NoError(t, state.Select(ctx, fast))
	close(gate)
	require.NoError(t, <-done)

	snap := state.Snapshot()
	assert.Equal(t, fast, snap.Selected)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "from fast", snap.Messages[0].User)
}

func TestState_SendCreatesConversation(t *testing.T) {
	backend := newFakeBackend()
	existing := backend.addConversation("existing")
	state := NewState(backend)
	state.now = func() time.Time { return time.Date(2025, 6, 17, 15, 42, 0, 0, time.Local) }
	ctx := context.Background()

	state.conversations = []domain.ConversationSummary{{ID: existing, Name: "existing"}}
	state.SetInput("hello\nworld")
	require.NoError(t, state.Send(ctx))

	snap := state.Snapshot()
	assert.Equal(t, []string{"hello world - 17/06/2025 15:42"}, backend.created)
	require.Len(t, snap.Conversations, 2)
	assert.Equal(t, snap.Selected, snap.Conversations[0].ID)
	assert.Equal(t, existing, snap.Conversations[1].ID)
	assert.Empty(t, snap.PendingInput)
	assert.False(t, snap.IsSending)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hello\nworld", snap.Messages[0].User)
}

func TestState_SendIgnoresBlankInput(t *testing.T) {
	backend := newFakeBackend()
	state := NewState(backend)

	state.SetInput("   ")
	require.NoError(t, state.Send(context.Background()))

	assert.Empty(t, backend.created)
	assert.False(t, state.Snapshot().HasSelection)
}

func TestState_SendFailureKeepsInput(t *testing.T) {
	backend := newFakeBackend()
	id := backend.addConversation("c")
	backend.sendErr = errors.New("500 failed to generate reply")
	state := NewState(backend)
	ctx := context.Background()

	require.NoError(t, state.Select(ctx, id))
	state.SetInput("hello")
	assert.Error(t, state.Send(ctx))

	snap := state.Snapshot()
	assert.Equal(t, "hello", snap.PendingInput)
	assert.EqualError(t, snap.LastError, "500 failed to generate reply")
	assert.False(t, snap.IsSending)

	state.ClearError()
	assert.NoError(t, state.Snapshot().LastError)
}

func TestState_DeleteConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("selected conversation is dropped", func(t *testing.T) {
		backend := newFakeBackend()
		id := backend.addConversation("c")
		backend.messages[id] = []domain.Exchange{domain.NewExchange("a", "b", time.Now())}
		state := NewState(backend)
		require.NoError(t, state.Mount(ctx))

		require.NoError(t, state.DeleteConversation(ctx, id))

		snap := state.Snapshot()
		assert.False(t, snap.HasSelection)
		assert.Empty(t, snap.Messages)
		assert.Empty(t, snap.Conversations)
	})

	t.Run("list reloads after failure", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addConversation("c")
		backend.deleteErr = errors.New("503 unavailable")
		state := NewState(backend)
		require.NoError(t, state.Mount(ctx))
		calls := backend.listCalls

		err := state.DeleteConversation(ctx, uuid.New())
		assert.Error(t, err)
		assert.Equal(t, calls+1, backend.listCalls)
		assert.Error(t, state.Snapshot().LastError)
		assert.True(t, state.Snapshot().HasSelection)
	})
}

func TestState_AddConversation(t *testing.T) {
	backend := newFakeBackend()
	state := NewState(backend)
	ctx := context.Background()

	require.NoError(t, state.AddConversation(ctx, " "))
	assert.Empty(t, backend.created)

	require.NoError(t, state.AddConversation(ctx, "Work"))
	snap := state.Snapshot()
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, "Work", snap.Conversations[0].Name)
	assert.False(t, snap.HasSelection)

	backend.createErr = errors.New("400 invalid request")
	assert.Error(t, state.AddConversation(ctx, "Other"))
	assert.Error(t, state.Snapshot().LastError)
}

func TestState_DeleteMessage(t *testing.T) {
	backend := newFakeBackend()
	id := backend.addConversation("c")
	keep := domain.NewExchange("keep", "1", time.Now())
	drop := domain.NewExchange("drop", "2", time.Now())
	backend.messages[id] = []domain.Exchange{keep, drop}
	state := NewState(backend)
	ctx := context.Background()

	require.NoError(t, state.DeleteMessage(ctx, drop.ID))
	assert.Len(t, backend.messages[id], 2)

	require.NoError(t, state.Select(ctx, id))
	drain(backend.started)
	require.NoError(t, state.DeleteMessage(ctx, drop.ID))

	snap := state.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, keep.ID, snap.Messages[0].ID)
}

func TestState_StaleListIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	backend.addConversation("first")
	state := NewState(backend)
	ctx := context.Background()
	require.NoError(t, state.Mount(ctx))

	gate := make(chan struct{})
	backend.mu.Lock()
	backend.listGate = gate
	backend.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- state.DeleteConversation(ctx, uuid.New()) }()
	<-backend.listStarted

	require.NoError(t, state.AddConversation(ctx, "second"))
	close(gate)
	require.NoError(t, <-done)

	snap := state.Snapshot()
	require.Len(t, snap.Conversations, 2)
	assert.Equal(t, "second", snap.Conversations[0].Name)
}

func TestState_SelectClearsError(t *testing.T) {
	backend := newFakeBackend()
	id := backend.addConversation("c")
	backend.createErr = errors.New("400 invalid request")
	state := NewState(backend)
	ctx := context.Background()

	assert.Error(t, state.AddConversation(ctx, "broken"))
	require.Error(t, state.Snapshot().LastError)

	require.NoError(t, state.Select(ctx, id))
	assert.NoError(t, state.Snapshot().LastError)
}
