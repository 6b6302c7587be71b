// Package repotest holds behaviour checks shared by every repository backend.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base is truncated to milliseconds so every backend round-trips it exactly
var base = time.Date(2025, 6, 17, 15, 42, 0, 0, time.UTC)

// ConversationRepository exercises a fresh, empty domain.ConversationRepository
func ConversationRepository(t *testing.T, repo domain.ConversationRepository) {
	ctx := context.Background()

	t.Run("create then get is empty", func(t *testing.T) {
		conv := domain.NewConversation("Test", base)
		require.NoError(t, repo.Create(ctx, conv))

		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test", got.Name)
		assert.Empty(t, got.Messages)
		assert.Equal(t, int64(1), got.Version)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("replace bumps version and keeps order", func(t *testing.T) {
		conv := domain.NewConversation("Ordered", base.Add(time.Minute))
		require.NoError(t, repo.Create(ctx, conv))

		for i := 0; i < 3; i++ {
			conv.Append(domain.NewExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), base.Add(time.Duration(i)*time.Second)))
		}
		require.NoError(t, repo.Replace(ctx, conv))
		assert.Equal(t, int64(2), conv.Version)

		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, got.Messages, 3)
		for i, ex := range got.Messages {
			assert.Equal(t, conv.Messages[i].ID, ex.ID)
			assert.Equal(t, fmt.Sprintf("q%d", i), ex.User)
		}
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("replace with stale version conflicts", func(t *testing.T) {
		conv := domain.NewConversation("Racy", base.Add(2*time.Minute))
		require.NoError(t, repo.Create(ctx, conv))

		first, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		second, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)

		first.Append(domain.NewExchange("first", "1", base))
		require.NoError(t, repo.Replace(ctx, first))

		second.Append(domain.NewExchange("second", "2", base))
		assert.ErrorIs(t, repo.Replace(ctx, second), domain.ErrConflict)

		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "first", got.Messages[0].User)
	})

	t.Run("replace deleted", func(t *testing.T) {
		conv := domain.NewConversation("Gone", base)
		require.NoError(t, repo.Create(ctx, conv))
		require.NoError(t, repo.Delete(ctx, conv.ID))

		assert.ErrorIs(t, repo.Replace(ctx, conv), domain.ErrConversationNotFound)
	})

	t.Run("list newest first without messages", func(t *testing.T) {
		newest := domain.NewConversation("Newest", base.Add(time.Hour))
		require.NoError(t, repo.Create(ctx, newest))

		summaries, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, summaries)
		assert.Equal(t, newest.ID, summaries[0].ID)
		for i := 1; i < len(summaries); i++ {
			assert.False(t, summaries[i].CreatedAt.After(summaries[i-1].CreatedAt))
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		conv := domain.NewConversation("Doomed", base)
		require.NoError(t, repo.Create(ctx, conv))

		require.NoError(t, repo.Delete(ctx, conv.ID))
		require.NoError(t, repo.Delete(ctx, conv.ID))

		_, err := repo.Get(ctx, conv.ID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})
}

// MessageRepository exercises a fresh, empty domain.MessageRepository
func MessageRepository(t *testing.T, repo domain.MessageRepository) {
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 25; i++ {
		m := domain.NewMessage(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(ctx, &m))
		ids = append(ids, m.ID)
	}

	t.Run("list recent is bounded and newest first", func(t *testing.T) {
		got, err := repo.ListRecent(ctx, 20)
		require.NoError(t, err)
		require.Len(t, got, 20)
		assert.Equal(t, "q24", got[0].User)
		assert.Equal(t, "q5", got[19].User)
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
		}
	})

	t.Run("delete one", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, ids[24]))
		require.NoError(t, repo.Delete(ctx, uuid.New()))

		got, err := repo.ListRecent(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, "q23", got[0].User)
	})

	t.Run("delete all", func(t *testing.T) {
		n, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(24), n)

		got, err := repo.ListRecent(ctx, 20)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
