package mongo

import (
	"testing"
	"time"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConversationDocument_BSONRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	conv := domain.NewConversation("Test", now)
	conv.Append(domain.NewExchange("hello", "hi there", now))
	conv.Version = 4

	raw, err := bson.Marshal(toConversationDocument(conv))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, conv.ID.String(), fields["_id"])
	assert.Equal(t, int64(4), fields["version"])

	var doc conversationDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got, err := doc.toDomain()
	require.NoError(t, err)

	assert.Equal(t, conv.ID, got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, conv.Messages[0].ID, got.Messages[0].ID)
	assert.Equal(t, "hi there", got.Messages[0].Bot)
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestConversationDocument_InvalidID(t *testing.T) {
	_, err := conversationDocument{ID: "not-a-uuid"}.toDomain()
	assert.Error(t, err)

	_, err = conversationDocument{
		ID:       "6f1c1c9e-4c55-4a8e-9a0e-3f0c6c0d3c11",
		Messages: []exchangeDocument{{ID: "bad"}},
	}.toDomain()
	assert.Error(t, err)
}
