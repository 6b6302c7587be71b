package mongo

import (
	"context"
	"fmt"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{coll: db.collection(messagesCollection)}
}

// Create inserts a standalone message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	doc := toExchangeDocument(domain.Exchange(*message))
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListRecent retrieves the latest messages, newest first
func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []exchangeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(docs))
	for _, doc := range docs {
		ex, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, domain.Message(ex))
	}

	return messages, nil
}

// Delete removes a message if it exists
func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// DeleteAll removes every message
func (r *MessageRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}
	return res.DeletedCount, nil
}
