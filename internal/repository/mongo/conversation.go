package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/stackbot/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository implements domain.ConversationRepository with one
// document per conversation and the exchanges embedded in it.
type ConversationRepository struct {
	coll *mongo.Collection
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{coll: db.collection(conversationsCollection)}
}

// Create inserts a new conversation document
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	if _, err := r.coll.InsertOne(ctx, toConversationDocument(conv)); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// Get retrieves a conversation with its exchanges
func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var doc conversationDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return doc.toDomain()
}

// List retrieves conversation summaries, newest first. Exchanges are
// projected out.
func (r *ConversationRepository) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{"messages": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []summaryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}

	summaries := make([]domain.ConversationSummary, 0, len(docs))
	for _, doc := range docs {
		s, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, nil
}

// Replace swaps the whole document if its version is unchanged since it was read
func (r *ConversationRepository) Replace(ctx context.Context, conv *domain.Conversation) error {
	doc := toConversationDocument(conv)
	doc.Version = conv.Version + 1

	filter := bson.M{"_id": doc.ID, "version": conv.Version}
	res, err := r.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("failed to replace conversation: %w", err)
	}

	if res.MatchedCount == 0 {
		count, err := r.coll.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return fmt.Errorf("failed to check conversation: %w", err)
		}
		if count == 0 {
			return domain.ErrConversationNotFound
		}
		return domain.ErrConflict
	}

	conv.Version = doc.Version
	return nil
}

// Delete removes the conversation document and everything embedded in it
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
