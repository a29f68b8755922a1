package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/model"
)

// Collection names used by LibreChat.
const (
	ConversationsCollection = "conversations"
	MessagesCollection      = "messages"
	PresetsCollection       = "presets"
)

const serverSelectionTimeout = 5 * time.Second

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the LibreChat database and verifies the server is reachable.
// Failures wrap ErrConnectivity.
func Connect(ctx context.Context, uri, dbName string, logger *slog.Logger) (Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to MongoDB: %v", app_errors.ErrConnectivity, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: MongoDB did not answer within %s (check URI and firewall): %v",
			app_errors.ErrConnectivity, serverSelectionTimeout, err)
	}

	logger.Info("Successfully connected to MongoDB.", "database", dbName)
	return NewStore(client, dbName), nil
}

// NewStore wraps a connected client. Close disconnects it.
func NewStore(client *mongo.Client, dbName string) Store {
	return &mongoStore{client: client, db: client.Database(dbName)}
}

func (s *mongoStore) Conversations(ctx context.Context) (Cursor, error) {
	cur, err := s.db.Collection(ConversationsCollection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}
	return cur, nil
}

func (s *mongoStore) Messages(ctx context.Context, conversationID string) ([]model.SourceMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.db.Collection(MessagesCollection).Find(ctx, bson.D{{Key: "conversationId", Value: conversationID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages of %s: %w", conversationID, err)
	}

	var messages []model.SourceMessage
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("%w: decode messages of %s: %v", app_errors.ErrInvalidRecord, conversationID, err)
	}
	return messages, nil
}

func (s *mongoStore) Presets(ctx context.Context) (Cursor, error) {
	cur, err := s.db.Collection(PresetsCollection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find presets: %w", err)
	}
	return cur, nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
