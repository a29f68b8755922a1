package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"

	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/model"
	"chatbridge/internal/timeconv"
)

// memoryStore serves documents from memory through real driver cursors, so the
// same BSON decoding rules apply as against a live server.
type memoryStore struct {
	conversations []any
	messages      []any
	presets       []any
}

// NewMemoryStore returns a Store over in-memory documents (bson.D, bson.M or
// structs). Messages are filtered by conversationId and sorted by creation
// time like the MongoDB query; messages created in the same second keep their
// given order.
func NewMemoryStore(conversations, messages, presets []any) Store {
	return &memoryStore{conversations: conversations, messages: messages, presets: presets}
}

func (s *memoryStore) Conversations(_ context.Context) (Cursor, error) {
	return mongo.NewCursorFromDocuments(s.conversations, nil, nil)
}

func (s *memoryStore) Messages(ctx context.Context, conversationID string) ([]model.SourceMessage, error) {
	cur, err := mongo.NewCursorFromDocuments(s.messages, nil, nil)
	if err != nil {
		return nil, err
	}
	var all []model.SourceMessage
	if err := cur.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("%w: decode messages of %s: %v", app_errors.ErrInvalidRecord, conversationID, err)
	}

	var out []model.SourceMessage
	for _, m := range all {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	times := timeconv.NewNormalizer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sort.SliceStable(out, func(a, b int) bool {
		return times.EpochSeconds(out[a].CreatedAt) < times.EpochSeconds(out[b].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) Presets(_ context.Context) (Cursor, error) {
	return mongo.NewCursorFromDocuments(s.presets, nil, nil)
}

func (s *memoryStore) Close(_ context.Context) error {
	return nil
}
