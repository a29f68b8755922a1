package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"chatbridge/internal/source"
)

func messageDoc(convID, msgID string, createdAt any) bson.D {
	return bson.D{
		{Key: "messageId", Value: msgID},
		{Key: "conversationId", Value: convID},
		{Key: "createdAt", Value: createdAt},
	}
}

func TestMemoryStore_MessagesSortedByCreationTime(t *testing.T) {
	store := source.NewMemoryStore(nil, []any{
		messageDoc("c1", "late", "2024-01-01T00:00:05Z"),
		messageDoc("c2", "other", "2023-12-31T00:00:00Z"),
		messageDoc("c1", "first", bson.D{{Key: "$date", Value: "2024-01-01T00:00:00Z"}}),
		messageDoc("c1", "tie-a", "2024-01-01T00:00:03Z"),
		messageDoc("c1", "tie-b", "2024-01-01T00:00:03Z"),
	}, nil)

	msgs, err := store.Messages(context.Background(), "c1")
	require.NoError(t, err)

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.MessageID)
	}
	assert.Equal(t, []string{"first", "tie-a", "tie-b", "late"}, ids)
}

func TestMemoryStore_UnknownConversationHasNoMessages(t *testing.T) {
	store := source.NewMemoryStore(nil, []any{messageDoc("c1", "m1", "2024-01-01T00:00:00Z")}, nil)

	msgs, err := store.Messages(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
