package source_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/model"
	"chatbridge/internal/source"
)

func TestMongoStore_Queries(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("messages are filtered by conversation and sorted by createdAt", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "LibreChat.messages", mtest.FirstBatch,
			bson.D{{Key: "messageId", Value: "m1"}, {Key: "conversationId", Value: "c1"}, {Key: "createdAt", Value: "2024-01-01T00:00:00Z"}},
			bson.D{{Key: "messageId", Value: "m2"}, {Key: "conversationId", Value: "c1"}, {Key: "createdAt", Value: "2024-01-01T00:00:05Z"}},
		))
		store := source.NewStore(mt.Client, "LibreChat")

		msgs, err := store.Messages(context.Background(), "c1")
		require.NoError(mt, err)
		require.Len(mt, msgs, 2)
		assert.Equal(mt, "m1", msgs[0].MessageID)
		assert.Equal(mt, "m2", msgs[1].MessageID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, "LibreChat", evt.DatabaseName)
		assert.Equal(mt, source.MessagesCollection, evt.Command.Lookup("find").StringValue())
		assert.Equal(mt, "c1", evt.Command.Lookup("filter", "conversationId").StringValue())
		assert.Equal(mt, int64(1), evt.Command.Lookup("sort", "createdAt").AsInt64())
	})

	mt.Run("undecodable messages are an invalid record", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "LibreChat.messages", mtest.FirstBatch,
			bson.D{{Key: "messageId", Value: 7}, {Key: "conversationId", Value: "c1"}},
		))
		store := source.NewStore(mt.Client, "LibreChat")

		_, err := store.Messages(context.Background(), "c1")
		assert.ErrorIs(mt, err, app_errors.ErrInvalidRecord)
	})

	mt.Run("conversations scan the whole collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "LibreChat.conversations", mtest.FirstBatch,
			bson.D{{Key: "conversationId", Value: "c1"}, {Key: "title", Value: "First"}},
		))
		store := source.NewStore(mt.Client, "LibreChat")

		cur, err := store.Conversations(context.Background())
		require.NoError(mt, err)
		defer func() { _ = cur.Close(context.Background()) }()

		require.True(mt, cur.Next(context.Background()))
		var conv model.SourceConversation
		require.NoError(mt, cur.Decode(&conv))
		assert.Equal(mt, "First", conv.Title)
		assert.False(mt, cur.Next(context.Background()))
		assert.NoError(mt, cur.Err())

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, source.ConversationsCollection, evt.Command.Lookup("find").StringValue())
		filter, ok := evt.Command.Lookup("filter").DocumentOK()
		require.True(mt, ok)
		elems, err := filter.Elements()
		require.NoError(mt, err)
		assert.Empty(mt, elems)
	})

	mt.Run("presets read from their collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "LibreChat.presets", mtest.FirstBatch))
		store := source.NewStore(mt.Client, "LibreChat")

		cur, err := store.Presets(context.Background())
		require.NoError(mt, err)
		defer func() { _ = cur.Close(context.Background()) }()
		assert.False(mt, cur.Next(context.Background()))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, source.PresetsCollection, evt.Command.Lookup("find").StringValue())
	})

	mt.Run("query errors are wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized on LibreChat",
		}))
		store := source.NewStore(mt.Client, "LibreChat")

		_, err := store.Messages(context.Background(), "c1")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "find messages of c1")
	})
}

func TestConnect_InvalidURI(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := source.Connect(context.Background(), "not-a-mongodb-uri", "LibreChat", logger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, app_errors.ErrConnectivity))
}
