package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"chatbridge/internal/config"
	"chatbridge/internal/repository"
	"chatbridge/internal/service"
	"chatbridge/internal/source"
)

var fixedNow = time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a logger whose output can be inspected.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		MongoURI:            "mongodb://localhost:27017/",
		MongoDBName:         "LibreChat",
		TargetUserID:        "user-1",
		TargetUserName:      "Ada",
		TargetUserEmail:     "ada@example.com",
		SQLiteDBPath:        "webui.db",
		OutputDir:           t.TempDir(),
		LibreChatDockerPath: t.TempDir(),
		MongoContainer:      "mongo",
		CommitEvery:         50,
		AppPort:             8000,
		LogLevel:            "INFO",
	}
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// trackingStore records whether the pipeline closed its source.
type trackingStore struct {
	source.Store
	closed bool
}

func newTrackingStore(conversations, messages, presets []any) *trackingStore {
	return &trackingStore{Store: source.NewMemoryStore(conversations, messages, presets)}
}

func (s *trackingStore) Close(ctx context.Context) error {
	s.closed = true
	return s.Store.Close(ctx)
}

// memoryDeps serves store as the source and fails the test if the target is
// opened unless target is given.
func memoryDeps(t *testing.T, store source.Store, target service.TargetOpener) service.Dependencies {
	t.Helper()
	if target == nil {
		target = func(config.Config) (repository.ChatWriter, func() error, error) {
			t.Fatal("target must not be opened")
			return nil, nil, nil
		}
	}
	return service.Dependencies{
		OpenSource: func(context.Context, config.Config, *slog.Logger) (source.Store, error) {
			return store, nil
		},
		OpenTarget: target,
		Now:        func() time.Time { return fixedNow },
		NewID:      sequentialIDs("chat"),
	}
}

func conversationDoc(id, title string) bson.D {
	return bson.D{
		{Key: "conversationId", Value: id},
		{Key: "title", Value: title},
		{Key: "createdAt", Value: "2024-01-01T00:00:00Z"},
		{Key: "updatedAt", Value: "2024-01-01T00:00:05Z"},
	}
}

func messageDoc(convID, msgID, parent string, fromUser bool, text, model, createdAt string) bson.D {
	doc := bson.D{
		{Key: "messageId", Value: msgID},
		{Key: "conversationId", Value: convID},
		{Key: "parentMessageId", Value: parent},
		{Key: "isCreatedByUser", Value: fromUser},
		{Key: "text", Value: text},
		{Key: "createdAt", Value: createdAt},
	}
	if model != "" {
		doc = append(doc, bson.E{Key: "model", Value: model})
	}
	return doc
}
