package source

import (
	"context"

	"chatbridge/internal/model"
)

// Cursor iterates raw source documents. *mongo.Cursor satisfies it.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// Store is the read-only view of the LibreChat database.
type Store interface {
	// Conversations returns a cursor over every conversation in natural order.
	Conversations(ctx context.Context) (Cursor, error)
	// Messages returns the messages of one conversation sorted by creation
	// time, oldest first.
	Messages(ctx context.Context, conversationID string) ([]model.SourceMessage, error)
	// Presets returns a cursor over every preset.
	Presets(ctx context.Context) (Cursor, error)
	Close(ctx context.Context) error
}
