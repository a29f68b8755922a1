package repository

import (
	"context"

	"chatbridge/internal/model"
)

// ChatWriter appends chat rows to the target store in batches. Rows inserted
// since the last Commit become durable only when Commit is called.
type ChatWriter interface {
	InsertChat(ctx context.Context, chat *model.ChatRecord) error
	Commit() error
	// Close rolls back anything not yet committed.
	Close() error
}

// ModelWriter persists exported model definitions.
type ModelWriter interface {
	// WriteModel writes one model to its own file and returns the file name.
	WriteModel(rec model.ModelRecord) (string, error)
	// WriteCombined replaces the combined file with recs.
	WriteCombined(recs []model.ModelRecord) error
}
