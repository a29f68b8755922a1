package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatbridge/internal/command"
	"chatbridge/internal/config"
	"chatbridge/internal/database"
	"chatbridge/internal/repository"
	"chatbridge/internal/source"
	"chatbridge/internal/transcode"
)

// SourceOpener connects to the LibreChat database.
type SourceOpener func(ctx context.Context, cfg config.Config, logger *slog.Logger) (source.Store, error)

// TargetOpener connects to the Open WebUI database. The returned close func
// releases the connection after the writer is closed.
type TargetOpener func(cfg config.Config) (repository.ChatWriter, func() error, error)

// Dependencies are the collaborators a pipeline run needs. Tests replace them
// with in-memory stores, fixed clocks and recording command runners.
type Dependencies struct {
	OpenSource SourceOpener
	OpenTarget TargetOpener
	Commands   command.Runner
	Now        func() time.Time
	NewID      transcode.IDFunc
}

// DefaultDependencies talks to real MongoDB, SQLite and docker.
func DefaultDependencies() Dependencies {
	return Dependencies{
		OpenSource: OpenMongoSource,
		OpenTarget: OpenSQLiteTarget,
		Commands:   &command.ExecRunner{},
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

func (d Dependencies) withDefaults() Dependencies {
	def := DefaultDependencies()
	if d.OpenSource == nil {
		d.OpenSource = def.OpenSource
	}
	if d.OpenTarget == nil {
		d.OpenTarget = def.OpenTarget
	}
	if d.Commands == nil {
		d.Commands = def.Commands
	}
	if d.Now == nil {
		d.Now = def.Now
	}
	if d.NewID == nil {
		d.NewID = def.NewID
	}
	return d
}

// OpenMongoSource is the production SourceOpener.
func OpenMongoSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (source.Store, error) {
	return source.Connect(ctx, cfg.MongoURI, cfg.MongoDBName, logger)
}

// OpenSQLiteTarget is the production TargetOpener.
func OpenSQLiteTarget(cfg config.Config) (repository.ChatWriter, func() error, error) {
	db, err := database.InitDB(cfg.SQLiteDBPath, database.Options{CreateSchema: cfg.TargetCreateSchema})
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSQLiteChatWriter(db), db.Close, nil
}
