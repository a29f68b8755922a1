package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"chatbridge/internal/config"
	"chatbridge/internal/model"
	"chatbridge/internal/repository"
	"chatbridge/internal/source"
	"chatbridge/internal/timeconv"
	"chatbridge/internal/transcode"
)

// ConversationMigrator copies LibreChat conversations into the Open WebUI
// `chat` table.
type ConversationMigrator struct {
	cfg    config.Config
	deps   Dependencies
	logger *slog.Logger
}

func NewConversationMigrator(cfg config.Config, deps Dependencies, logger *slog.Logger) *ConversationMigrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationMigrator{cfg: cfg, deps: deps.withDefaults(), logger: logger}
}

// Run migrates every conversation. Configuration and connectivity problems
// abort the run before any record is read. Per-conversation problems are
// logged and counted, and the run carries on. Inserts are committed every
// CommitEvery successes and once more at the end.
func (m *ConversationMigrator) Run(ctx context.Context) (model.Result, error) {
	var result model.Result

	if err := m.cfg.Validate(config.FlowConversations); err != nil {
		m.logger.Error("Aborting conversation migration", "error", err)
		return result, err
	}

	src, err := m.deps.OpenSource(ctx, m.cfg, m.logger)
	if err != nil {
		m.logger.Error("MongoDB connection failed. Aborting migration.", "error", err)
		return result, err
	}
	defer func() {
		if err := src.Close(context.Background()); err != nil {
			m.logger.Warn("Failed to close MongoDB connection", "error", err)
		}
	}()

	writer, closeDB, err := m.deps.OpenTarget(m.cfg)
	if err != nil {
		m.logger.Error("Error connecting to SQLite database", "path", m.cfg.SQLiteDBPath, "error", err)
		return result, err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			m.logger.Warn("Failed to roll back pending inserts", "error", err)
		}
		if err := closeDB(); err != nil {
			m.logger.Warn("Failed to close SQLite database", "error", err)
		}
		m.logger.Info("Database connections closed.")
	}()
	m.logger.Info("Successfully connected to SQLite database", "path", m.cfg.SQLiteDBPath)

	cur, err := src.Conversations(ctx)
	if err != nil {
		return result, fmt.Errorf("read conversations: %w", err)
	}
	defer func() { _ = cur.Close(context.Background()) }()

	transcoder := transcode.NewConversationTranscoder(
		m.cfg.TargetUserID,
		timeconv.NewNormalizer(m.deps.Now, m.logger),
		m.deps.NewID,
	)

	m.logger.Info("Starting conversation migration...")
	var loopErr error
	for cur.Next(ctx) {
		if err := ctx.Err(); err != nil {
			loopErr = err
			break
		}

		var conv model.SourceConversation
		if err := cur.Decode(&conv); err != nil {
			var raw bson.M
			_ = cur.Decode(&raw)
			m.logger.Error("Error decoding conversation", "conversation_id", raw["conversationId"], "error", err)
			result.Failed++
			continue
		}

		migrated, err := m.migrateOne(ctx, src, writer, transcoder, conv)
		switch {
		case errors.Is(err, transcode.ErrEmptyConversation):
			m.logger.Info("Conversation has no messages, skipping.", "conversation_id", conv.ConversationID)
			result.Skipped++
		case err != nil:
			m.logger.Error("Error processing conversation", "conversation_id", conv.ConversationID, "error", err)
			result.Failed++
		default:
			m.logger.Info("Successfully inserted conversation",
				"title", migrated.Title, "conversation_id", conv.ConversationID, "new_id", migrated.ID)
			result.Migrated++
			if result.Migrated%m.cfg.CommitEvery == 0 {
				m.logger.Info("Committing current transaction...", "migrated", result.Migrated)
				if err := writer.Commit(); err != nil {
					return result, err
				}
			}
		}
	}
	if loopErr == nil {
		loopErr = cur.Err()
	}

	m.logger.Info("Committing final transaction...")
	if err := writer.Commit(); err != nil {
		return result, err
	}

	if loopErr != nil {
		m.logger.Error("Conversation cursor stopped early", "error", loopErr, "migrated", result.Migrated)
		return result, fmt.Errorf("read conversations: %w", loopErr)
	}

	m.logger.Info("Migration complete.",
		"migrated", result.Migrated,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"skipped_or_failed", result.Skipped+result.Failed,
	)
	return result, nil
}

func (m *ConversationMigrator) migrateOne(
	ctx context.Context,
	src source.Store,
	writer repository.ChatWriter,
	transcoder *transcode.ConversationTranscoder,
	conv model.SourceConversation,
) (*model.ChatRecord, error) {
	m.logger.Info("Processing LibreChat conversation", "title", conv.Title, "conversation_id", conv.ConversationID)

	messages, err := src.Messages(ctx, conv.ConversationID)
	if err != nil {
		return nil, err
	}

	rec, err := transcoder.Transcode(conv, messages)
	if err != nil {
		return nil, err
	}

	if err := writer.InsertChat(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
