package repository

import (
	"context"
	"database/sql"
	"fmt"

	"chatbridge/internal/model"
)

const insertChatQuery = `
	INSERT INTO chat (id, user_id, title, archived, created_at, updated_at, chat, pinned, meta, folder_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type sqliteChatWriter struct {
	db     *sql.DB
	tx     *sql.Tx
	closed bool
}

// NewSQLiteChatWriter returns a ChatWriter over an Open WebUI database. A
// transaction is opened lazily by the first insert after each commit.
func NewSQLiteChatWriter(db *sql.DB) ChatWriter {
	return &sqliteChatWriter{db: db}
}

func (w *sqliteChatWriter) InsertChat(ctx context.Context, chat *model.ChatRecord) error {
	if w.closed {
		return ErrClosed
	}

	chatJSON, err := encodeJSON(chat.Chat, false)
	if err != nil {
		return fmt.Errorf("could not encode chat document: %w", err)
	}
	meta := chat.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := encodeJSON(meta, false)
	if err != nil {
		return fmt.Errorf("could not encode chat meta: %w", err)
	}

	if w.tx == nil {
		tx, err := w.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("could not begin transaction: %w", err)
		}
		w.tx = tx
	}

	_, err = w.tx.ExecContext(ctx, insertChatQuery,
		chat.ID,
		chat.UserID,
		chat.Title,
		boolToInt(chat.Archived),
		chat.CreatedAt,
		chat.UpdatedAt,
		string(chatJSON),
		boolToInt(chat.Pinned),
		string(metaJSON),
		chat.FolderID,
	)
	if err != nil {
		return fmt.Errorf("could not insert chat: %w", err)
	}
	return nil
}

func (w *sqliteChatWriter) Commit() error {
	if w.closed {
		return ErrClosed
	}
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func (w *sqliteChatWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	return tx.Rollback()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
