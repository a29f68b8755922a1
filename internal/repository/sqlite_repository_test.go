package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbridge/internal/model"
	"chatbridge/internal/repository"
)

var insertChat = regexp.QuoteMeta("INSERT INTO chat (id, user_id, title, archived, created_at, updated_at, chat, pinned, meta, folder_id)")

func sampleChat() *model.ChatRecord {
	parent := "m1"
	gpt := "gpt-4"
	return &model.ChatRecord{
		ID:        "row-1",
		UserID:    "user-1",
		Title:     "Fish & <Chips>",
		CreatedAt: 1704067200,
		UpdatedAt: 1704067205,
		Chat: model.ChatDocument{
			Title:  "Fish & <Chips>",
			Models: []string{"gpt-4"},
			Params: map[string]any{},
			Messages: []model.ChatMessage{
				{ID: "m1", Role: "user", Content: "héllo", Timestamp: 1704067200},
				{ID: "m2", ParentID: &parent, Role: "assistant", Content: "hi", Model: &gpt, Timestamp: 1704067205},
			},
			Tags:      []string{},
			Timestamp: 1704067200000,
			Files:     []any{},
		},
	}
}

func TestSQLiteChatWriter_InsertAndCommit(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	wantChat := `{"id":"","title":"Fish & <Chips>","models":["gpt-4"],"params":{},"messages":[` +
		`{"id":"m1","parentId":null,"role":"user","content":"héllo","model":null,"timestamp":1704067200},` +
		`{"id":"m2","parentId":"m1","role":"assistant","content":"hi","model":"gpt-4","timestamp":1704067205}],` +
		`"tags":[],"timestamp":1704067200000,"files":[]}`

	mockDB.ExpectBegin()
	mockDB.ExpectExec(insertChat).
		WithArgs("row-1", "user-1", "Fish & <Chips>", 0, int64(1704067200), int64(1704067205), wantChat, 0, "{}", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectCommit()

	w := repository.NewSQLiteChatWriter(db)
	require.NoError(t, w.InsertChat(context.Background(), sampleChat()))
	require.NoError(t, w.Commit())
	require.NoError(t, w.Close())

	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteChatWriter_OneTransactionPerBatch(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mockDB.ExpectBegin()
	mockDB.ExpectExec(insertChat).WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectExec(insertChat).WillReturnResult(sqlmock.NewResult(2, 1))
	mockDB.ExpectCommit()
	mockDB.ExpectBegin()
	mockDB.ExpectExec(insertChat).WillReturnResult(sqlmock.NewResult(3, 1))
	mockDB.ExpectCommit()

	ctx := context.Background()
	w := repository.NewSQLiteChatWriter(db)
	require.NoError(t, w.InsertChat(ctx, sampleChat()))
	require.NoError(t, w.InsertChat(ctx, sampleChat()))
	require.NoError(t, w.Commit())
	require.NoError(t, w.InsertChat(ctx, sampleChat()))
	require.NoError(t, w.Commit())
	// Nothing pending: no transaction is opened just to commit it.
	require.NoError(t, w.Commit())

	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteChatWriter_FailedInsertKeepsTransactionOpen(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mockDB.ExpectBegin()
	mockDB.ExpectExec(insertChat).WillReturnError(errors.New("constraint failed"))
	mockDB.ExpectExec(insertChat).WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectCommit()

	ctx := context.Background()
	w := repository.NewSQLiteChatWriter(db)
	err = w.InsertChat(ctx, sampleChat())
	assert.ErrorContains(t, err, "could not insert chat")
	require.NoError(t, w.InsertChat(ctx, sampleChat()))
	require.NoError(t, w.Commit())

	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteChatWriter_CloseRollsBackPending(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mockDB.ExpectBegin()
	mockDB.ExpectExec(insertChat).WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectRollback()

	w := repository.NewSQLiteChatWriter(db)
	require.NoError(t, w.InsertChat(context.Background(), sampleChat()))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.InsertChat(context.Background(), sampleChat()), repository.ErrClosed)
	assert.ErrorIs(t, w.Commit(), repository.ErrClosed)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteChatWriter_BeginFailure(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mockDB.ExpectBegin().WillReturnError(errors.New("database is locked"))

	w := repository.NewSQLiteChatWriter(db)
	err = w.InsertChat(context.Background(), sampleChat())
	assert.ErrorContains(t, err, "could not begin transaction")
	assert.NoError(t, mockDB.ExpectationsWereMet())
}
