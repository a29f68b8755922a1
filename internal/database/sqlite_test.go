package database_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbridge/internal/database"
	app_errors "chatbridge/internal/errors"
)

func TestInitDB_CreateSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "webui.db")

	db, err := database.InitDB(path, database.Options{CreateSchema: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	_, err = db.Exec(`INSERT INTO chat (id, user_id, title, archived, created_at, updated_at, chat, pinned, meta, folder_id)
		VALUES ('a', 'u', 't', 0, 1, 2, '{}', 0, '{}', NULL)`)
	require.NoError(t, err)

	// Running the migrations a second time is a no-op.
	db2, err := database.InitDB(path, database.Options{CreateSchema: true})
	require.NoError(t, err)
	require.NoError(t, db2.Close())
}

func TestInitDB_MissingFile(t *testing.T) {
	_, err := database.InitDB(filepath.Join(t.TempDir(), "nope.db"), database.Options{})
	assert.ErrorIs(t, err, app_errors.ErrConnectivity)
}

func TestInitDB_NotAnOpenWebUIDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec("CREATE TABLE something (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	_, err = database.InitDB(path, database.Options{})
	assert.ErrorIs(t, err, app_errors.ErrConfiguration)
}
