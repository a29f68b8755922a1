package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Import the sqlite3 driver.

	app_errors "chatbridge/internal/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Options controls how the target store is opened.
type Options struct {
	// CreateSchema bootstraps the `chat` table in an empty database. Real Open
	// WebUI databases already have it and must not be migrated.
	CreateSchema bool
}

// InitDB connects to the Open WebUI SQLite database. Unless CreateSchema is set
// the file must already exist, and it must contain a `chat` table.
func InitDB(dataSourceName string, opts Options) (*sql.DB, error) {
	if opts.CreateSchema {
		dir := filepath.Dir(dataSourceName)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %v", app_errors.ErrConnectivity, err)
		}
	} else if _, err := os.Stat(dataSourceName); err != nil {
		return nil, fmt.Errorf("%w: SQLite database %s: %v", app_errors.ErrConnectivity, dataSourceName, err)
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", app_errors.ErrConnectivity, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %v", app_errors.ErrConnectivity, err)
	}

	if opts.CreateSchema {
		if err := runMigrations(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	if err := requireChatTable(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// runMigrations applies the embedded schema with golang-migrate.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	slog.Debug("Target schema is up to date.")
	return nil
}

func requireChatTable(db *sql.DB) error {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'chat'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: database has no `chat` table; is this an Open WebUI database?", app_errors.ErrConfiguration)
	}
	if err != nil {
		return fmt.Errorf("%w: inspect schema: %v", app_errors.ErrConnectivity, err)
	}
	return nil
}
