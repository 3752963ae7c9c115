package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the data directory.
const FileName = "wmsync.db"

// DB is the local state store.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures how the database is opened.
type Options struct {
	// CreateIfNotExists creates the directory and file when missing.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates the database with WAL enabled.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the database in dir and makes sure its tables exist.
func Open(dir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	d := &DB{db: sqlDB, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := d.createTables(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

func (d *DB) createTables(ctx context.Context) error {
	schema := `
	-- Walmart items already created in the store
	CREATE TABLE IF NOT EXISTS imported_items (
		item_id TEXT PRIMARY KEY,
		product_id INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_imported_source ON imported_items(source);

	-- One row per batch command run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		report TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pagination cursors of interrupted walks
	CREATE TABLE IF NOT EXISTS checkpoints (
		key TEXT PRIMARY KEY,
		last_doc TEXT NOT NULL,
		fetched INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	-- Rows of every store audit
	CREATE TABLE IF NOT EXISTS audit_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		row TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_results(run_id);
	`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// timestampLayout is fixed width so timestamp columns sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats are the layouts accepted when reading timestamps back,
// including SQLite's own CURRENT_TIMESTAMP form.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when s matches no known layout.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
