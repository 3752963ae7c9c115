package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Checkpoint is the resume point of a paginated walk.
type Checkpoint struct {
	// Key names the walk, e.g. "import:Electronics".
	Key string

	// LastDoc is the cursor of the next page.
	LastDoc string

	// Fetched is the number of items seen so far.
	Fetched int

	UpdatedAt time.Time
}

// SaveCheckpoint stores the latest cursor for key.
func (d *DB) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	query := `
	INSERT INTO checkpoints (key, last_doc, fetched, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		last_doc = excluded.last_doc,
		fetched = excluded.fetched,
		updated_at = excluded.updated_at
	`
	if _, err := d.db.ExecContext(ctx, query, cp.Key, cp.LastDoc, cp.Fetched, formatTimestamp(cp.UpdatedAt)); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint returns the checkpoint for key, or nil when none is stored.
func (d *DB) LoadCheckpoint(ctx context.Context, key string) (*Checkpoint, error) {
	cp := Checkpoint{Key: key}
	var updated string
	err := d.db.QueryRowContext(ctx,
		`SELECT last_doc, fetched, updated_at FROM checkpoints WHERE key = ?`, key,
	).Scan(&cp.LastDoc, &cp.Fetched, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	cp.UpdatedAt = parseTimestamp(updated)
	return &cp, nil
}

// ClearCheckpoint removes the checkpoint for key.
func (d *DB) ClearCheckpoint(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}
