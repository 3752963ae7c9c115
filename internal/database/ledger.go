package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportRecord is one ledger entry.
type ImportRecord struct {
	ItemID     string
	ProductID  int64
	Title      string
	Price      string
	Source     string
	ImportedAt time.Time
}

// RecordImport adds or refreshes a ledger entry. A zero ImportedAt is
// stamped with the current time.
func (d *DB) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ItemID == "" {
		return ErrEmptyItemID
	}
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now()
	}

	query := `
	INSERT INTO imported_items (item_id, product_id, title, price, source, imported_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(item_id) DO UPDATE SET
		product_id = excluded.product_id,
		title = excluded.title,
		price = excluded.price,
		source = excluded.source,
		imported_at = excluded.imported_at
	`
	_, err := d.db.ExecContext(ctx, query,
		rec.ItemID,
		rec.ProductID,
		rec.Title,
		rec.Price,
		rec.Source,
		formatTimestamp(rec.ImportedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// IsImported reports whether itemID is in the ledger.
func (d *DB) IsImported(ctx context.Context, itemID string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imported_items WHERE item_id = ?`, itemID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check import: %w", err)
	}
	return n > 0, nil
}

// GetImport returns the ledger entry of itemID, or nil when there is none.
func (d *DB) GetImport(ctx context.Context, itemID string) (*ImportRecord, error) {
	query := `
	SELECT item_id, product_id, title, price, source, imported_at
	FROM imported_items
	WHERE item_id = ?
	`
	var rec ImportRecord
	var importedAt string
	err := d.db.QueryRowContext(ctx, query, itemID).Scan(
		&rec.ItemID,
		&rec.ProductID,
		&rec.Title,
		&rec.Price,
		&rec.Source,
		&importedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	rec.ImportedAt = parseTimestamp(importedAt)
	return &rec, nil
}

// ImportedCount returns the number of ledger entries.
func (d *DB) ImportedCount(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imported_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count imports: %w", err)
	}
	return n, nil
}

// SourceCount is the number of ledger entries created by one source.
type SourceCount struct {
	Source string
	Count  int
}

// ImportedBySource groups the ledger by source, largest first.
func (d *DB) ImportedBySource(ctx context.Context) ([]SourceCount, error) {
	query := `
	SELECT source, COUNT(*) AS n FROM imported_items
	GROUP BY source
	ORDER BY n DESC, source
	`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group imports: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
