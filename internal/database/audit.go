package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nao1215/wmsync/internal/model"
)

// SaveAuditRows stores the rows of one audit run in a single transaction.
func (d *DB) SaveAuditRows(ctx context.Context, runID string, rows []model.AuditRow) (err error) {
	if runID == "" {
		return ErrEmptyRunID
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO audit_results (run_id, product_id, row) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		body, err := json.Marshal(&rows[i])
		if err != nil {
			return fmt.Errorf("failed to serialize audit row: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, rows[i].ShopifyID, string(body)); err != nil {
			return fmt.Errorf("failed to insert audit row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit rows: %w", err)
	}
	return nil
}

// AuditRows returns the rows of an audit run in insertion order.
func (d *DB) AuditRows(ctx context.Context, runID string) ([]model.AuditRow, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT row FROM audit_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit rows: %w", err)
	}
	defer rows.Close()

	var out []model.AuditRow
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		var row model.AuditRow
		if err := json.Unmarshal([]byte(body), &row); err != nil {
			continue // skip malformed rows
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
