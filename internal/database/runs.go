package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/wmsync/internal/model"
)

// RunSummary is a runs row without its report body.
type RunSummary struct {
	RunID      string
	Kind       model.RunKind
	StartedAt  time.Time
	FinishedAt time.Time
}

// SaveRun stores a run report, replacing an earlier save of the same run.
func (d *DB) SaveRun(ctx context.Context, r *model.RunReport) error {
	if r == nil || r.RunID == "" {
		return ErrEmptyRunID
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	var finished sql.NullString
	if !r.FinishedAt.IsZero() {
		finished = sql.NullString{String: formatTimestamp(r.FinishedAt), Valid: true}
	}

	query := `
	INSERT INTO runs (run_id, kind, started_at, finished_at, report)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		finished_at = excluded.finished_at,
		report = excluded.report
	`
	if _, err := d.db.ExecContext(ctx, query,
		r.RunID,
		string(r.Kind),
		formatTimestamp(r.StartedAt),
		finished,
		string(body),
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT run_id, kind, started_at, finished_at
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var kind, started string
		var finished sql.NullString
		if err := rows.Scan(&s.RunID, &kind, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Kind = model.RunKind(kind)
		s.StartedAt = parseTimestamp(started)
		if finished.Valid {
			s.FinishedAt = parseTimestamp(finished.String)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRun loads a run report, or returns nil when the run is unknown.
func (d *DB) GetRun(ctx context.Context, runID string) (*model.RunReport, error) {
	var body string
	err := d.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE run_id = ?`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var r model.RunReport
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &r, nil
}
