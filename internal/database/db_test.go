package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/wmsync/internal/model"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "data", "wmsync")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("refuses a missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{EnableWAL: true})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("first open: %v", err)
		}
		if err := db.RecordImport(context.Background(), ImportRecord{ItemID: "1"}); err != nil {
			t.Fatalf("RecordImport: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("second open: %v", err)
		}
		defer db.Close()
		n, err := db.ImportedCount(context.Background())
		if err != nil || n != 1 {
			t.Errorf("expected the entry to persist, got %d, %v", n, err)
		}
	})
}

func TestLedger(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.RecordImport(ctx, ImportRecord{}); !errors.Is(err, ErrEmptyItemID) {
		t.Errorf("expected ErrEmptyItemID, got %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []ImportRecord{
		{ItemID: "100", ProductID: 1, Title: "TV", Price: "199.99", Source: "import", ImportedAt: at},
		{ItemID: "200", ProductID: 2, Title: "Lego", Price: "29.99", Source: "bestsellers"},
		{ItemID: "300", ProductID: 3, Title: "Fan", Price: "19.99", Source: "bestsellers"},
	}
	for _, rec := range records {
		if err := db.RecordImport(ctx, rec); err != nil {
			t.Fatalf("RecordImport(%s): %v", rec.ItemID, err)
		}
	}
	// Upsert refreshes the entry instead of failing.
	if err := db.RecordImport(ctx, ImportRecord{ItemID: "100", ProductID: 9, Source: "import", ImportedAt: at}); err != nil {
		t.Fatalf("RecordImport upsert: %v", err)
	}

	ok, err := db.IsImported(ctx, "100")
	if err != nil || !ok {
		t.Errorf("IsImported(100) = %v, %v", ok, err)
	}
	ok, err = db.IsImported(ctx, "999")
	if err != nil || ok {
		t.Errorf("IsImported(999) = %v, %v", ok, err)
	}

	rec, err := db.GetImport(ctx, "100")
	if err != nil || rec == nil {
		t.Fatalf("GetImport = %v, %v", rec, err)
	}
	if rec.ProductID != 9 || !rec.ImportedAt.Equal(at) {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec, err := db.GetImport(ctx, "999"); err != nil || rec != nil {
		t.Errorf("expected no record, got %+v, %v", rec, err)
	}

	n, err := db.ImportedCount(ctx)
	if err != nil || n != 3 {
		t.Errorf("ImportedCount = %d, %v", n, err)
	}

	sources, err := db.ImportedBySource(ctx)
	if err != nil {
		t.Fatalf("ImportedBySource: %v", err)
	}
	if len(sources) != 2 || sources[0] != (SourceCount{Source: "bestsellers", Count: 2}) {
		t.Errorf("unexpected sources %+v", sources)
	}
}

func TestRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveRun(ctx, &model.RunReport{}); !errors.Is(err, ErrEmptyRunID) {
		t.Errorf("expected ErrEmptyRunID, got %v", err)
	}

	older := model.NewRunReport(model.RunAudit, "total")
	older.StartedAt = time.Now().Add(-time.Hour).UTC()
	if err := db.SaveRun(ctx, older); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	newer := model.NewRunReport(model.RunImport, "imported")
	if err := db.SaveRun(ctx, newer); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	newer.Add("imported", 7)
	newer.Finish()
	if err := db.SaveRun(ctx, newer); err != nil {
		t.Fatalf("SaveRun again: %v", err)
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != newer.RunID || runs[0].FinishedAt.IsZero() || !runs[1].FinishedAt.IsZero() {
		t.Errorf("unexpected runs %+v", runs)
	}

	limited, err := db.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListRuns(1) = %+v, %v", limited, err)
	}

	got, err := db.GetRun(ctx, newer.RunID)
	if err != nil || got == nil {
		t.Fatalf("GetRun = %v, %v", got, err)
	}
	if got.Kind != model.RunImport || got.Count("imported") != 7 {
		t.Errorf("unexpected run %+v", got)
	}
	if got, err := db.GetRun(ctx, "missing"); err != nil || got != nil {
		t.Errorf("expected no run, got %+v, %v", got, err)
	}
}

func TestCheckpoints(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	cp, err := db.LoadCheckpoint(ctx, "import:Baby")
	if err != nil || cp != nil {
		t.Fatalf("expected no checkpoint, got %+v, %v", cp, err)
	}

	if err := db.SaveCheckpoint(ctx, Checkpoint{Key: "import:Baby", LastDoc: "abc", Fetched: 100}); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if err := db.SaveCheckpoint(ctx, Checkpoint{Key: "import:Baby", LastDoc: "def", Fetched: 200}); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	cp, err = db.LoadCheckpoint(ctx, "import:Baby")
	if err != nil || cp == nil {
		t.Fatalf("LoadCheckpoint = %+v, %v", cp, err)
	}
	if cp.LastDoc != "def" || cp.Fetched != 200 || cp.UpdatedAt.IsZero() {
		t.Errorf("unexpected checkpoint %+v", cp)
	}

	if err := db.ClearCheckpoint(ctx, "import:Baby"); err != nil {
		t.Fatalf("ClearCheckpoint: %v", err)
	}
	if cp, _ := db.LoadCheckpoint(ctx, "import:Baby"); cp != nil {
		t.Errorf("checkpoint should be gone, got %+v", cp)
	}
}

func TestAuditRows(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	rows := []model.AuditRow{
		{ShopifyID: 1, Title: "A", SKU: "100", Status: model.AuditValid, TargetPrice: "12.46", Action: model.ActionUpdatePrice},
		{ShopifyID: 2, Title: "B", SKU: "abc", Status: model.AuditInvalidSKU, Action: model.ActionCheckSKU},
	}
	if err := db.SaveAuditRows(ctx, "", rows); !errors.Is(err, ErrEmptyRunID) {
		t.Errorf("expected ErrEmptyRunID, got %v", err)
	}
	if err := db.SaveAuditRows(ctx, "run-1", rows); err != nil {
		t.Fatalf("SaveAuditRows: %v", err)
	}
	if err := db.SaveAuditRows(ctx, "run-2", rows[:1]); err != nil {
		t.Fatalf("SaveAuditRows: %v", err)
	}

	got, err := db.AuditRows(ctx, "run-1")
	if err != nil {
		t.Fatalf("AuditRows: %v", err)
	}
	if len(got) != 2 || got[0] != rows[0] || got[1] != rows[1] {
		t.Errorf("unexpected rows %+v", got)
	}
	if got, _ := db.AuditRows(ctx, "run-3"); len(got) != 0 {
		t.Errorf("expected no rows, got %+v", got)
	}
}
