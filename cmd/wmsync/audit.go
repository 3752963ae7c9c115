package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/audit"
	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/pricing"
)

// defaultAuditFile is the CSV written by "audit".
const defaultAuditFile = "store_audit.csv"

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit store products against live Walmart data",
		Long: `Audit lists every store product, looks up its SKU (the Walmart item ID)
and classifies it:

  Valid             first-party, in stock, with a barcode; gets a target price
  Third Party       sold by a marketplace seller
  Out of Stock      not currently available
  Missing GTIN      no UPC or GTIN
  Not Found         unknown to the Walmart API
  Invalid SKU       SKU is not a Walmart item ID

The result is written as CSV and kept in the local database, and can be
applied with "wmsync sync".

Examples:
  wmsync audit
  wmsync audit -o audit.csv --multiplier 1.25`,
		Args: cobra.NoArgs,
		RunE: runAuditCmd,
	}

	cmd.Flags().StringP("output", "o", defaultAuditFile, `Output CSV file ("-" for stdout)`)
	cmd.Flags().Float64("multiplier", 0, "Cost multiplier of the target price formula (default: store config, then 1.18)")
	addReportFlags(cmd)
	return cmd
}

// auditFormula returns the audit formula with the multiplier from the flag
// or the store config, when either is set.
func auditFormula(flagMultiplier, storeMultiplier float64) pricing.Formula {
	f := pricing.Audit
	switch {
	case flagMultiplier > 0:
		f.Multiplier = decimal.NewFromFloat(flagMultiplier)
	case storeMultiplier > 0:
		f.Multiplier = decimal.NewFromFloat(storeMultiplier)
	}
	return f
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.readReportFlags(cmd); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	multiplier, err := cmd.Flags().GetFloat64("multiplier")
	if err != nil {
		return err
	}
	a.reportToStderr(cmd, output)

	wm, err := a.walmartClient()
	if err != nil {
		return err
	}
	sc, err := a.shopifyClient()
	if err != nil {
		return err
	}
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	out, closeFn, err := a.openOutput(output)
	if err != nil {
		return err
	}

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	csvOut := audit.NewCSVWriter(out)
	if err := csvOut.WriteHeader(); err != nil {
		_ = closeFn() //nolint:errcheck // the header error wins
		return err
	}
	var rows []model.AuditRow
	auditor := audit.NewAuditor(wm, sc,
		audit.WithFormula(auditFormula(multiplier, a.store().PriceMultiplier)),
		audit.WithMetrics(a.metrics),
		audit.WithLogger(a.logger),
	)
	r, runErr := auditor.Run(ctx, func(row model.AuditRow) error {
		rows = append(rows, row)
		return csvOut.Write(row)
	})
	if err := csvOut.Flush(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := closeFn(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	if len(rows) > 0 {
		if err := db.SaveAuditRows(context.WithoutCancel(ctx), r.RunID, rows); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to save audit rows: %w", err))
		}
	}
	if output != "" && output != "-" {
		r.Notef("audit CSV: %s", output)
	}
	r.Notef("apply with: wmsync sync --run %s", r.RunID)
	if err := a.finishRun(ctx, db, r); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [AUDIT_CSV]",
		Short: "Apply an audit to the store",
		Long: `Sync applies each audit row's Action_Needed to the store:

  Update Price & Sync     activate, set the target price, tag Walmart-Synced
  Archive/Delete          archive, tag with the audit status
  Archive (3rd Party)     archive, tag with the audit status
  Pause (OOS)             archive, tag Walmart-OOS

Other actions are skipped. Rows come from an audit CSV, or from an
earlier audit run stored in the local database with --run.

Examples:
  wmsync sync store_audit.csv --dry-run
  wmsync sync --run 2b7c0c1e-6f0e-4f7a-9b55-3f1e3c2a9d10`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSyncCmd,
	}

	cmd.Flags().String("run", "", "Read rows of this audit run from the database instead of a CSV")
	cmd.Flags().Bool("dry-run", false, "Print the planned changes without calling Shopify")
	addReportFlags(cmd)
	return cmd
}

// loadAuditRows reads rows from the CSV at path or, when runID is set,
// from the database.
func loadAuditRows(ctx context.Context, db *database.DB, path, runID string) ([]model.AuditRow, error) {
	switch {
	case path != "" && runID != "":
		return nil, errors.New("pass either an audit CSV or --run, not both")
	case runID != "":
		return db.AuditRows(ctx, runID)
	case path == "":
		return nil, errors.New("an audit CSV or --run is required")
	}
	f, err := os.Open(path) //nolint:gosec // user-provided audit file
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return audit.ReadCSV(f)
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.readReportFlags(cmd); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	rows, err := loadAuditRows(ctx, db, path, runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("no audit rows to sync")
	}

	if dryRun {
		printSyncPlan(a, rows)
	}

	var store audit.ProductUpdater
	if !dryRun {
		sc, err := a.shopifyClient()
		if err != nil {
			return err
		}
		store = sc
	}
	s := audit.NewSyncer(store,
		audit.WithSyncDryRun(dryRun),
		audit.WithSyncMetrics(a.metrics),
		audit.WithSyncLogger(a.logger),
	)
	r, runErr := s.Run(ctx, rows)
	if err := a.finishRun(ctx, db, r); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// printSyncPlan lists the change each row would make.
func printSyncPlan(a *app, rows []model.AuditRow) {
	fmt.Fprintln(a.stdout, "Planned changes:")
	for _, row := range rows {
		if change, ok := audit.Plan(row); ok {
			fmt.Fprintf(a.stdout, "  %s\n", change)
		}
	}
	fmt.Fprintln(a.stdout)
}
