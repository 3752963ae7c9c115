package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/migrate"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move variants to the fulfillment service",
		Long: `Migrate assigns every store variant to the fulfillment service and
stocks it at the service's location. Variants already assigned with
more than 10 units are skipped; assigned variants at or below 10 are
restocked. Each update is verified against Shopify's response.

With --csv, nothing is changed; a bulk-edit CSV for Shopify's product
import is written instead.

Examples:
  wmsync migrate --dry-run
  wmsync migrate --workers 5 --quantity 25
  wmsync migrate --csv autods_migration.csv`,
		Args: cobra.NoArgs,
		RunE: runMigrateCmd,
	}

	cmd.Flags().String("handle", "", "Fulfillment service handle (default: store config)")
	cmd.Flags().Int64("location", 0, "Fulfillment location ID (default: store config)")
	cmd.Flags().Int("quantity", 0, "Stock set at the location (default: store config, then 50)")
	cmd.Flags().IntP("workers", "w", migrate.DefaultWorkers, "Number of variants migrated at once")
	cmd.Flags().Bool("dry-run", false, "Decide per variant but do not call Shopify")
	cmd.Flags().String("csv", "", "Write a bulk-edit CSV to this path instead of migrating")
	addReportFlags(cmd)
	return cmd
}

// migrateOptions merges the flags over the store settings.
func migrateOptions(cmd *cobra.Command, a *app) (migrate.Options, error) {
	store := a.store()
	o := migrate.Options{
		Handle:     store.FulfillmentHandle,
		LocationID: store.LocationID,
		Quantity:   store.Quantity,
	}

	if h, err := cmd.Flags().GetString("handle"); err != nil {
		return o, err
	} else if h != "" {
		o.Handle = h
	}
	if l, err := cmd.Flags().GetInt64("location"); err != nil {
		return o, err
	} else if l != 0 {
		o.LocationID = l
	}
	if q, err := cmd.Flags().GetInt("quantity"); err != nil {
		return o, err
	} else if q > 0 {
		o.Quantity = q
	}
	var err error
	if o.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
		return o, err
	}
	if o.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return o, err
	}
	a.cfg.Workers = o.Workers
	a.cfg.Quantity = o.Quantity
	return o, nil
}

func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	o, err := migrateOptions(cmd, a)
	if err != nil {
		return err
	}
	if err := a.readReportFlags(cmd); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	csvPath, err := cmd.Flags().GetString("csv")
	if err != nil {
		return err
	}

	sc, err := a.shopifyClient()
	if err != nil {
		return err
	}

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	if csvPath != "" {
		out, closeFn, err := a.openOutput(csvPath)
		if err != nil {
			return err
		}
		n, err := migrate.WriteCSV(ctx, sc, out, o)
		if cerr := closeFn(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		if err != nil {
			return err
		}
		if csvPath != "-" {
			fmt.Fprintf(a.stdout, "Wrote %d variant rows to %s\n", n, csvPath)
		}
		return nil
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	a.logger.Info("starting migration", "handle", o.Handle, "location", o.LocationID, "workers", o.Workers)
	r, runErr := migrate.New(sc, o,
		migrate.WithMetrics(a.metrics),
		migrate.WithLogger(a.logger),
	).Run(ctx)
	if err := a.finishRun(ctx, db, r); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
