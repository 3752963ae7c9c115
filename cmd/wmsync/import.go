package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/config"
	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/pipeline"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/walmart"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import Walmart categories into Shopify",
		Long: `Import walks the Walmart catalog for each category and creates the
first-party items as Shopify products.

Each category runs as its own job (fetch, filter, transform, publish);
up to --workers categories run at once. The target is split evenly
across categories. Imported items are recorded in the local ledger and
skipped on later runs, and an interrupted category resumes from its
last page unless --fresh is given.

Examples:
  # Import the configured categories
  wmsync import

  # Import 1000 items from two categories without touching the store
  wmsync import --categories Electronics,Toys --target 1000 --dry-run -o products.json

  # Smoke test: 10 items from the first category
  wmsync import --test`,
		Args: cobra.NoArgs,
		RunE: runImportCmd,
	}

	cmd.Flags().StringSlice("categories", config.DefaultCategories,
		"Category keywords or IDs to import (default: store config, then Electronics,Baby)")
	cmd.Flags().Int("target", config.DefaultTarget, "Total number of items to fetch across categories")
	cmd.Flags().Int("batch-size", config.DefaultBatchSize, "Catalog page size (at most 100)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Number of categories imported at once")
	cmd.Flags().Bool("fresh", false, "Ignore saved checkpoints and start every category from the first page")
	cmd.Flags().Bool("dry-run", false, "Transform items but do not create products")
	cmd.Flags().Bool("test", false, "Import 10 items of the first category only")
	cmd.Flags().StringP("output", "o", "", "With --dry-run, write the products as JSON to this file (default stdout)")
	addReportFlags(cmd)

	return cmd
}

// importOptions reads the import flags. Categories fall back to the store
// config when the flag is not given.
func importOptions(cmd *cobra.Command, a *app) (pipeline.ImportOptions, error) {
	o := pipeline.ImportOptions{}
	var err error
	if o.Categories, err = cmd.Flags().GetStringSlice("categories"); err != nil {
		return o, err
	}
	if !cmd.Flags().Changed("categories") {
		if cats := a.store().Categories; len(cats) > 0 {
			o.Categories = cats
		}
	}
	if o.Target, err = cmd.Flags().GetInt("target"); err != nil {
		return o, err
	}
	if o.BatchSize, err = cmd.Flags().GetInt("batch-size"); err != nil {
		return o, err
	}
	if o.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
		return o, err
	}
	if o.Fresh, err = cmd.Flags().GetBool("fresh"); err != nil {
		return o, err
	}
	if o.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return o, err
	}
	if o.TestMode, err = cmd.Flags().GetBool("test"); err != nil {
		return o, err
	}

	a.cfg.Categories = o.Categories
	a.cfg.Target = o.Target
	a.cfg.BatchSize = o.BatchSize
	a.cfg.Workers = o.Workers
	a.cfg.DryRun = o.DryRun
	if len(o.Categories) == 0 {
		return o, pipeline.ErrNoCategories
	}
	return o, a.readReportFlags(cmd)
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	o, err := importOptions(cmd, a)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if o.DryRun {
		// The product JSON owns stdout.
		a.reportToStderr(cmd, output)
	}

	wm, err := a.walmartClient()
	if err != nil {
		return err
	}
	var creator pipeline.ProductCreator
	if !o.DryRun {
		sc, err := a.shopifyClient()
		if err != nil {
			return err
		}
		creator = sc
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	a.logger.Info("starting import",
		"categories", o.Categories,
		"target", o.Target,
		"workers", o.Workers,
		"dryRun", o.DryRun,
	)
	im := pipeline.NewImporter(wm, creator,
		pipeline.WithStore(db),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithImporterLogger(a.logger),
	)
	r, jobs, runErr := im.Run(ctx, o)

	if o.DryRun && len(jobs) > 0 {
		if err := a.writeJSON(output, dryRunProducts(jobs)); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if err := a.finishRun(ctx, db, r); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// dryRunProducts collects the products a dry run would have created.
func dryRunProducts(jobs []*pipeline.Job) []*shopify.Product {
	var products []*shopify.Product
	for _, job := range jobs {
		if job == nil {
			continue
		}
		products = append(products, job.Products...)
	}
	return products
}

// NewBestSellersCmd creates the bestsellers command.
func NewBestSellersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bestsellers",
		Short: "Import the most reviewed first-party items per keyword",
		Long: `Bestsellers searches Walmart for every keyword of every category,
keeps first-party items that are in stock, ranks them by review count and
creates them as active products priced with the best seller formula.

Keywords come from the "keywords" section of the config file, or a
built-in list. Products are assigned to the fulfillment service bound
to the store's location; when none is found the stock is placed at the
location directly.

Examples:
  wmsync bestsellers
  wmsync bestsellers --category Kitchen --max-pages 4 --dry-run`,
		Args: cobra.NoArgs,
		RunE: runBestSellersCmd,
	}

	cmd.Flags().String("category", "", "Only run this keyword category")
	cmd.Flags().Int("max-pages", pipeline.DefaultBestSellerPages, "Search pages per keyword")
	cmd.Flags().Int("max-items", pipeline.DefaultBestSellerMaxItems, "Stop a keyword once the next start offset exceeds this")
	cmd.Flags().String("handle", "", "Fulfillment service handle (default: discovered from the store location)")
	cmd.Flags().Bool("dry-run", false, "Search and rank but do not create products")
	addReportFlags(cmd)
	return cmd
}

func runBestSellersCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.readReportFlags(cmd); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	store := a.store()
	o := pipeline.BestSellerOptions{
		Quantity:   store.Quantity,
		LocationID: store.LocationID,
	}
	if o.Category, err = cmd.Flags().GetString("category"); err != nil {
		return err
	}
	if o.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return err
	}
	if o.MaxItems, err = cmd.Flags().GetInt("max-items"); err != nil {
		return err
	}
	if o.FulfillmentHandle, err = cmd.Flags().GetString("handle"); err != nil {
		return err
	}
	if o.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return err
	}
	if a.cfg.File != nil && len(a.cfg.File.Keywords) > 0 {
		o.Keywords = a.cfg.File.Keywords
	}

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

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	b := pipeline.NewBestSellerImporter(wm, sc,
		pipeline.WithBestSellerLedger(db),
		pipeline.WithAffiliateLinks(wm.AffiliateLink),
		pipeline.WithBestSellerMetrics(a.metrics),
		pipeline.WithBestSellerLogger(a.logger),
	)
	r, runErr := b.Run(ctx, o)
	if err := a.finishRun(ctx, db, r); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// Compile-time checks that the concrete clients satisfy the pipeline ports.
var (
	_ pipeline.Catalog     = (*walmart.Client)(nil)
	_ pipeline.Searcher    = (*walmart.Client)(nil)
	_ pipeline.StoreWriter = (*shopify.Client)(nil)
	_ pipeline.Store       = (*database.DB)(nil)
)
