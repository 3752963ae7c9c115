package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/config"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/pipeline"
	"github.com/nao1215/wmsync/internal/pricing"
	"github.com/nao1215/wmsync/internal/report"
	"github.com/nao1215/wmsync/internal/transform"
	"github.com/nao1215/wmsync/internal/walmart"
)

const (
	// defaultExportTarget is the number of rows "export csv" aims for.
	defaultExportTarget = 5000

	// defaultExportFile is the CSV written by "export csv".
	defaultExportFile = "shopify_products.csv"

	// defaultAffiliateFile is the CSV written by "export affiliate-links".
	defaultAffiliateFile = "affiliate_links.csv"

	// affiliatePageSize is the number of search results exported as links.
	affiliatePageSize = 50
)

// defaultExportCategories are the Walmart category IDs exported when none are given.
var defaultExportCategories = []string{"3944", "4044", "4171", "5438", "1115193"}

// Counter names of an export run.
const (
	counterExportCategories = "categories"
	counterExportRows       = "rows"
	counterExportFailed     = "failed"
)

// NewExportCmd creates the export command group.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export Walmart items as CSV",
		Long:  `Export writes Walmart data as CSV files, without touching the store.`,
	}
	cmd.AddCommand(newExportCSVCmd())
	cmd.AddCommand(newExportAffiliateLinksCmd())
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write a Shopify product import CSV",
		Long: `CSV walks each category and writes the items in Shopify's product
import format, priced at cost plus --markup.

Examples:
  wmsync export csv
  wmsync export csv --categories 3944,4044 --target 1000 --markup 0.25 -o electronics.csv`,
		Args: cobra.NoArgs,
		RunE: runExportCSVCmd,
	}

	cmd.Flags().StringSlice("categories", defaultExportCategories, "Walmart category IDs")
	cmd.Flags().Int("target", defaultExportTarget, "Total rows, split evenly across categories")
	cmd.Flags().Float64("markup", config.DefaultMarkup, "Markup over cost (0.40 = 40%)")
	cmd.Flags().StringP("output", "o", defaultExportFile, `Output file ("-" for stdout)`)
	addReportFlags(cmd)
	return cmd
}

// exportOptions are the knobs of one CSV export.
type exportOptions struct {
	Categories []string
	Target     int
	Markup     float64
}

func runExportCSVCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	var o exportOptions
	if o.Categories, err = cmd.Flags().GetStringSlice("categories"); err != nil {
		return err
	}
	if o.Target, err = cmd.Flags().GetInt("target"); err != nil {
		return err
	}
	if o.Markup, err = cmd.Flags().GetFloat64("markup"); err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	a.cfg.Target = o.Target
	a.cfg.Markup = o.Markup
	if err := a.readReportFlags(cmd); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	a.reportToStderr(cmd, output)

	wm, err := a.walmartClient()
	if err != nil {
		return err
	}
	out, closeFn, err := a.openOutput(output)
	if err != nil {
		return err
	}

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	r, runErr := exportCSV(ctx, wm, out, o, a)
	if err := closeFn(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := a.finishRun(ctx, nil, r); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// exportCSV writes the product CSV for every category. A category that
// fails is recorded and the export moves on to the next one.
func exportCSV(ctx context.Context, catalog pipeline.Catalog, w io.Writer, o exportOptions, a *app) (*model.RunReport, error) {
	r := model.NewRunReport(model.RunExport, counterExportCategories, counterExportRows, counterExportFailed)
	if len(o.Categories) == 0 {
		return r, pipeline.ErrNoCategories
	}
	per := max(o.Target/len(o.Categories), 1)
	markup := pricing.Markup(o.Markup)
	r.Notef("%d items per category, markup %.0f%%", per, o.Markup*100)

	out := report.NewCSVWriter(w, transform.CSVHeaders(), func(item walmart.Item) []string {
		return transform.CSVRow(item, markup)
	})
	if err := out.WriteHeader(); err != nil {
		return r, err
	}

	for _, category := range o.Categories {
		r.Inc(counterExportCategories)
		q := walmart.Query{Count: min(per, config.MaxBatchSize), Category: category}
		n, err := catalog.Walk(ctx, q, per, func(items []walmart.Item) error {
			if err := out.Write(items...); err != nil {
				return err
			}
			r.Add(counterExportRows, len(items))
			a.metrics.AddItems("exported", len(items))
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				_ = out.Flush() //nolint:errcheck // keep what was written before the cancel
				return r, ctx.Err()
			}
			a.logger.Warn("category export failed", "category", category, "error", err)
			r.Inc(counterExportFailed)
			r.Fail(category, err)
			continue
		}
		a.logger.Info("category exported", "category", category, "items", n)
	}
	return r, out.Flush()
}

func newExportAffiliateLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "affiliate-links QUERY",
		Short: "Write affiliate links for a search query",
		Long: `Affiliate-links searches for QUERY and writes the name, item ID and
affiliate link of each result.

Examples:
  wmsync export affiliate-links ps5
  wmsync export affiliate-links "air fryer" -o fryers.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			return walmartCommand(cmd, func(ctx context.Context, a *app, c *walmart.Client) error {
				out, closeFn, err := a.openOutput(output)
				if err != nil {
					return err
				}
				n, err := exportAffiliateLinks(ctx, c, out, args[0])
				if cerr := closeFn(); cerr != nil {
					err = errors.Join(err, cerr)
				}
				if err != nil {
					return err
				}
				if output != "" && output != "-" {
					fmt.Fprintf(a.stdout, "Wrote %d rows to %s\n", n, output)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("output", "o", defaultAffiliateFile, `Output file ("-" for stdout)`)
	return cmd
}

// affiliateSearcher is the part of the Walmart client affiliate link exports use.
type affiliateSearcher interface {
	Search(ctx context.Context, q walmart.SearchQuery) (*walmart.SearchResult, error)
	AffiliateLink(item walmart.Item) string
}

// affiliateHeaders are the columns of the affiliate link CSV.
var affiliateHeaders = []string{"name", "itemId", "affiliateLink"}

// exportAffiliateLinks writes one search page as affiliate link rows.
func exportAffiliateLinks(ctx context.Context, c affiliateSearcher, w io.Writer, query string) (int, error) {
	res, err := c.Search(ctx, walmart.SearchQuery{Query: query, NumItems: affiliatePageSize})
	if err != nil {
		return 0, err
	}
	out := report.NewCSVWriter(w, affiliateHeaders, func(item walmart.Item) []string {
		return []string{item.Name, item.ID(), c.AffiliateLink(item)}
	})
	if err := out.WriteHeader(); err != nil {
		return 0, err
	}
	if err := out.Write(res.Items...); err != nil {
		return 0, err
	}
	return len(res.Items), out.Flush()
}
