package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/config"
	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/httpclient"
	wmlog "github.com/nao1215/wmsync/internal/log"
	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/report"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/walmart"
)

// shopifyRetryAfter is the wait after a 429 that carries no Retry-After header.
const shopifyRetryAfter = 2 * time.Second

// app is the runtime shared by the commands: configuration, logger and
// metrics, plus constructors for the API clients and the state database.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	stdout  io.Writer

	// reportOut receives run reports instead of stdout when set.
	reportOut io.Writer
}

// newApp builds the runtime from the global flags, the config file and the
// environment.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg := config.NewConfig()

	var err error
	cfg.Verbose = getVerboseFlag(cmd)
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return nil, err
	}
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Env, err = config.LoadEnvironment(envFile)
	if err != nil {
		return nil, err
	}
	cfg.Proxy = cfg.Env.Proxy
	cfg.MaxRetries = cfg.Env.Walmart.MaxRetries
	cfg.Timeout = cfg.Env.Walmart.Timeout()
	cfg.WalmartDelay = cfg.Env.Walmart.Delay()
	cfg.ShopifyDelay = cfg.Env.Shopify.RateLimit()
	cfg.LookupBatchSize = cfg.Env.Walmart.LookupBatch

	logger := wmlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		stdout: cmd.OutOrStdout(),
	}
	if cfg.MetricsFile != "" {
		a.metrics = metrics.New()
	}
	return a, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func (a *app) signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			a.logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// store returns the settings of the configured Shopify store.
func (a *app) store() config.StoreConfig {
	return a.cfg.StoreSettings(a.cfg.Env.Shopify.Shop())
}

// httpClient builds the *http.Client behind one API client.
func (a *app) httpClient() (*http.Client, error) {
	if a.cfg.Proxy != "" {
		a.logger.Info("routing API traffic through proxy", "proxy", a.cfg.Proxy)
	}
	return httpclient.NewHTTPClient(httpclient.TransportOptions{Timeout: a.cfg.Timeout, Proxy: a.cfg.Proxy})
}

// walmartClient builds a signed Walmart client from the environment.
func (a *app) walmartClient() (*walmart.Client, error) {
	env := a.cfg.Env.Walmart
	if err := env.Check(); err != nil {
		return nil, err
	}
	if a.cfg.LookupBatchSize < 1 || a.cfg.LookupBatchSize > config.MaxLookupBatchSize {
		return nil, config.ErrInvalidLookupBatchSize
	}
	key, err := walmart.LoadPrivateKey(env.PrivateKey, env.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load Walmart private key: %w", err)
	}
	signer, err := walmart.NewSigner(env.ConsumerID, env.KeyVersion, key)
	if err != nil {
		return nil, err
	}

	hc, err := a.httpClient()
	if err != nil {
		return nil, err
	}
	client := httpclient.New("walmart",
		httpclient.WithHTTPClient(hc),
		httpclient.WithMinInterval(a.cfg.WalmartDelay),
		httpclient.WithMaxRetries(a.cfg.MaxRetries),
		httpclient.WithLogger(a.logger),
		httpclient.WithMetrics(a.metrics),
	)
	return walmart.NewClient(signer, client, walmart.Config{
		ItemsURL:    env.ItemsURL,
		LookupURL:   env.LookupURL,
		SearchURL:   env.SearchURL,
		LookupBatch: a.cfg.LookupBatchSize,
		Affiliate: walmart.AffiliateIDs{
			PublisherID: env.PublisherID,
			CampaignID:  env.CampaignID,
			AdID:        env.AdID,
		},
	}, a.logger), nil
}

// shopifyClient builds an Admin API client from the environment.
func (a *app) shopifyClient() (*shopify.Client, error) {
	env := a.cfg.Env.Shopify
	if err := env.Check(); err != nil {
		return nil, err
	}

	hc, err := a.httpClient()
	if err != nil {
		return nil, err
	}
	client := httpclient.New("shopify",
		httpclient.WithHTTPClient(hc),
		httpclient.WithMinInterval(a.cfg.ShopifyDelay),
		httpclient.WithMaxRetries(env.MaxRetries),
		httpclient.WithDefaultRetryAfter(shopifyRetryAfter),
		httpclient.WithLogger(a.logger),
		httpclient.WithMetrics(a.metrics),
	)
	return shopify.NewClient(shopify.Config{
		Shop:        env.Shop(),
		AccessToken: env.AccessToken,
		APIVersion:  env.APIVersion,
	}, client, a.logger)
}

// openDB opens the state database in the XDG data directory.
func (a *app) openDB() (*database.DB, error) {
	db, err := database.Open(a.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.logger.Info("database opened", "path", db.Path())
	return db, nil
}

// addReportFlags registers the run report flags on a batch command.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().String("report", "",
		"Write the run report to this file instead of stdout (creates directories if needed)")
}

// readReportFlags copies the report flags into the config and validates them.
func (a *app) readReportFlags(cmd *cobra.Command) error {
	var err error
	if a.cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if a.cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if a.cfg.ReportFile, err = cmd.Flags().GetString("report"); err != nil {
		return err
	}
	return a.cfg.Validate()
}

// reportWriter returns the run report writer selected by the flags.
func (a *app) reportWriter(output io.Writer) report.Writer {
	switch {
	case a.cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case a.cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(a.cfg.Verbose))
	}
}

// reportToStderr sends run reports to stderr when the command's data
// output (output "" or "-") owns stdout.
func (a *app) reportToStderr(cmd *cobra.Command, output string) {
	if output == "" || output == "-" {
		a.reportOut = cmd.ErrOrStderr()
	}
}

// outputReport writes r to the report file, or to stdout unless
// reportToStderr moved it.
func (a *app) outputReport(r *model.RunReport) error {
	output := a.stdout
	if a.reportOut != nil {
		output = a.reportOut
	}
	if a.cfg.ReportFile != "" {
		f, err := createOutputFile(a.cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}
	_, err := a.reportWriter(output).Write(r)
	return err
}

// finishRun prints the report, records it in the runs table and writes the
// metrics textfile. It runs after cancellation too, so partial runs are kept.
func (a *app) finishRun(ctx context.Context, db *database.DB, r *model.RunReport) error {
	if r == nil {
		return nil
	}
	r.Store = a.cfg.Env.Shopify.Shop()
	if r.FinishedAt.IsZero() {
		r.Finish()
	}

	var errs []error
	if err := a.outputReport(r); err != nil {
		errs = append(errs, fmt.Errorf("report failed: %w", err))
	}
	if db != nil {
		if err := db.SaveRun(context.WithoutCancel(ctx), r); err != nil {
			errs = append(errs, fmt.Errorf("failed to save run: %w", err))
		} else {
			a.logger.Info("run saved to database", "run_id", r.RunID)
		}
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// createOutputFile creates (or truncates) path with owner-only permissions,
// creating parent directories as needed.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// openOutput returns path as a writer, or stdout for "" and "-".
// The returned close function is always safe to call.
func (a *app) openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := createOutputFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
