package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wmsync"

	// DefaultTimeout bounds a single HTTP request against either API.
	// Walmart item lookups with 20 IDs occasionally take more than 10 seconds,
	// so this stays generous.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkers is the number of concurrent jobs for batch commands.
	// The Shopify Admin API allows a bucket of 40 requests that refills at
	// 2 per second, so more workers mostly queue on the rate limiter.
	DefaultWorkers = 10

	// DefaultBatchSize is the page size requested from the paginated items endpoint.
	// 100 is the largest count the affiliate API accepts.
	DefaultBatchSize = 100

	// MaxBatchSize is the upper bound for DefaultBatchSize overrides.
	MaxBatchSize = 100

	// DefaultLookupBatchSize is the number of item IDs sent per items-by-ids call.
	DefaultLookupBatchSize = 20

	// MaxLookupBatchSize is the largest number of IDs the items endpoint accepts.
	MaxLookupBatchSize = 20

	// DefaultTarget is the total number of products an import run aims for.
	DefaultTarget = 25000

	// TestModeTarget replaces the target when an import runs with --test.
	TestModeTarget = 10

	// DefaultMaxRetries is the number of attempts made for retryable failures.
	DefaultMaxRetries = 3

	// DefaultWalmartDelay is the pause between paginated Walmart requests.
	DefaultWalmartDelay = 1 * time.Second

	// DefaultShopifyDelay is the minimum spacing between Shopify requests.
	DefaultShopifyDelay = 500 * time.Millisecond

	// DefaultInventoryQuantity is the stock level written for migrated variants
	// and best seller imports.
	DefaultInventoryQuantity = 50

	// DefaultFulfillmentHandle is the fulfillment service that owns migrated variants.
	DefaultFulfillmentHandle = "autods-prod-wwbybglb"

	// DefaultLocationID is the Shopify location backing DefaultFulfillmentHandle.
	DefaultLocationID int64 = 80020111495

	// DefaultMarkup is the percentage added on top of cost in CSV exports.
	DefaultMarkup = 0.40

	// DefaultDBFile is the SQLite file name inside the data directory.
	DefaultDBFile = "wmsync.db"
)

// DefaultCategories are the category keywords imported when none are given.
var DefaultCategories = []string{"Electronics", "Baby"}

// Config holds the options shared by every wmsync command.
// It is populated from flags on top of the config file and passed down
// explicitly; there is no global configuration.
type Config struct {
	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ConfigFilePath is an explicit path to the YAML config file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// File holds the parsed config file, or nil when none was found.
	File *File

	// Env holds credentials and tuning read from the environment.
	Env *Environment

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Workers is the number of concurrent jobs for batch commands.
	Workers int

	// BatchSize is the page size for paginated Walmart fetches.
	BatchSize int

	// LookupBatchSize is the number of IDs per items-by-ids request.
	LookupBatchSize int

	// Target is the total number of items an import or export aims for.
	Target int

	// Categories are the category keywords (import) or IDs (export) to process.
	Categories []string

	// MaxRetries is the number of attempts for retryable HTTP failures.
	MaxRetries int

	// WalmartDelay is the pause between paginated Walmart requests.
	WalmartDelay time.Duration

	// ShopifyDelay is the minimum spacing between Shopify requests.
	ShopifyDelay time.Duration

	// Markup is the fractional markup used by CSV exports (0.40 = 40%).
	Markup float64

	// Quantity is the inventory quantity written by migrations and best seller imports.
	Quantity int

	// JSONReport selects JSON run reports. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown run reports.
	MarkdownReport bool

	// ReportFile is the output path for the run report. Empty means stdout.
	ReportFile string

	// DBDir is the directory holding the state database.
	// Empty disables the ledger and run history.
	DBDir string

	// MetricsFile is a node-exporter textfile path. Empty disables metrics output.
	MetricsFile string

	// Proxy is an optional SOCKS5 proxy address in host:port form.
	Proxy string

	// DryRun computes everything but skips writes to Shopify.
	DryRun bool
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		Workers:         DefaultWorkers,
		BatchSize:       DefaultBatchSize,
		LookupBatchSize: DefaultLookupBatchSize,
		Target:          DefaultTarget,
		Categories:      append([]string(nil), DefaultCategories...),
		MaxRetries:      DefaultMaxRetries,
		WalmartDelay:    DefaultWalmartDelay,
		ShopifyDelay:    DefaultShopifyDelay,
		Markup:          DefaultMarkup,
		Quantity:        DefaultInventoryQuantity,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for wmsync.
// On Linux: ~/.local/share/wmsync
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wmsync.
// On Linux: ~/.config/wmsync
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers < 1 || c.Workers > 64 {
		return ErrInvalidWorkers
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return ErrInvalidBatchSize
	}
	if c.LookupBatchSize < 1 || c.LookupBatchSize > MaxLookupBatchSize {
		return ErrInvalidLookupBatchSize
	}
	if c.Target <= 0 {
		return ErrInvalidTarget
	}
	if c.MaxRetries < 1 {
		return ErrInvalidMaxRetries
	}
	if c.WalmartDelay < 0 || c.ShopifyDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Markup <= -1 {
		return ErrInvalidMarkup
	}
	if c.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// StoreSettings returns the effective settings for a shop domain,
// merging the config file (if any) over the built-in defaults.
func (c *Config) StoreSettings(shop string) StoreConfig {
	base := StoreConfig{
		FulfillmentHandle: DefaultFulfillmentHandle,
		LocationID:        DefaultLocationID,
		Quantity:          c.Quantity,
	}
	if c.File == nil {
		return base
	}
	return c.File.GetStoreConfig(shop).mergeOnto(base)
}
