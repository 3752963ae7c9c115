package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig documents the defaults through tests so that changes to them are intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Workers is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 10 {
			t.Errorf("expected Workers to be 10, got %d", cfg.Workers)
		}
	})

	t.Run("default BatchSize is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 100 {
			t.Errorf("expected BatchSize to be 100, got %d", cfg.BatchSize)
		}
	})

	t.Run("default LookupBatchSize is 20", func(t *testing.T) {
		t.Parallel()
		if cfg.LookupBatchSize != 20 {
			t.Errorf("expected LookupBatchSize to be 20, got %d", cfg.LookupBatchSize)
		}
	})

	t.Run("default Target is 25000", func(t *testing.T) {
		t.Parallel()
		if cfg.Target != 25000 {
			t.Errorf("expected Target to be 25000, got %d", cfg.Target)
		}
	})

	t.Run("default Categories are Electronics and Baby", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Categories) != 2 || cfg.Categories[0] != "Electronics" || cfg.Categories[1] != "Baby" {
			t.Errorf("unexpected Categories %v", cfg.Categories)
		}
	})

	t.Run("default ShopifyDelay is 500ms", func(t *testing.T) {
		t.Parallel()
		if cfg.ShopifyDelay != 500*time.Millisecond {
			t.Errorf("expected ShopifyDelay to be 500ms, got %v", cfg.ShopifyDelay)
		}
	})

	t.Run("default Quantity is 50", func(t *testing.T) {
		t.Parallel()
		if cfg.Quantity != 50 {
			t.Errorf("expected Quantity to be 50, got %d", cfg.Quantity)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("Categories is a copy of DefaultCategories", func(t *testing.T) {
		t.Parallel()
		other := NewConfig()
		other.Categories[0] = "Toys"
		if DefaultCategories[0] != "Electronics" {
			t.Error("mutating Config.Categories changed DefaultCategories")
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := NewConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero timeout returns ErrInvalidTimeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero workers returns ErrInvalidWorkers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"65 workers returns ErrInvalidWorkers", func(c *Config) { c.Workers = 65 }, ErrInvalidWorkers},
		{"batch size 101 returns ErrInvalidBatchSize", func(c *Config) { c.BatchSize = 101 }, ErrInvalidBatchSize},
		{"batch size 0 returns ErrInvalidBatchSize", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"lookup batch 21 returns ErrInvalidLookupBatchSize", func(c *Config) { c.LookupBatchSize = 21 }, ErrInvalidLookupBatchSize},
		{"zero target returns ErrInvalidTarget", func(c *Config) { c.Target = 0 }, ErrInvalidTarget},
		{"zero retries returns ErrInvalidMaxRetries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidMaxRetries},
		{"negative walmart delay returns ErrInvalidDelay", func(c *Config) { c.WalmartDelay = -time.Second }, ErrInvalidDelay},
		{"negative shopify delay returns ErrInvalidDelay", func(c *Config) { c.ShopifyDelay = -time.Second }, ErrInvalidDelay},
		{"markup of -1 returns ErrInvalidMarkup", func(c *Config) { c.Markup = -1 }, ErrInvalidMarkup},
		{"negative quantity returns ErrInvalidQuantity", func(c *Config) { c.Quantity = -1 }, ErrInvalidQuantity},
		{"json and markdown returns ErrConflictingReportFormats", func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero markup is valid", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Markup = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestFileGetStoreConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: StoreConfig{
			FulfillmentHandle: "default-handle",
			LocationID:        1,
			Quantity:          25,
		},
		Stores: map[string]StoreConfig{
			"shop-a.myshopify.com": {
				LocationID:      99,
				PriceMultiplier: 1.25,
				Categories:      []string{"Toys"},
			},
		},
	}

	t.Run("unknown store gets defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetStoreConfig("other.myshopify.com")
		if got.FulfillmentHandle != "default-handle" || got.LocationID != 1 || got.Quantity != 25 {
			t.Errorf("unexpected store config %+v", got)
		}
	})

	t.Run("store overrides non-zero fields only", func(t *testing.T) {
		t.Parallel()
		got := cf.GetStoreConfig("shop-a.myshopify.com")
		if got.FulfillmentHandle != "default-handle" {
			t.Errorf("expected handle from defaults, got %q", got.FulfillmentHandle)
		}
		if got.LocationID != 99 {
			t.Errorf("expected location 99, got %d", got.LocationID)
		}
		if got.PriceMultiplier != 1.25 {
			t.Errorf("expected multiplier 1.25, got %v", got.PriceMultiplier)
		}
		if len(got.Categories) != 1 || got.Categories[0] != "Toys" {
			t.Errorf("unexpected categories %v", got.Categories)
		}
	})
}

func TestConfigStoreSettings(t *testing.T) {
	t.Parallel()

	t.Run("without a file the built-in fulfillment settings apply", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		got := cfg.StoreSettings("any.myshopify.com")
		if got.FulfillmentHandle != DefaultFulfillmentHandle {
			t.Errorf("expected %q, got %q", DefaultFulfillmentHandle, got.FulfillmentHandle)
		}
		if got.LocationID != DefaultLocationID {
			t.Errorf("expected %d, got %d", DefaultLocationID, got.LocationID)
		}
		if got.Quantity != DefaultInventoryQuantity {
			t.Errorf("expected %d, got %d", DefaultInventoryQuantity, got.Quantity)
		}
	})

	t.Run("file values win over built-in values", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.File = &File{Defaults: StoreConfig{FulfillmentHandle: "custom"}}
		got := cfg.StoreSettings("any.myshopify.com")
		if got.FulfillmentHandle != "custom" {
			t.Errorf("expected custom handle, got %q", got.FulfillmentHandle)
		}
		if got.LocationID != DefaultLocationID {
			t.Errorf("expected default location, got %d", got.LocationID)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.wmsync.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)

		content := `defaults:
  fulfillmentHandle: autods-prod-test
  locationId: 123
stores:
  example.myshopify.com:
    quantity: 5
    categories:
      - Toys
keywords:
  Electronics:
    - TV
    - Laptop
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.FulfillmentHandle != "autods-prod-test" {
			t.Errorf("unexpected handle %q", cfg.Defaults.FulfillmentHandle)
		}
		if cfg.Defaults.LocationID != 123 {
			t.Errorf("unexpected location %d", cfg.Defaults.LocationID)
		}
		store, ok := cfg.Stores["example.myshopify.com"]
		if !ok {
			t.Fatal("expected example.myshopify.com in stores")
		}
		if store.Quantity != 5 {
			t.Errorf("expected quantity 5, got %d", store.Quantity)
		}
		if got := cfg.Keywords["Electronics"]; len(got) != 2 {
			t.Errorf("expected 2 keywords, got %v", got)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil maps", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("defaults:\n  quantity: 3\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Stores == nil || cfg.Keywords == nil {
			t.Error("expected maps to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir ends with the app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGDataDir()) != AppName {
			t.Errorf("unexpected data dir %q", XDGDataDir())
		}
	})

	t.Run("XDGConfigDir ends with the app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGConfigDir()) != AppName {
			t.Errorf("unexpected config dir %q", XDGConfigDir())
		}
	})
}
