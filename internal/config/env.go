package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// WalmartEnv holds Walmart credentials and tuning read from the environment.
type WalmartEnv struct {
	ConsumerID     string `envconfig:"WALMART_CONSUMER_ID"`
	KeyVersion     string `envconfig:"WALMART_PRIVATE_KEY_VERSION" default:"1"`
	PrivateKeyPath string `envconfig:"WALMART_PRIVATE_KEY_PATH"`
	// PrivateKey is a base64 encoded DER key. It takes precedence over PrivateKeyPath.
	PrivateKey string `envconfig:"WALMART_PRIVATE_KEY"`

	PublisherID string `envconfig:"PUBLISHER_ID"`
	CampaignID  string `envconfig:"CAMPAIGN_ID"`
	AdID        string `envconfig:"AD_ID"`

	ItemsURL  string `envconfig:"BASE_URL" default:"https://developer.api.walmart.com/api-proxy/service/affil/product/v2/paginated/items"`
	LookupURL string `envconfig:"ITEMS_BY_IDS_URL" default:"https://developer.api.walmart.com/api-proxy/service/affil/product/v2/items"`
	SearchURL string `envconfig:"SEARCH_URL" default:"https://developer.api.walmart.com/api-proxy/service/affil/product/v2/search"`

	MaxRetries     int     `envconfig:"MAX_RETRIES" default:"3"`
	TimeoutSeconds int     `envconfig:"REQUEST_TIMEOUT" default:"30"`
	DelaySeconds   float64 `envconfig:"DELAY_BETWEEN_REQUESTS" default:"1"`
	LookupBatch    int     `envconfig:"ITEMS_BY_IDS_BATCH_SIZE" default:"20"`
}

// Timeout returns REQUEST_TIMEOUT as a duration.
func (w WalmartEnv) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// Delay returns DELAY_BETWEEN_REQUESTS as a duration.
func (w WalmartEnv) Delay() time.Duration {
	return time.Duration(w.DelaySeconds * float64(time.Second))
}

// Check reports whether the Walmart credentials are usable.
func (w WalmartEnv) Check() error {
	if strings.TrimSpace(w.ConsumerID) == "" {
		return ErrMissingWalmartCredentials
	}
	return nil
}

// ShopifyEnv holds Shopify credentials and tuning read from the environment.
type ShopifyEnv struct {
	ShopName    string `envconfig:"SHOPIFY_SHOP_NAME"`
	StoreURL    string `envconfig:"SHOPIFY_STORE_URL"`
	AccessToken string `envconfig:"SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string `envconfig:"SHOPIFY_API_VERSION" default:"2024-01"`

	RateLimitSeconds float64 `envconfig:"SHOPIFY_RATE_LIMIT_DELAY" default:"0.5"`
	MaxRetries       int     `envconfig:"SHOPIFY_MAX_RETRIES" default:"3"`
}

// Shop returns the shop domain, e.g. "example.myshopify.com".
// A bare shop name gets the myshopify.com suffix; a store URL loses its scheme.
func (s ShopifyEnv) Shop() string {
	raw := strings.TrimSpace(s.StoreURL)
	if raw == "" {
		raw = strings.TrimSpace(s.ShopName)
	}
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, ".") {
		raw += ".myshopify.com"
	}
	return raw
}

// RateLimit returns SHOPIFY_RATE_LIMIT_DELAY as a duration.
func (s ShopifyEnv) RateLimit() time.Duration {
	return time.Duration(s.RateLimitSeconds * float64(time.Second))
}

// Check reports whether the Shopify credentials are usable.
func (s ShopifyEnv) Check() error {
	if s.Shop() == "" || strings.TrimSpace(s.AccessToken) == "" {
		return ErrMissingShopifyCredentials
	}
	return nil
}

// Environment groups every value wmsync reads from the process environment.
type Environment struct {
	Walmart WalmartEnv
	Shopify ShopifyEnv
	Proxy   string
}

type proxyEnv struct {
	Proxy string `envconfig:"WMSYNC_PROXY"`
}

// LoadEnvironment loads dotenv files (if present) into the process
// environment and binds the result to an Environment.
// Variables already set in the environment win over dotenv values.
func LoadEnvironment(dotenvFiles ...string) (*Environment, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var env Environment
	if err := envconfig.Process("", &env.Walmart); err != nil {
		return nil, fmt.Errorf("walmart environment: %w", err)
	}
	if err := envconfig.Process("", &env.Shopify); err != nil {
		return nil, fmt.Errorf("shopify environment: %w", err)
	}
	var p proxyEnv
	if err := envconfig.Process("", &p); err != nil {
		return nil, fmt.Errorf("proxy environment: %w", err)
	}
	env.Proxy = p.Proxy

	return &env, nil
}
