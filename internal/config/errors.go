package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is outside 1..64.
	ErrInvalidWorkers = errors.New("invalid workers: must be between 1 and 64")

	// ErrInvalidBatchSize is returned when the page size is outside 1..100.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be between 1 and 100")

	// ErrInvalidLookupBatchSize is returned when the items-by-ids batch is outside 1..20.
	ErrInvalidLookupBatchSize = errors.New("invalid lookup batch size: must be between 1 and 20")

	// ErrInvalidTarget is returned when the import target is not positive.
	ErrInvalidTarget = errors.New("invalid target: must be positive")

	// ErrInvalidMaxRetries is returned when fewer than one attempt is configured.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be at least 1")

	// ErrInvalidDelay is returned when a request delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMarkup is returned when the markup would produce a non-positive price.
	ErrInvalidMarkup = errors.New("invalid markup: must be greater than -1")

	// ErrInvalidQuantity is returned when the inventory quantity is negative.
	ErrInvalidQuantity = errors.New("invalid quantity: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrMissingWalmartCredentials is returned when WALMART_CONSUMER_ID is not set.
	ErrMissingWalmartCredentials = errors.New("walmart credentials missing: set WALMART_CONSUMER_ID")

	// ErrMissingShopifyCredentials is returned when the shop or access token is not set.
	ErrMissingShopifyCredentials = errors.New("shopify credentials missing: set SHOPIFY_SHOP_NAME (or SHOPIFY_STORE_URL) and SHOPIFY_ACCESS_TOKEN")
)
