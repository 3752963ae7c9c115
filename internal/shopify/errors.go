package shopify

import "errors"

var (
	// ErrMissingShop is returned when no shop domain is configured.
	ErrMissingShop = errors.New("shopify shop name or store URL is required")

	// ErrMissingToken is returned when no Admin API access token is configured.
	ErrMissingToken = errors.New("shopify access token is required")

	// ErrMissingID is returned when an update targets a resource without an ID.
	ErrMissingID = errors.New("resource ID is required")
)
