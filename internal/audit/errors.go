package audit

import "errors"

var (
	// ErrInvalidProductID is returned when a CSV row has no usable Shopify_ID.
	ErrInvalidProductID = errors.New("invalid Shopify_ID")

	// ErrUnknownStatus is returned when a CSV row's Walmart_Status is not recognized.
	ErrUnknownStatus = errors.New("unknown Walmart_Status")

	// ErrMissingTargetPrice is returned when a price update has no Target_Price.
	ErrMissingTargetPrice = errors.New("missing Target_Price")

	// ErrNoVariant is returned when a product to reprice has no variants.
	ErrNoVariant = errors.New("product has no variants")
)
