// Package migrate moves store variants onto an external fulfillment
// service and stocks them at the service's location.
//
// Variants are processed by a bounded pool of workers sharing the Shopify
// client, whose rate limiter keeps the pool within the API budget. The
// same change can instead be written as a Shopify bulk-edit CSV.
package migrate
