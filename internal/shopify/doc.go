// Package shopify is a small client for the Shopify Admin REST API covering
// the resources wmsync manages: products, variants, inventory levels,
// locations and fulfillment services.
//
// Requests go through an httpclient.Client whose limiter is shared by every
// caller, so worker pools fanning out over variants stay within the store's
// request budget.
package shopify
