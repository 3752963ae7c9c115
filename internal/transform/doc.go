// Package transform maps Walmart items onto Shopify products.
//
// Every function here is pure: it reads a walmart.Item and returns the
// Shopify product, CSV row or filter decision for it. The import, best
// seller and export commands share these rules so a product looks the same
// no matter which path created it.
package transform
