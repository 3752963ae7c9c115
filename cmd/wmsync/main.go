// Package main provides the entry point for the wmsync CLI.
//
// wmsync pulls products from the Walmart Affiliate API and imports,
// audits, re-prices or exports them for a Shopify store.
//
// Usage:
//
//	wmsync import --categories Electronics,Baby
//	wmsync audit -o audit.csv
//	wmsync sync audit.csv
//
// See --help for all available options.
package main

// main is the entry point for wmsync.
func main() {
	Execute()
}
