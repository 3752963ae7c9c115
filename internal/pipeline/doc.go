// Package pipeline imports Walmart items into a Shopify store.
//
// A category import is a Job that flows through four ordered steps: fetch
// pages from the Walmart catalog, filter out unusable or already imported
// items, transform the rest into Shopify products and publish them. A
// Pipeline runs the steps of one job; a BatchProcessor runs the jobs of
// several categories concurrently with errgroup.
//
// The best seller import (BestSellerImporter) is keyword driven instead of
// category driven and lives here too, since it shares the ledger and the
// publish rules.
package pipeline
