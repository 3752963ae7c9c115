// Package config provides configuration structures and utilities for wmsync.
// It defines the shared command options, the optional .wmsync.yaml file with
// per-store settings, and the Walmart and Shopify credentials read from the
// environment (optionally through a .env file).
package config
