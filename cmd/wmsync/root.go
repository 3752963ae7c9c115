package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wmsync.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wmsync",
		Short: "Walmart to Shopify catalog sync",
		Long: `wmsync pulls product data from the Walmart Affiliate API and keeps a
Shopify store in step with it: category and best seller imports, store
audits, price and status syncs, fulfillment migrations and CSV exports.

Credentials are read from the environment (or a .env file):
  WALMART_CONSUMER_ID, WALMART_PRIVATE_KEY_PATH (or WALMART_PRIVATE_KEY)
  SHOPIFY_SHOP_NAME (or SHOPIFY_STORE_URL), SHOPIFY_ACCESS_TOKEN

Store settings such as the fulfillment location live in .wmsync.yaml;
run "wmsync init" to create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .wmsync.yaml in current or home directory)")
	cmd.PersistentFlags().String("metrics-file", "",
		"Write Prometheus metrics to this node-exporter textfile when the command ends")
	cmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading credentials")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewWalmartCmd())
	cmd.AddCommand(NewShopifyCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewBestSellersCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHistoryCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
