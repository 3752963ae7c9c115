package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/shopify"
)

// TagPurged replaces the tags of products archived by "shopify purge".
const TagPurged = "Purged-Reset"

// Counter names of a purge run.
const (
	counterPurgeArchived = "archived"
	counterPurgeSkipped  = "skipped"
	counterPurgeFailed   = "failed"
)

// NewShopifyCmd creates the shopify command group.
func NewShopifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopify",
		Short: "Inspect and maintain the Shopify store",
		Long: `Commands that talk to the Shopify Admin API directly: credential checks,
store introspection and bulk maintenance.`,
	}

	inventory := &cobra.Command{
		Use:   "inventory",
		Short: "Manage inventory levels",
	}
	inventory.AddCommand(newShopifyInventorySetCmd())

	cmd.AddCommand(newShopifyPingCmd())
	cmd.AddCommand(newShopifyCountCmd())
	cmd.AddCommand(newShopifyLocationsCmd())
	cmd.AddCommand(newShopifyFulfillmentServicesCmd())
	cmd.AddCommand(newShopifyPurgeCmd())
	cmd.AddCommand(inventory)
	return cmd
}

// shopifyCommand wires the runtime and a Shopify client for a subcommand.
func shopifyCommand(cmd *cobra.Command, fn func(ctx context.Context, a *app, c *shopify.Client) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	c, err := a.shopifyClient()
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()
	return fn(ctx, a, c)
}

func newShopifyPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check credentials and show the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return shopifyCommand(cmd, func(ctx context.Context, a *app, c *shopify.Client) error {
				start := time.Now()
				shop, err := c.Shop(ctx)
				if err != nil {
					return fmt.Errorf("shopify ping failed: %w", err)
				}
				fmt.Fprintf(a.stdout, "Connected to %s (%s) in %s\n",
					shop.Name, shop.MyshopifyDomain, time.Since(start).Round(time.Millisecond))
				fmt.Fprintf(a.stdout, "  plan: %s, currency: %s, primary location: %d\n",
					shop.PlanName, shop.Currency, shop.PrimaryLocationID)
				return nil
			})
		},
	}
}

func newShopifyCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return shopifyCommand(cmd, func(ctx context.Context, a *app, c *shopify.Client) error {
				n, err := c.CountProducts(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, n)
				return nil
			})
		},
	}
}

func newShopifyLocationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List store locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return shopifyCommand(cmd, func(ctx context.Context, a *app, c *shopify.Client) error {
				locs, err := c.Locations(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return a.writeJSON("", locs)
				}
				return writeLocations(a.stdout, locs)
			})
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

// writeLocations prints locations as an aligned table.
func writeLocations(w io.Writer, locs []shopify.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tCITY\tCOUNTRY")
	for _, l := range locs {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\n", l.ID, l.Name, l.Active, l.City, l.Country)
	}
	return tw.Flush()
}

func newShopifyFulfillmentServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fulfillment-services",
		Short: "List fulfillment services and their locations",
		Long: `Fulfillment-services lists every fulfillment service registered in the
store, including ones owned by other apps. The HANDLE column is the
value "migrate --handle" expects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return shopifyCommand(cmd, func(ctx context.Context, a *app, c *shopify.Client) error {
				services, err := c.FulfillmentServices(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return a.writeJSON("", services)
				}
				return writeFulfillmentServices(a.stdout, services)
			})
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

// writeFulfillmentServices prints fulfillment services as an aligned table.
func writeFulfillmentServices(w io.Writer, services []shopify.FulfillmentService) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHANDLE\tLOCATION\tINVENTORY")
	for _, s := range services {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%t\n", s.ID, s.Name, s.Handle, s.LocationID, s.InventoryManagement)
	}
	return tw.Flush()
}

func newShopifyPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Archive every product",
		Long: `Purge archives every product that is not archived yet and replaces its
tags with "Purged-Reset". Nothing is deleted, but the store front goes
empty. It refuses to run without --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("purge archives every product in the store; pass --yes to confirm")
			}
			return shopifyCommand(cmd, func(ctx context.Context, a *app, c *shopify.Client) error {
				if err := a.readReportFlags(cmd); err != nil {
					return err
				}
				db, err := a.openDB()
				if err != nil {
					return err
				}
				defer db.Close()

				r, runErr := purgeProducts(ctx, c, a)
				if err := a.finishRun(ctx, db, r); err != nil {
					return errors.Join(runErr, err)
				}
				return runErr
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm archiving every product")
	addReportFlags(cmd)
	return cmd
}

// purgeStore is the part of the Shopify client a purge uses.
type purgeStore interface {
	ListProducts(ctx context.Context, fields []string, fn func([]shopify.Product) error) (int, error)
	UpdateProduct(ctx context.Context, p *shopify.Product) (*shopify.Product, error)
}

// purgeProducts archives every product that is not archived yet.
func purgeProducts(ctx context.Context, store purgeStore, a *app) (*model.RunReport, error) {
	r := model.NewRunReport(model.RunPurge, counterPurgeArchived, counterPurgeSkipped, counterPurgeFailed)

	_, err := store.ListProducts(ctx, []string{"id", "title", "status"}, func(page []shopify.Product) error {
		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.Status == shopify.StatusArchived {
				r.Inc(counterPurgeSkipped)
				continue
			}
			_, err := store.UpdateProduct(ctx, &shopify.Product{
				ID:     p.ID,
				Status: shopify.StatusArchived,
				Tags:   TagPurged,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("failed to archive product", "product_id", p.ID, "error", err)
				r.Inc(counterPurgeFailed)
				r.Fail(strconv.FormatInt(p.ID, 10), err)
				continue
			}
			r.Inc(counterPurgeArchived)
			a.metrics.AddItems("purged", 1)
			a.logger.Debug("archived product", "product_id", p.ID, "title", p.Title)
		}
		return nil
	})
	r.Finish()
	return r, err
}

func newShopifyInventorySetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set INVENTORY_ITEM_ID QUANTITY",
		Short: "Set the available quantity of an item at a location",
		Long: `Set writes the available quantity of one inventory item at a location.
The location defaults to the store's fulfillment location.

Examples:
  wmsync shopify inventory set 44780012345678 50
  wmsync shopify inventory set 44780012345678 0 --location 61234567890`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid inventory item ID %q: %w", args[0], err)
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			location, err := cmd.Flags().GetInt64("location")
			if err != nil {
				return err
			}
			return shopifyCommand(cmd, func(ctx context.Context, a *app, c *shopify.Client) error {
				if location == 0 {
					location = a.store().LocationID
				}
				level, err := c.SetInventory(ctx, itemID, location, qty)
				if err != nil {
					return err
				}
				available := "unknown"
				if level.Available != nil {
					available = strconv.Itoa(*level.Available)
				}
				fmt.Fprintf(a.stdout, "Inventory item %d at location %d: available %s\n", itemID, location, available)
				return nil
			})
		},
	}
	cmd.Flags().Int64("location", 0, "Location ID (default: store config)")
	return cmd
}
