package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/report"
	"github.com/nao1215/wmsync/internal/walmart"
)

// defaultBenchCounts are the page sizes timed by "walmart bench".
var defaultBenchCounts = []int{1, 10, 25, 50, 100}

// NewWalmartCmd creates the walmart command group.
func NewWalmartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walmart",
		Short: "Query the Walmart Affiliate API",
		Long: `Commands that talk to the Walmart Affiliate API directly.

Every request is signed with the RSA key configured through
WALMART_PRIVATE_KEY_PATH or WALMART_PRIVATE_KEY. Use "walmart keygen"
to create a key pair and upload the public key to the developer portal.`,
	}

	cmd.AddCommand(newWalmartItemsCmd())
	cmd.AddCommand(newWalmartLookupCmd())
	cmd.AddCommand(newWalmartSearchCmd())
	cmd.AddCommand(newWalmartKeygenCmd())
	cmd.AddCommand(newWalmartPubkeyCmd())
	cmd.AddCommand(newWalmartPingCmd())
	cmd.AddCommand(newWalmartBenchCmd())
	return cmd
}

// walmartCommand wires the runtime and a Walmart client for a subcommand.
func walmartCommand(cmd *cobra.Command, fn func(ctx context.Context, a *app, c *walmart.Client) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	c, err := a.walmartClient()
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()
	return fn(ctx, a, c)
}

// writeJSON encodes v as indented JSON to path, or stdout when path is empty.
func (a *app) writeJSON(path string, v any) error {
	out, closeFn, err := a.openOutput(path)
	if err != nil {
		return err
	}
	if _, err := report.NewJSONWriter(out, report.WithPrettyPrint()).Encode(v); err != nil {
		_ = closeFn() //nolint:errcheck // the encode error wins
		return err
	}
	return closeFn()
}

func newWalmartItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Fetch catalog pages as JSON",
		Long: `Items walks the paginated catalog, following lastDoc cursors, and
writes the items as a JSON array.

Examples:
  wmsync walmart items --category 3944 --max 250
  wmsync walmart items --brand Apple --special-offer rollback -o items.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := walmart.Query{}
			var err error
			if q.Category, err = cmd.Flags().GetString("category"); err != nil {
				return err
			}
			if q.Brand, err = cmd.Flags().GetString("brand"); err != nil {
				return err
			}
			if q.SpecialOffer, err = cmd.Flags().GetString("special-offer"); err != nil {
				return err
			}
			if q.Count, err = cmd.Flags().GetInt("count"); err != nil {
				return err
			}
			maxItems, err := cmd.Flags().GetInt("max")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			return walmartCommand(cmd, func(ctx context.Context, a *app, c *walmart.Client) error {
				var items []walmart.Item
				n, err := c.Walk(ctx, q, maxItems, func(page []walmart.Item) error {
					items = append(items, page...)
					return nil
				})
				if err != nil && len(items) == 0 {
					return err
				}
				if err != nil {
					a.logger.Warn("walk stopped early, writing items fetched so far", "fetched", n, "error", err)
				}
				return a.writeJSON(output, items)
			})
		},
	}

	cmd.Flags().String("category", "", "Category ID, e.g. 3944 or 3944_1060825")
	cmd.Flags().String("brand", "", "Brand name")
	cmd.Flags().String("special-offer", "", "Special offer: rollback, clearance or specialBuy")
	cmd.Flags().Int("count", 100, "Page size (at most 100)")
	cmd.Flags().Int("max", 100, "Maximum number of items to fetch (0 fetches every page)")
	cmd.Flags().StringP("output", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}

func newWalmartLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up items by ID or UPC",
		Long: `Lookup fetches items by item ID (batches of ITEMS_BY_IDS_BATCH_SIZE, at most 20) or by UPC/GTIN.
Items Walmart does not know are left out of the output.

Examples:
  wmsync walmart lookup --ids 5036159,10450115
  wmsync walmart lookup --upc 885909950805 --postal-code 72716`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := cmd.Flags().GetStringSlice("ids")
			if err != nil {
				return err
			}
			upcs, err := cmd.Flags().GetStringSlice("upc")
			if err != nil {
				return err
			}
			postal, err := cmd.Flags().GetString("postal-code")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			if len(ids) == 0 && len(upcs) == 0 {
				return errors.New("either --ids or --upc is required")
			}

			return walmartCommand(cmd, func(ctx context.Context, a *app, c *walmart.Client) error {
				var items []walmart.Item
				if len(ids) > 0 {
					found, err := c.ItemsByIDs(ctx, ids, postal)
					if err != nil {
						return err
					}
					items = append(items, found...)
				}
				if len(upcs) > 0 {
					found, err := c.ItemsByUPC(ctx, upcs, postal)
					if err != nil {
						return err
					}
					items = append(items, found...)
				}
				a.logger.Info("lookup finished", "requested", len(ids)+len(upcs), "found", len(items))
				return a.writeJSON(output, items)
			})
		},
	}

	cmd.Flags().StringSlice("ids", nil, "Comma separated item IDs")
	cmd.Flags().StringSlice("upc", nil, "Comma separated UPC or GTIN codes")
	cmd.Flags().String("postal-code", "", "Postal code for local availability")
	cmd.Flags().StringP("output", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}

func newWalmartSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Keyword search",
		Long: `Search runs a keyword search and pages through the results until a
page comes back empty or the page limit is reached.

Examples:
  wmsync walmart search "air fryer" --pages 4
  wmsync walmart search headphones --sort bestseller --num-items 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := walmart.SearchQuery{Query: args[0]}
			var err error
			if q.NumItems, err = cmd.Flags().GetInt("num-items"); err != nil {
				return err
			}
			if q.Sort, err = cmd.Flags().GetString("sort"); err != nil {
				return err
			}
			pages, err := cmd.Flags().GetInt("pages")
			if err != nil {
				return err
			}
			maxItems, err := cmd.Flags().GetInt("max-items")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			return walmartCommand(cmd, func(ctx context.Context, a *app, c *walmart.Client) error {
				items, err := c.SearchAll(ctx, q, pages, maxItems)
				if err != nil {
					return err
				}
				return a.writeJSON(output, items)
			})
		},
	}

	cmd.Flags().Int("pages", 1, "Maximum number of result pages")
	cmd.Flags().Int("num-items", walmart.DefaultSearchPageSize, "Results per page")
	cmd.Flags().Int("max-items", 0, "Stop once the next start offset exceeds this (0 for no limit)")
	cmd.Flags().String("sort", "", "Sort order: relevance, price, title, bestseller, customerRating or new")
	cmd.Flags().StringP("output", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}

func newWalmartKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key pair",
		Long: `Keygen creates an RSA key pair for request signing:

  walmart_private_key.pem  PKCS#8 private key (mode 0600)
  walmart_public_key.pem   public key to upload to the developer portal

Point WALMART_PRIVATE_KEY_PATH at the private key afterwards.`,
		Args: cobra.NoArgs,
		RunE: runWalmartKeygen,
	}

	cmd.Flags().String("dir", ".", "Directory the key files are written to")
	cmd.Flags().Int("bits", walmart.DefaultKeyBits, "RSA key size")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing key files")
	return cmd
}

const (
	privateKeyFile = "walmart_private_key.pem"
	publicKeyFile  = "walmart_public_key.pem"
)

func runWalmartKeygen(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	bits, err := cmd.Flags().GetInt("bits")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	privPath := filepath.Join(dir, privateKeyFile)
	pubPath := filepath.Join(dir, publicKeyFile)
	if !force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("key file already exists: %s (use -f to overwrite)", p)
			}
		}
	}

	pair, err := walmart.GenerateKeyPair(bits)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(privPath, pair.PrivatePEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pair.PublicPEM, 0644); err != nil { //nolint:gosec // public key
		return fmt.Errorf("failed to write public key: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Private key: %s\n", privPath)
	fmt.Fprintf(out, "Public key:  %s\n", pubPath)
	fmt.Fprintf(out, "Fingerprint: %s\n\n", pair.Fingerprint)
	fmt.Fprintln(out, "Upload the public key to the Walmart developer portal, then set")
	fmt.Fprintf(out, "  WALMART_PRIVATE_KEY_PATH=%s\n", privPath)
	return nil
}

func newWalmartPubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey BASE64_DER",
		Short: "Convert a portal public key to PEM",
		Long: `Pubkey converts the base64 DER public key shown by the Walmart
developer portal into PEM and prints its fingerprint, so it can be
compared with a local key. Pass "-" to read the key from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded := args[0]
			if encoded == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				encoded = string(data)
			}
			pemBytes, pub, err := walmart.PublicKeyPEMFromBase64DER(encoded)
			if err != nil {
				return err
			}
			fp, err := walmart.Fingerprint(pub)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, string(pemBytes))
			fmt.Fprintf(out, "Fingerprint: %s\n", fp)
			return nil
		},
	}
}

func newWalmartPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check credentials and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return walmartCommand(cmd, func(ctx context.Context, a *app, c *walmart.Client) error {
				start := time.Now()
				if err := c.Ping(ctx); err != nil {
					return fmt.Errorf("walmart ping failed: %w", err)
				}
				fmt.Fprintf(a.stdout, "Walmart Affiliate API reachable (%s)\n", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

func newWalmartBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time catalog requests per page size",
		Long: `Bench sends one catalog request per page size and reports latency,
response size and item count for each, to pick a batch size.

Examples:
  wmsync walmart bench
  wmsync walmart bench --counts 25,100 --category 3944 --json`,
		Args: cobra.NoArgs,
		RunE: runWalmartBench,
	}

	cmd.Flags().IntSlice("counts", defaultBenchCounts, "Page sizes to time")
	cmd.Flags().String("category", "", "Category ID to query")
	addReportFlags(cmd)
	return cmd
}

func runWalmartBench(cmd *cobra.Command, _ []string) error {
	counts, err := cmd.Flags().GetIntSlice("counts")
	if err != nil {
		return err
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}

	return walmartCommand(cmd, func(ctx context.Context, a *app, c *walmart.Client) error {
		if err := a.readReportFlags(cmd); err != nil {
			return err
		}
		results, err := c.Bench(ctx, counts, category)
		r := benchReport(results)
		if ferr := a.finishRun(ctx, nil, r); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	})
}

// benchReport turns bench results into a run report: one note per request.
func benchReport(results []walmart.BenchResult) *model.RunReport {
	r := model.NewRunReport(model.RunBench, "requests", "failed", "items")
	for _, res := range results {
		r.Inc("requests")
		if !res.OK() {
			r.Inc("failed")
			r.Fail("count="+strconv.Itoa(res.Count), errors.New(res.Error))
			continue
		}
		r.Add("items", res.Items)
		next := "last page"
		if res.HasNext {
			next = "has next page"
		}
		r.Notef("count=%-3d %4d items  %8s  %s  %s",
			res.Count, res.Items,
			strings.ReplaceAll(humanize.Bytes(uint64(res.Bytes)), " ", ""), //nolint:gosec // size is never negative
			res.Elapsed.Round(time.Millisecond), next)
	}
	return r
}
