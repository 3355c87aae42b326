package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/cart"
	"github.com/gaugyan/storefront/internal/config"
	"github.com/gaugyan/storefront/internal/coupon"
	"github.com/gaugyan/storefront/internal/domain"
	"github.com/gaugyan/storefront/internal/storage"
	apperrors "github.com/gaugyan/storefront/pkg/errors"
)

func main() {
	couponCode := pflag.StringP("coupon", "c", "", "price the cart as if this coupon were applied")
	asJSON := pflag.Bool("json", false, "print the raw saved blob instead of a summary")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run cmd/cart-inspect/main.go [--coupon CODE] [--json] <session-id>")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() < 1 {
		pflag.Usage()
		os.Exit(1)
	}
	sessionID := pflag.Arg(0)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	repos, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s cart store: %v\n", cfg.Cart.Store, err)
		os.Exit(1)
	}
	defer closeStore()

	key := cart.StorageKey(cfg.Cart.StorageKey, sessionID)
	blob, err := repos.CartBlobs.Get(ctx, key)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			fmt.Printf("No saved cart under %s\n", key)
			return
		}
		fmt.Fprintf(os.Stderr, "Failed to read cart: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		var pretty any
		if err := json.Unmarshal(blob, &pretty); err != nil {
			fmt.Fprintf(os.Stderr, "Saved cart is not valid JSON: %v\n", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}

	items, skipped := cart.DecodeItems(blob)

	var active *domain.Coupon
	if *couponCode != "" {
		def, ok := coupon.DefaultCatalog().Lookup(*couponCode)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown coupon %q\n", *couponCode)
			os.Exit(1)
		}
		active = &def
	}

	pricing := cart.Pricing{
		TaxRate:               cfg.Cart.TaxRate,
		ShippingFee:           cfg.Cart.ShippingFee,
		FreeShippingThreshold: cfg.Cart.FreeShippingThreshold,
	}
	totals := pricing.Compute(items, active)

	fmt.Printf("Cart %s (%s store)\n", key, cfg.Cart.Store)
	if skipped > 0 {
		fmt.Printf("%d malformed entries were skipped\n", skipped)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, group := range cart.GroupByVendor(items) {
		fmt.Fprintf(w, "%s (%s)\t\t\t\t%s\n", group.Vendor.Name, group.Vendor.ID, group.Subtotal.StringFixed(2))
		for _, item := range group.Items {
			sku := ""
			if item.Variation != nil {
				sku = item.Variation.SKU
			}
			fmt.Fprintf(w, "  %s\t%s\t%d x %s\t%s\t%s\n",
				item.ProductID, item.Snapshot.Name, item.Quantity,
				item.UnitPrice.StringFixed(2), sku, item.LineTotal().StringFixed(2))
		}
	}
	w.Flush()

	fmt.Println()
	fmt.Printf("Items:    %d\n", totals.ItemCount)
	fmt.Printf("Subtotal: %s\n", totals.Subtotal.StringFixed(2))
	if active != nil {
		fmt.Printf("Discount: -%s (%s)\n", totals.Discount.StringFixed(2), active.Code)
	}
	fmt.Printf("Tax:      %s\n", totals.Tax.StringFixed(2))
	fmt.Printf("Shipping: %s\n", totals.Shipping.StringFixed(2))
	fmt.Printf("Total:    %s\n", totals.Total.StringFixed(2))
}
