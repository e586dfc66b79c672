// Command catalogctl inspects, validates and publishes catalog feeds.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/domain/product"
	"github.com/xenking/catalog-view/internal/storage/feed"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := newRootCmd(lg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(lg *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Inspect, validate and publish catalog feeds",
		SilenceUsage: true,
	}
	root.AddCommand(
		newQueryCmd(),
		newValidateCmd(),
		newInquiryCmd(),
		newMergeCmd(lg),
		newSeedCmd(lg),
	)
	return root
}

// openFeed returns the source for a file path or an http(s) URL.
func openFeed(location string) catalog.Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return feed.NewHTTPSource(location, 30*time.Second)
	}
	return feed.NewFileSource(location)
}

// loadFeed fetches and validates a feed.
func loadFeed(ctx context.Context, location string) ([]product.Product, error) {
	products, err := openFeed(location).Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := product.ValidateCatalog(products); err != nil {
		return nil, err
	}
	return products, nil
}
