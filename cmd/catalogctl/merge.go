package main

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/catalog-view/internal/domain/product"
	"github.com/xenking/catalog-view/internal/storage/feed"
)

const bloomFPR = 0.001

// duplicate is a product ID present in more than one input feed.
type duplicate struct {
	ID    string
	First int // index of the feed that owns the slot
	Later int
}

func newMergeCmd(lg *zap.Logger) *cobra.Command {
	var override bool

	cmd := &cobra.Command{
		Use:   "merge <out> <feed>...",
		Short: "Concatenate feeds into one, rejecting or overriding duplicate IDs",
		Long: `Merge reads every input feed concurrently and writes them, in argument
order, to <out>. A product ID found in more than one feed is an error unless
--override is set, in which case the later feed's record replaces the earlier
one in place. <out> is gzip-compressed when it ends in .gz.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, inputs := args[0], args[1:]

			feeds, err := loadFeeds(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			merged, dups := mergeFeeds(feeds, override)
			for _, d := range dups {
				lg.Warn("Duplicate product id",
					zap.String("id", d.ID),
					zap.String("first", inputs[d.First]),
					zap.String("later", inputs[d.Later]),
				)
			}
			if len(dups) > 0 && !override {
				return errors.Wrapf(product.ErrDuplicateID, "%d ids in more than one feed", len(dups))
			}
			if err := product.ValidateCatalog(merged); err != nil {
				return errors.Wrap(err, "validate merged catalog")
			}
			if err := feed.WriteFile(out, merged); err != nil {
				return err
			}

			lg.Info("Catalog merged",
				zap.String("out", out),
				zap.Int("feeds", len(inputs)),
				zap.Int("products", len(merged)),
				zap.Int("overridden", len(dups)),
			)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d products\n", out, len(merged))
			return nil
		},
	}
	cmd.Flags().BoolVar(&override, "override", false, "Let later feeds replace products with the same id")
	return cmd
}

// loadFeeds fetches every location concurrently, keeping argument order.
func loadFeeds(ctx context.Context, locations []string) ([][]product.Product, error) {
	feeds := make([][]product.Product, len(locations))

	g, ctx := errgroup.WithContext(ctx)
	for i, loc := range locations {
		g.Go(func() error {
			products, err := loadFeed(ctx, loc)
			if err != nil {
				return errors.Wrapf(err, "load %s", loc)
			}
			feeds[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feeds, nil
}

// feedIndex answers membership for one feed. The bloom filter screens
// lookups; the exact index is only built once a lookup passes the filter.
type feedIndex struct {
	products []product.Product
	filter   *bloom.BloomFilter
	exact    map[string]int
}

func newFeedIndex(products []product.Product) *feedIndex {
	filter := bloom.NewWithEstimates(uint(max(len(products), 1)), bloomFPR)
	for i := range products {
		filter.AddString(products[i].ID)
	}
	return &feedIndex{products: products, filter: filter}
}

func (f *feedIndex) lookup(id string) (int, bool) {
	if !f.filter.TestString(id) {
		return 0, false
	}
	if f.exact == nil {
		f.exact = make(map[string]int, len(f.products))
		for i := range f.products {
			f.exact[f.products[i].ID] = i
		}
	}
	i, ok := f.exact[id]
	return i, ok
}

// mergeFeeds concatenates feeds in order. Each duplicate ID keeps the
// position of its first occurrence; with override the latest record is
// stored there, otherwise the first one is.
func mergeFeeds(feeds [][]product.Product, override bool) ([]product.Product, []duplicate) {
	indexes := make([]*feedIndex, len(feeds))
	for i, products := range feeds {
		indexes[i] = newFeedIndex(products)
	}

	var dups []duplicate
	skip := make([][]bool, len(feeds))
	for j := range feeds {
		skip[j] = make([]bool, len(feeds[j]))
		for k := range feeds[j] {
			id := feeds[j][k].ID
			for i := range j {
				pos, ok := indexes[i].lookup(id)
				if !ok {
					continue
				}
				dups = append(dups, duplicate{ID: id, First: i, Later: j})
				if override {
					feeds[i][pos] = feeds[j][k]
				}
				skip[j][k] = true
				break
			}
		}
	}

	var merged []product.Product
	for j := range feeds {
		for k := range feeds[j] {
			if !skip[j][k] {
				merged = append(merged, feeds[j][k])
			}
		}
	}
	if merged == nil {
		merged = []product.Product{}
	}
	return merged, dups
}
