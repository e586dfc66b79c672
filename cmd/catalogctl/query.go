package main

import (
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/catalog-view/internal/domain/card"
	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/domain/product"
	"github.com/xenking/catalog-view/internal/domain/query"
)

func newQueryCmd() *cobra.Command {
	var search, category, sort string
	var page int

	cmd := &cobra.Command{
		Use:   "query <feed>",
		Short: "Print one page of a feed as the catalog would show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := query.ParseParams(url.Values{
				"q":        {search},
				"category": {category},
				"sort":     {sort},
				"page":     {strconv.Itoa(page)},
			})
			if err != nil {
				return err
			}
			products, err := loadFeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			res := query.Run(products, params)
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tFROM")
			inq := card.DefaultInquiry()
			for i := range res.Items {
				p := &res.Items[i]
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					p.ID, p.Name, p.Category.DisplayName(), inq.FormatPrice(p.DefaultQuantity()))
			}
			if err := tw.Flush(); err != nil {
				return errors.Wrap(err, "write table")
			}
			_, _ = fmt.Fprintf(out, "page %d of %d, %d matching\n", res.Page, res.TotalPages, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "Case-insensitive name search")
	cmd.Flags().StringVarP(&category, "category", "c", string(product.CategoryAll), "Category code")
	cmd.Flags().StringVarP(&sort, "sort", "s", string(query.SortName), "name, price-asc or price-desc")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "1-based page number")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <feed>...",
		Short: "Check feeds for malformed records and duplicate IDs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, loc := range args {
				products, err := loadFeed(cmd.Context(), loc)
				if err != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", loc, err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d products\n", loc, len(products))
			}
			if failed > 0 {
				return errors.Errorf("%d of %d feeds invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newInquiryCmd() *cobra.Command {
	var label, price string
	inq := card.DefaultInquiry()

	cmd := &cobra.Command{
		Use:   "inquiry <feed> <product-id>",
		Short: "Print the inquiry link of a product",
		Long: `Inquiry prints the messaging link for a product at its first quantity
option, or at the option given by --quantity and --price. Without --price the
option's listed price for that label is used.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := loadFeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			store := catalog.NewStore()
			store.Load(products)

			p, err := store.Product(args[1])
			if err != nil {
				return errors.Wrapf(err, "%q", args[1])
			}
			a := card.NewAdapter(store.States(), inq)
			if label != "" {
				q, err := requestedQuantity(p, label, price)
				if err != nil {
					return err
				}
				if _, err := a.SelectQuantity(p, q); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.InquiryLink(p))
			return err
		},
	}
	cmd.Flags().StringVar(&label, "quantity", "", "Quantity label; defaults to the first option")
	cmd.Flags().StringVar(&price, "price", "", "Price of the quantity option; defaults to its listed price")
	cmd.Flags().StringVar(&inq.BaseURL, "base-url", inq.BaseURL, "Messaging endpoint")
	cmd.Flags().StringVar(&inq.Currency, "currency", inq.Currency, "Currency symbol")
	return cmd
}

// requestedQuantity builds the option named on the command line. A missing
// price is taken from the first option with the same label; the adapter
// still checks the pair against the product's options.
func requestedQuantity(p *product.Product, label, price string) (product.Quantity, error) {
	q := product.Quantity{Label: label}
	if price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return product.Quantity{}, errors.Wrapf(err, "parse price %q", price)
		}
		q.Price = d
		return q, nil
	}
	for _, opt := range p.Quantities {
		if opt.Label == label {
			return opt, nil
		}
	}
	return product.Quantity{}, errors.Wrapf(card.ErrInvalidQuantity, "%q", label)
}
