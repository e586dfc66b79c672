// Package query computes the visible page of the catalog: filter, stable
// sort and fixed-size pagination over an immutable product list.
package query

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// Result is one page of the filtered and sorted catalog.
type Result struct {
	Items []product.Product
	// Total is the number of products matching the filter.
	Total      int
	Page       int
	TotalPages int
}

// Run filters, sorts and paginates products. It never modifies products and
// returns the same result for the same input. Pages outside
// [1, TotalPages] yield no items; an empty match yields TotalPages 0.
func Run(products []product.Product, p Params) Result {
	matched := Filter(products, p.Search, p.Category)
	SortProducts(matched, p.Sort)

	return Result{
		Items:      Paginate(matched, p.Page),
		Total:      len(matched),
		Page:       p.Page,
		TotalPages: TotalPages(len(matched)),
	}
}

// Filter returns the products whose name contains search (ignoring case)
// and whose category equals category (ignoring case). Empty search or an
// empty or "all" category disable the respective condition. The result is a
// new slice in input order.
func Filter(products []product.Product, search string, category product.Category) []product.Product {
	if category.Matches(product.CategoryAll) {
		category = ""
	}
	needle := strings.ToLower(search)

	out := make([]product.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if category != "" && !category.Matches(p.Category) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// SortProducts orders products in place. The sort is stable for every key;
// an unrecognised key leaves the order unchanged.
func SortProducts(products []product.Product, by Sort) {
	switch by {
	case "", SortName:
		c := collate.New(language.English)
		slices.SortStableFunc(products, func(a, b product.Product) int {
			return c.CompareString(a.Name, b.Name)
		})
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b product.Product) int {
			return a.DisplayPrice().Cmp(b.DisplayPrice())
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b product.Product) int {
			return b.DisplayPrice().Cmp(a.DisplayPrice())
		})
	}
}

// Paginate returns the 1-based page of products. Out-of-range pages,
// including pages below 1, yield an empty slice.
func Paginate(products []product.Product, page int) []product.Product {
	if page < 1 || page-1 >= TotalPages(len(products)) {
		return []product.Product{}
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(products))
	return products[start:end]
}

// TotalPages returns ceil(n / PageSize).
func TotalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}
