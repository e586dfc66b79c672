package query

import (
	"net/url"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// Sort selects the catalog ordering.
type Sort string

// Supported orderings.
const (
	SortName      Sort = "name"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
)

// PageSize is the number of products per catalog page.
const PageSize = 25

var (
	// ErrInvalidSort is returned for an unsupported sort key.
	ErrInvalidSort = errors.New("invalid sort")
	// ErrUnknownCategory is returned for a category outside the vocabulary.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidPage is returned when the page parameter is not an integer.
	ErrInvalidPage = errors.New("invalid page")
)

// Params determines one view of the catalog.
type Params struct {
	// Search is matched as a case-insensitive substring of the name. It is
	// not trimmed.
	Search string
	// Category filters by category code; empty means no filter.
	Category product.Category
	Sort     Sort
	// Page is 1-based.
	Page int
}

// DefaultParams returns the initial catalog view: everything, by name, page 1.
func DefaultParams() Params {
	return Params{Sort: SortName, Page: 1}
}

// ParseSort validates s. The empty string selects SortName.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "", SortName:
		return SortName, nil
	case SortPriceAsc, SortPriceDesc:
		return Sort(s), nil
	default:
		return "", errors.Wrapf(ErrInvalidSort, "%q", s)
	}
}

// ParseCategory resolves a filter selection. Both the empty string and the
// "all" sentinel mean no filter and yield the empty Category.
func ParseCategory(s string) (product.Category, error) {
	if s == "" || product.CategoryAll.Matches(product.Category(s)) {
		return "", nil
	}
	c, ok := product.LookupCategory(s)
	if !ok {
		return "", errors.Wrapf(ErrUnknownCategory, "%q", s)
	}
	return c, nil
}

// ParseParams reads q, category, sort and page from URL query values,
// applying defaults for absent keys.
func ParseParams(v url.Values) (Params, error) {
	p := DefaultParams()
	p.Search = v.Get("q")

	var err error
	if p.Category, err = ParseCategory(v.Get("category")); err != nil {
		return Params{}, err
	}
	if p.Sort, err = ParseSort(v.Get("sort")); err != nil {
		return Params{}, err
	}
	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, errors.Wrapf(ErrInvalidPage, "%q", raw)
		}
		p.Page = n
	}
	return p, nil
}

// Values encodes p back into URL query values, omitting defaults.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Search != "" {
		v.Set("q", p.Search)
	}
	if p.Category != "" {
		v.Set("category", string(p.Category))
	}
	if p.Sort != "" && p.Sort != SortName {
		v.Set("sort", string(p.Sort))
	}
	if p.Page != 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}
