package product

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog entry offered by the business.
type Product struct {
	ID          string     `validate:"required"`
	Name        string     `validate:"required"`
	Category    Category   `validate:"category"`
	Unit        string
	Quantities  []Quantity `validate:"required,min=1,dive"`
	Images      []string   `validate:"dive,required"`
	Description string
}

// Quantity is a purchasable amount of a product and its price.
type Quantity struct {
	Label string          `validate:"required"`
	Price decimal.Decimal `validate:"gte=0"`
}

// Equal reports whether q and other describe the same option.
func (q Quantity) Equal(other Quantity) bool {
	return q.Label == other.Label && q.Price.Equal(other.Price)
}

// DisplayPrice returns the price used for listing and sorting: the price of
// the first quantity option. It returns zero for a product without options.
func (p *Product) DisplayPrice() decimal.Decimal {
	if len(p.Quantities) == 0 {
		return decimal.Zero
	}
	return p.Quantities[0].Price
}

// DefaultQuantity returns the first quantity option, or the zero Quantity
// when the product has none.
func (p *Product) DefaultQuantity() Quantity {
	if len(p.Quantities) == 0 {
		return Quantity{}
	}
	return p.Quantities[0]
}

// HasQuantity reports whether q is one of the product's options.
func (p *Product) HasQuantity(q Quantity) bool {
	_, ok := p.LookupQuantity(q)
	return ok
}

// LookupQuantity returns the product's own option equal to q.
func (p *Product) LookupQuantity(q Quantity) (Quantity, bool) {
	for _, opt := range p.Quantities {
		if opt.Equal(q) {
			return opt, true
		}
	}
	return Quantity{}, false
}
