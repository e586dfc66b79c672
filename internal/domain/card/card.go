// Package card turns a product and its UI state into a render-ready view and
// applies the UI interactions of a catalog card: image cycling and quantity
// selection.
package card

import (
	"github.com/go-faster/errors"

	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/domain/product"
)

// ErrInvalidQuantity is returned when a selected quantity is not one of the
// product's options.
var ErrInvalidQuantity = errors.New("quantity is not offered for this product")

// Option is one entry of the quantity selector.
type Option struct {
	Quantity product.Quantity
	Label    string
	Selected bool
}

// Card is the view model of one catalog entry.
type Card struct {
	Product *product.Product
	Images  []string
	// ImageIndex and CurrentImage are only meaningful when HasImages is set.
	ImageIndex   int
	CurrentImage string
	HasImages    bool
	// CanCycle reports whether previous/next image controls are shown.
	CanCycle   bool
	Selected   product.Quantity
	Price      string
	Options    []Option
	InquiryURL string
}

// Adapter renders cards and mutates UI state held in a state table.
type Adapter struct {
	states  *catalog.StateTable
	inquiry Inquiry
}

// NewAdapter creates an Adapter over states.
func NewAdapter(states *catalog.StateTable, inquiry Inquiry) *Adapter {
	return &Adapter{states: states, inquiry: inquiry}
}

// Card renders p with its current state.
func (a *Adapter) Card(p *product.Product) Card {
	return Build(p, a.states.Get(p), a.inquiry)
}

// NextImage advances the current image, wrapping to the first. It is a no-op
// for products with fewer than two images.
func (a *Adapter) NextImage(p *product.Product) catalog.UIState {
	return a.stepImage(p, 1)
}

// PrevImage moves to the previous image, wrapping to the last. It is a no-op
// for products with fewer than two images.
func (a *Adapter) PrevImage(p *product.Product) catalog.UIState {
	return a.stepImage(p, -1)
}

func (a *Adapter) stepImage(p *product.Product, delta int) catalog.UIState {
	st := a.states.Get(p)
	n := len(p.Images)
	if n <= 1 {
		return st
	}
	idx := wrap(st.CurrentImage+delta, n)
	return a.states.Set(p, catalog.StateUpdate{CurrentImage: &idx})
}

// SelectQuantity stores the option equal to q as the selected one. A q that
// is not one of p's quantities is rejected and the state is left unchanged.
func (a *Adapter) SelectQuantity(p *product.Product, q product.Quantity) (catalog.UIState, error) {
	opt, ok := p.LookupQuantity(q)
	if !ok {
		return a.states.Get(p), errors.Wrapf(ErrInvalidQuantity, "%q at %s", q.Label, q.Price)
	}
	return a.states.Set(p, catalog.StateUpdate{Selected: &opt}), nil
}

// InquiryLink returns the outbound inquiry URI for p's selected quantity.
func (a *Adapter) InquiryLink(p *product.Product) string {
	return a.inquiry.Link(p, selected(p, a.states.Get(p)))
}

// Build renders p with the given state. It does not touch any state table.
func Build(p *product.Product, st catalog.UIState, inq Inquiry) Card {
	q := selected(p, st)
	c := Card{
		Product:    p,
		Images:     p.Images,
		HasImages:  len(p.Images) > 0,
		CanCycle:   len(p.Images) > 1,
		Selected:   q,
		Price:      inq.FormatPrice(q),
		InquiryURL: inq.Link(p, q),
	}
	if c.HasImages {
		c.ImageIndex = wrap(st.CurrentImage, len(p.Images))
		c.CurrentImage = p.Images[c.ImageIndex]
	}

	c.Options = make([]Option, len(p.Quantities))
	for i, opt := range p.Quantities {
		c.Options[i] = Option{
			Quantity: opt,
			Label:    opt.Label + " - " + inq.FormatPrice(opt),
			Selected: opt.Equal(q),
		}
	}
	return c
}

// selected returns the state's quantity when it is still offered, and the
// product default otherwise.
func selected(p *product.Product, st catalog.UIState) product.Quantity {
	if p.HasQuantity(st.Selected) {
		return st.Selected
	}
	return p.DefaultQuantity()
}

// wrap maps i into [0, n) for n > 0.
func wrap(i, n int) int {
	return ((i % n) + n) % n
}
