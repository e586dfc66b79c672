package card

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// Inquiry configures the outbound messaging link.
type Inquiry struct {
	// BaseURL is the messaging endpoint, e.g. https://wa.me/+15550100.
	BaseURL string
	// Currency is prepended to prices in messages and labels.
	Currency string
}

// DefaultInquiry returns the link settings used by the storefront.
func DefaultInquiry() Inquiry {
	return Inquiry{
		BaseURL:  "https://wa.me/+919790813661",
		Currency: "₹",
	}
}

// FormatPrice renders q's price with the currency symbol.
func (i Inquiry) FormatPrice(q product.Quantity) string {
	return i.Currency + q.Price.String()
}

// Message returns the pre-filled inquiry text for p at quantity q.
func (i Inquiry) Message(p *product.Product, q product.Quantity) string {
	return fmt.Sprintf("Hey! I'm interested in %s - %s at %s", p.Name, q.Label, i.FormatPrice(q))
}

// Link builds the inquiry URI for p at quantity q. The message is placed in
// the text query parameter, percent-encoded like encodeURIComponent.
func (i Inquiry) Link(p *product.Product, q product.Quantity) string {
	sep := "?"
	if strings.Contains(i.BaseURL, "?") {
		sep = "&"
	}
	return i.BaseURL + sep + "text=" + EscapeComponent(i.Message(p, q))
}

// componentUnescape restores the characters encodeURIComponent leaves as-is
// but url.QueryEscape encodes.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent percent-encodes s with the unreserved set of
// encodeURIComponent: A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func EscapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
