// Package feed reads the static catalog feed: a JSON array of product
// records served from a file or an HTTP endpoint.
package feed

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/catalog-view/internal/domain/product"
)

const decodeBufSize = 32 * 1024

// Decode reads a catalog feed from r. Records are normalized but not
// validated: a legacy single "image" becomes a one-element image list and
// known category codes are canonicalized.
func Decode(r io.Reader) ([]product.Product, error) {
	return decodeFeed(jx.Decode(r, decodeBufSize))
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) ([]product.Product, error) {
	return decodeFeed(jx.DecodeBytes(data))
}

func decodeFeed(d *jx.Decoder) ([]product.Product, error) {
	products := []product.Product{}
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "record #%d", len(products))
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode feed")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var (
		p         product.Product
		image     string
		hasImages bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = decodeID(d)
		case "name":
			p.Name, err = optString(d)
		case "category":
			var s string
			s, err = optString(d)
			p.Category = product.Category(s)
			if c, ok := product.LookupCategory(s); ok {
				p.Category = c
			}
		case "unit":
			p.Unit, err = optString(d)
		case "description":
			p.Description, err = optString(d)
		case "quantities":
			p.Quantities, err = decodeQuantities(d)
		case "image":
			image, err = optString(d)
		case "images":
			if d.Next() == jx.Null {
				return d.Null()
			}
			hasImages = true
			p.Images = []string{}
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				p.Images = append(p.Images, s)
				return nil
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}

	if !hasImages && image != "" {
		p.Images = []string{image}
	}
	return p, nil
}

func decodeQuantities(d *jx.Decoder) ([]product.Quantity, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []product.Quantity
	err := d.Arr(func(d *jx.Decoder) error {
		var q product.Quantity
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "quantity":
				q.Label, err = decodeLabel(d)
			case "price":
				q.Price, err = decodePrice(d)
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "quantity #%d", len(out))
		}
		out = append(out, q)
		return nil
	})
	return out, err
}

// decodeID accepts string and numeric identifiers.
func decodeID(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		return n.String(), err
	}
	return optString(d)
}

// decodeLabel accepts a quantity label written as a string or a bare number.
func decodeLabel(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		return n.String(), err
	}
	return optString(d)
}

// decodePrice keeps the exact decimal value of the JSON number.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		return decimal.Zero, errors.Errorf("price must be a number, got %s", d.Next())
	}
	return decimal.NewFromString(raw)
}

func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
