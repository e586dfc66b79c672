package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/catalog-view/internal/domain/card"
	"github.com/xenking/catalog-view/internal/domain/product"
	"github.com/xenking/catalog-view/internal/domain/query"
)

func writeJSON(w http.ResponseWriter, code int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func encodePage(e *jx.Encoder, p query.Params, res query.Result, cards []card.Card) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for i := range cards {
				encodeCard(e, &cards[i])
			}
			e.ArrEnd()
		})
		e.Field("total", func(e *jx.Encoder) { e.Int(res.Total) })
		e.Field("page", func(e *jx.Encoder) { e.Int(res.Page) })
		e.Field("totalPages", func(e *jx.Encoder) { e.Int(res.TotalPages) })
		e.Field("pageSize", func(e *jx.Encoder) { e.Int(query.PageSize) })
		e.Field("links", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("self", func(e *jx.Encoder) { e.Str(pageLink(p, res.Page)) })
				if res.TotalPages > 0 && res.Page > 1 {
					prev := min(res.Page-1, res.TotalPages)
					e.Field("prev", func(e *jx.Encoder) { e.Str(pageLink(p, prev)) })
				}
				if res.Page < res.TotalPages {
					next := max(res.Page+1, 1)
					e.Field("next", func(e *jx.Encoder) { e.Str(pageLink(p, next)) })
				}
			})
		})
		e.Field("query", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("q", func(e *jx.Encoder) { e.Str(p.Search) })
				category := product.CategoryAll
				if p.Category != "" {
					category = p.Category
				}
				e.Field("category", func(e *jx.Encoder) { e.Str(string(category)) })
				e.Field("sort", func(e *jx.Encoder) { e.Str(string(p.Sort)) })
			})
		})
	})
}

// pageLink returns the catalog URL of page under the same filters and sort.
func pageLink(p query.Params, page int) string {
	p.Page = page
	v := p.Values()
	if len(v) == 0 {
		return catalogPath
	}
	return catalogPath + "?" + v.Encode()
}

func encodeCategories(e *jx.Encoder, cats []product.CategoryInfo) {
	e.ArrStart()
	for _, c := range cats {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(string(c.Code)) })
			e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		})
	}
	e.ArrEnd()
}

func encodeQuantity(e *jx.Encoder, q product.Quantity) {
	e.FieldStart("quantity")
	e.Str(q.Label)
	e.FieldStart("price")
	e.Num(jx.Num(q.Price.String()))
}

func encodeCard(e *jx.Encoder, c *card.Card) {
	p := c.Product
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(string(p.Category)) })
		e.Field("categoryName", func(e *jx.Encoder) { e.Str(p.Category.DisplayName()) })
		if p.Unit != "" {
			e.Field("unit", func(e *jx.Encoder) { e.Str(p.Unit) })
		}
		if p.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		}
		e.Field("images", func(e *jx.Encoder) {
			e.ArrStart()
			for _, img := range c.Images {
				e.Str(img)
			}
			e.ArrEnd()
		})
		if c.HasImages {
			e.Field("imageIndex", func(e *jx.Encoder) { e.Int(c.ImageIndex) })
			e.Field("currentImage", func(e *jx.Encoder) { e.Str(c.CurrentImage) })
		}
		e.Field("canCycle", func(e *jx.Encoder) { e.Bool(c.CanCycle) })
		e.Field("selected", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) { encodeQuantity(e, c.Selected) })
		})
		e.Field("price", func(e *jx.Encoder) { e.Str(c.Price) })
		e.Field("options", func(e *jx.Encoder) {
			e.ArrStart()
			for _, opt := range c.Options {
				e.Obj(func(e *jx.Encoder) {
					encodeQuantity(e, opt.Quantity)
					e.Field("label", func(e *jx.Encoder) { e.Str(opt.Label) })
					e.Field("selected", func(e *jx.Encoder) { e.Bool(opt.Selected) })
				})
			}
			e.ArrEnd()
		})
		e.Field("inquiryUrl", func(e *jx.Encoder) { e.Str(c.InquiryURL) })
	})
}

// decodeQuantity reads {"quantity": "...", "price": 123.45}. The price may
// also be given as a string.
func decodeQuantity(r io.Reader) (product.Quantity, error) {
	var (
		q        product.Quantity
		hasLabel bool
		hasPrice bool
	)
	d := jx.Decode(r, 512)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "quantity":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			q.Label, hasLabel = s, true
		case "price":
			var raw string
			switch d.Next() {
			case jx.Number:
				n, err := d.Num()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				raw = n.String()
			case jx.String:
				s, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				raw = s
			default:
				return errors.New("price must be a number")
			}
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			q.Price, hasPrice = price, true
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return product.Quantity{}, err
	}
	if !hasLabel || !hasPrice {
		return product.Quantity{}, errors.New("quantity and price are required")
	}
	return q, nil
}
