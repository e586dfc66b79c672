package feed

import (
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// Encode writes products as a feed document. Prices are written as exact
// JSON numbers.
func Encode(w io.Writer, products []product.Product) error {
	e := jx.NewStreamingEncoder(w, decodeBufSize)
	e.ArrStart()
	for i := range products {
		encodeProduct(e, &products[i])
	}
	e.ArrEnd()
	return e.Close()
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(string(p.Category)) })
		if p.Unit != "" {
			e.Field("unit", func(e *jx.Encoder) { e.Str(p.Unit) })
		}
		if p.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		}
		e.Field("quantities", func(e *jx.Encoder) {
			e.ArrStart()
			for _, q := range p.Quantities {
				e.Obj(func(e *jx.Encoder) {
					e.Field("quantity", func(e *jx.Encoder) { e.Str(q.Label) })
					e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(q.Price.String())) })
				})
			}
			e.ArrEnd()
		})
		e.Field("images", func(e *jx.Encoder) {
			e.ArrStart()
			for _, img := range p.Images {
				e.Str(img)
			}
			e.ArrEnd()
		})
	})
}

// WriteFile encodes products to path, gzip-compressed when path ends in
// ".gz".
func WriteFile(path string, products []product.Product) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return Encode(f, products)
	}
	gz := pgzip.NewWriter(f)
	if err := Encode(gz, products); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush gzip")
	}
	return nil
}
