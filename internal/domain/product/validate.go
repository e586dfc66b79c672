package product

import (
	"fmt"
	"reflect"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrDuplicateID is returned when two products in one catalog share an ID.
var ErrDuplicateID = errors.New("duplicate product id")

// InvalidProductError reports a catalog record that failed validation.
type InvalidProductError struct {
	Index int
	ID    string
	Err   error
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("product #%d (id %q): %v", e.Index, e.ID, e.Err)
}

func (e *InvalidProductError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := LookupCategory(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks a single product record.
func Validate(p *Product) error {
	return validate.Struct(p)
}

// ValidateCatalog checks every product and the uniqueness of IDs. The first
// failing record is reported as an *InvalidProductError.
func ValidateCatalog(products []Product) error {
	seen := make(map[string]int, len(products))
	for i := range products {
		p := &products[i]
		if err := Validate(p); err != nil {
			return &InvalidProductError{Index: i, ID: p.ID, Err: err}
		}
		if first, ok := seen[p.ID]; ok {
			return &InvalidProductError{
				Index: i,
				ID:    p.ID,
				Err:   errors.Wrapf(ErrDuplicateID, "first seen at #%d", first),
			}
		}
		seen[p.ID] = i
	}
	return nil
}
