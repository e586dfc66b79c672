package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, category, unit, description, images
		FROM products ORDER BY position, id`

	listQuantitiesSQL = `SELECT product_id, label, price
		FROM product_quantities ORDER BY product_id, position`

	upsertProductSQL = `INSERT INTO products (id, position, name, category, unit, description, images, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			unit = EXCLUDED.unit,
			description = EXCLUDED.description,
			images = EXCLUDED.images,
			updated_at = now()`

	deleteQuantitiesSQL = `DELETE FROM product_quantities WHERE product_id = $1`

	deleteMissingSQL = `DELETE FROM products WHERE NOT (id = ANY($1))`
)

var _ catalog.Source = (*ProductStore)(nil)

// ProductStore reads and writes catalog products.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore returns a ProductStore that uses the given pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// Fetch returns the catalog in its stored order.
func (s *ProductStore) Fetch(ctx context.Context) ([]product.Product, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}

	rows, err = tx.Query(ctx, listQuantitiesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list quantities")
	}
	quantities := make(map[string][]product.Quantity, len(products))
	var (
		id    string
		q     product.Quantity
		price decimal.Decimal
	)
	if _, err := pgx.ForEachRow(rows, []any{&id, &q.Label, &price}, func() error {
		q.Price = price
		quantities[id] = append(quantities[id], q)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "scan quantities")
	}

	for i := range products {
		products[i].Quantities = quantities[products[i].ID]
	}
	return products, nil
}

// Replace stores products as the whole catalog, preserving their order.
// Products not in the list are removed.
func (s *ProductStore) Replace(ctx context.Context, products []product.Product) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		ids := make([]string, len(products))
		batch := &pgx.Batch{}
		for i, p := range products {
			ids[i] = p.ID
			images := p.Images
			if images == nil {
				images = []string{}
			}
			batch.Queue(upsertProductSQL,
				p.ID, i, p.Name, string(p.Category), p.Unit, p.Description, images)
			batch.Queue(deleteQuantitiesSQL, p.ID)
		}
		batch.Queue(deleteMissingSQL, ids)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "upsert products")
		}

		var rows [][]any
		for _, p := range products {
			for pos, q := range p.Quantities {
				rows = append(rows, []any{p.ID, pos, q.Label, q.Price})
			}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"product_quantities"},
			[]string{"product_id", "position", "label", "price"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return errors.Wrap(err, "copy quantities")
		}
		return nil
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		category string
	)
	if err := row.Scan(&p.ID, &p.Name, &category, &p.Unit, &p.Description, &p.Images); err != nil {
		return product.Product{}, err
	}
	p.Category = product.Category(category)
	return p, nil
}
