//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/catalog-view/internal/domain/product"
)

func setupPool(t *testing.T) *ProductStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx,
		"postgres:17.5-alpine",
		tcpostgres.WithDatabase("catalog"),
		tcpostgres.WithUsername("catalog"),
		tcpostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations are idempotent")

	return NewProductStore(pool)
}

func TestProductStore(t *testing.T) {
	s := setupPool(t)
	ctx := t.Context()

	empty, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	catalog := []product.Product{
		{
			ID:       "z-first",
			Name:     "Zeta",
			Category: product.CategoryTax,
			Unit:     "filing",
			Quantities: []product.Quantity{
				{Label: "1 filing", Price: decimal.RequireFromString("1499.50")},
				{Label: "3 filings", Price: decimal.NewFromInt(3999)},
			},
			Images: []string{"a.png", "b.png"},
		},
		{
			ID:         "a-second",
			Name:       "Alpha",
			Category:   product.CategoryWeb,
			Quantities: []product.Quantity{{Label: "1", Price: decimal.Zero}},
		},
	}
	require.NoError(t, s.Replace(ctx, catalog))

	got, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "z-first", got[0].ID, "stored order is preserved")
	assert.Equal(t, []string{"a.png", "b.png"}, got[0].Images)
	require.Len(t, got[0].Quantities, 2)
	assert.Equal(t, "1 filing", got[0].Quantities[0].Label)
	assert.True(t, got[0].Quantities[0].Price.Equal(decimal.RequireFromString("1499.5")))
	assert.Empty(t, got[1].Images)
	require.NoError(t, product.ValidateCatalog(got))

	// Replacing drops products that are no longer listed.
	require.NoError(t, s.Replace(ctx, catalog[1:]))
	got, err = s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a-second", got[0].ID)
}
