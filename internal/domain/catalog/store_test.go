package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/catalog-view/internal/domain/product"
)

func newTestProduct(id, name string, prices ...int64) product.Product {
	qs := make([]product.Quantity, len(prices))
	for i, p := range prices {
		qs[i] = product.Quantity{Label: "opt" + decimal.NewFromInt(int64(i)).String(), Price: decimal.NewFromInt(p)}
	}
	return product.Product{
		ID:         id,
		Name:       name,
		Category:   product.CategoryGST,
		Quantities: qs,
		Images:     []string{"a.png", "b.png"},
	}
}

func TestStore_EmptyBeforeLoad(t *testing.T) {
	s := NewStore()

	assert.Equal(t, 0, s.Snapshot().Len())
	assert.Equal(t, uint64(0), s.Generation())
	assert.Equal(t, UIState{}, s.UIState("missing"))

	_, err := s.Product("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetUIState("missing", StateUpdate{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadCreatesDefaultState(t *testing.T) {
	s := NewStore()
	s.Load([]product.Product{
		newTestProduct("p1", "Filing", 500, 900),
		newTestProduct("p2", "Setup", 1000),
	})

	assert.Equal(t, uint64(1), s.Generation())
	require.Equal(t, 2, s.Snapshot().Len())

	st := s.UIState("p1")
	assert.Equal(t, 0, st.CurrentImage)
	assert.Equal(t, "opt0", st.Selected.Label)
	assert.True(t, decimal.NewFromInt(500).Equal(st.Selected.Price))

	p, err := s.Product("p2")
	require.NoError(t, err)
	assert.Equal(t, "Setup", p.Name)
}

func TestStore_SetUIStateMerges(t *testing.T) {
	s := NewStore()
	s.Load([]product.Product{newTestProduct("p1", "Filing", 500, 900)})

	idx := 1
	st, err := s.SetUIState("p1", StateUpdate{CurrentImage: &idx})
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentImage)
	assert.Equal(t, "opt0", st.Selected.Label, "untouched field keeps its value")

	q := product.Quantity{Label: "opt1", Price: decimal.NewFromInt(900)}
	st, err = s.SetUIState("p1", StateUpdate{Selected: &q})
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentImage)
	assert.Equal(t, q, st.Selected)

	assert.Equal(t, st, s.UIState("p1"))
}

func TestStore_ReloadDiscardsState(t *testing.T) {
	s := NewStore()
	s.Load([]product.Product{newTestProduct("p1", "Filing", 500)})

	idx := 1
	_, err := s.SetUIState("p1", StateUpdate{CurrentImage: &idx})
	require.NoError(t, err)

	s.Load([]product.Product{newTestProduct("p1", "Filing", 500)})
	assert.Equal(t, 0, s.UIState("p1").CurrentImage)
	assert.Equal(t, uint64(2), s.Generation())
}

func TestStore_LoadCopiesInput(t *testing.T) {
	in := []product.Product{newTestProduct("p1", "Filing", 500)}
	s := NewStore()
	s.Load(in)

	in[0].Name = "mutated"
	p, err := s.Product("p1")
	require.NoError(t, err)
	assert.Equal(t, "Filing", p.Name)
}

func TestStore_LastWriteWins(t *testing.T) {
	s := NewStore()

	older := s.BeginLoad()
	newer := s.BeginLoad()

	require.True(t, s.CommitLoad(newer, []product.Product{newTestProduct("new", "New", 1)}))
	assert.False(t, s.CommitLoad(older, []product.Product{newTestProduct("old", "Old", 1)}),
		"stale load must be ignored")

	_, err := s.Product("new")
	require.NoError(t, err)
	_, err = s.Product("old")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, uint64(1), s.Generation())
}

func TestStore_InOrderCommitsBothApply(t *testing.T) {
	s := NewStore()

	first := s.BeginLoad()
	second := s.BeginLoad()

	require.True(t, s.CommitLoad(first, []product.Product{newTestProduct("a", "A", 1)}))
	require.True(t, s.CommitLoad(second, []product.Product{newTestProduct("b", "B", 1)}))
	assert.Equal(t, uint64(2), s.Generation())

	_, err := s.Product("b")
	require.NoError(t, err)
}

func TestStateTable_DefaultForUnknown(t *testing.T) {
	tbl := NewStateTable(Snapshot{})
	p := newTestProduct("p1", "Filing", 700)

	st := tbl.Get(&p)
	assert.Equal(t, 0, st.CurrentImage)
	assert.True(t, decimal.NewFromInt(700).Equal(st.Selected.Price))

	idx := 1
	st = tbl.Set(&p, StateUpdate{CurrentImage: &idx})
	assert.Equal(t, 1, st.CurrentImage)
	assert.Equal(t, 1, tbl.Get(&p).CurrentImage)
}

func TestSnapshot_ProductIsStable(t *testing.T) {
	s := NewStore()
	s.Load([]product.Product{newTestProduct("p1", "Filing", 500)})
	old := s.Snapshot()

	s.Load([]product.Product{newTestProduct("p1", "Filing v2", 600), newTestProduct("p2", "Setup", 1)})

	p, err := old.Product("p1")
	require.NoError(t, err)
	assert.Equal(t, "Filing", p.Name, "old snapshot keeps its own products")
	_, err = old.Product("p2")
	require.ErrorIs(t, err, ErrNotFound)

	p, err = s.Snapshot().Product("p1")
	require.NoError(t, err)
	assert.Equal(t, "Filing v2", p.Name)
	assert.Equal(t, s.Generation(), s.States().Snapshot().Generation)
}

func TestSnapshot_ProductWithoutIndex(t *testing.T) {
	snap := Snapshot{Products: []product.Product{newTestProduct("p1", "Filing", 1)}}

	p, err := snap.Product("p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	_, err = snap.Product("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStateTable_EntriesCreatedOnWrite(t *testing.T) {
	s := NewStore()
	s.Load([]product.Product{
		newTestProduct("p1", "Filing", 500),
		newTestProduct("p2", "Setup", 1000),
	})
	tbl := NewStateTable(s.Snapshot())
	assert.Equal(t, 0, tbl.Len())

	p, err := tbl.Snapshot().Product("p1")
	require.NoError(t, err)
	assert.Equal(t, DefaultState(p), tbl.Get(p))
	assert.Equal(t, 0, tbl.Len(), "reads do not allocate entries")

	idx := 1
	tbl.Set(p, StateUpdate{CurrentImage: &idx})
	assert.Equal(t, 1, tbl.Len())
}
