package catalog

import (
	"sync"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// UIState is the per-product view selection of one session.
type UIState struct {
	CurrentImage int
	Selected     product.Quantity
}

// StateUpdate is a partial UIState. Nil fields are left unchanged.
type StateUpdate struct {
	CurrentImage *int
	Selected     *product.Quantity
}

// DefaultState returns the initial state for p: first image, first quantity.
func DefaultState(p *product.Product) UIState {
	return UIState{Selected: p.DefaultQuantity()}
}

// StateTable holds UI state keyed by product ID. A table belongs to a single
// catalog snapshot; it is rebuilt, not migrated, when the catalog changes.
// Entries are created on first write; reads of untouched products yield
// DefaultState.
type StateTable struct {
	snap Snapshot

	mu     sync.Mutex
	states map[string]UIState
}

// NewStateTable creates an empty table bound to snap.
func NewStateTable(snap Snapshot) *StateTable {
	return &StateTable{
		snap:   snap,
		states: make(map[string]UIState),
	}
}

// Generation returns the catalog generation the table was built for.
func (t *StateTable) Generation() uint64 {
	return t.snap.Generation
}

// Snapshot returns the catalog the table was built for. Products looked up
// in it always match the table's generation.
func (t *StateTable) Snapshot() Snapshot {
	return t.snap
}

// Len returns the number of products with stored state.
func (t *StateTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.states)
}

// Get returns the stored state for p, or its default if none is stored.
func (t *StateTable) Get(p *product.Product) UIState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.states[p.ID]; ok {
		return s
	}
	return DefaultState(p)
}

// Set merges upd into the existing (or default) state of p and returns the
// stored result.
func (t *StateTable) Set(p *product.Product, upd StateUpdate) UIState {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[p.ID]
	if !ok {
		s = DefaultState(p)
	}
	if upd.CurrentImage != nil {
		s.CurrentImage = *upd.CurrentImage
	}
	if upd.Selected != nil {
		s.Selected = *upd.Selected
	}
	if t.states == nil {
		t.states = make(map[string]UIState)
	}
	t.states[p.ID] = s
	return s
}
