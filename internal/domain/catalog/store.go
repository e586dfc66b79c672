// Package catalog holds the loaded product catalog and per-product UI state.
package catalog

import (
	"slices"
	"sync"

	"github.com/xenking/catalog-view/internal/domain/product"
)

// ErrNotFound is returned when a product ID is not in the current catalog.
var ErrNotFound = product.ErrNotFound

// Snapshot is an immutable view of the catalog at one generation. Callers
// must not modify Products.
type Snapshot struct {
	Products   []product.Product
	Generation uint64

	index map[string]int
}

// Len returns the number of products in the snapshot.
func (s Snapshot) Len() int { return len(s.Products) }

// Product returns the product with the given ID as of this snapshot.
func (s Snapshot) Product(id string) (*product.Product, error) {
	if s.index == nil {
		for i := range s.Products {
			if s.Products[i].ID == id {
				return &s.Products[i], nil
			}
		}
		return nil, ErrNotFound
	}
	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s.Products[i], nil
}

// LoadTicket identifies a load started with BeginLoad.
type LoadTicket uint64

// Store is the authoritative catalog: the indexed product list and a
// default UI state table. The catalog is only ever replaced as a whole.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	state     *StateTable
	issued    LoadTicket
	committed LoadTicket
}

// NewStore returns an empty store. Queries against it yield empty results.
func NewStore() *Store {
	s := &Store{snap: Snapshot{index: map[string]int{}}}
	s.state = NewStateTable(s.snap)
	return s
}

// Load replaces the catalog with products and resets all UI state.
func (s *Store) Load(products []product.Product) {
	s.CommitLoad(s.BeginLoad(), products)
}

// BeginLoad reserves a ticket for a load whose data is not fetched yet.
func (s *Store) BeginLoad() LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	return s.issued
}

// CommitLoad installs products fetched under ticket t. The commit is dropped,
// and false returned, when a load started later has already been committed.
func (s *Store) CommitLoad(t LoadTicket, products []product.Product) bool {
	products = slices.Clone(products)
	index := make(map[string]int, len(products))
	for i := range products {
		index[products[i].ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t <= s.committed {
		return false
	}
	s.committed = t
	s.snap = Snapshot{
		Products:   products,
		Generation: s.snap.Generation + 1,
		index:      index,
	}
	s.state = NewStateTable(s.snap)
	return true
}

// Snapshot returns the current catalog.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap
}

// Generation returns the number of loads committed so far.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Generation
}

// Product returns the product with the given ID.
func (s *Store) Product(id string) (*product.Product, error) {
	return s.Snapshot().Product(id)
}

// States returns the store-owned UI state table of the current generation.
func (s *Store) States() *StateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// UIState returns the stored UI state for the product, fabricating the
// default when absent. An unknown ID yields the zero UIState.
func (s *Store) UIState(id string) UIState {
	p, err := s.Product(id)
	if err != nil {
		return UIState{}
	}
	return s.States().Get(p)
}

// SetUIState merges upd into the product's UI state.
func (s *Store) SetUIState(id string, upd StateUpdate) (UIState, error) {
	p, err := s.Product(id)
	if err != nil {
		return UIState{}, err
	}
	return s.States().Set(p, upd), nil
}
