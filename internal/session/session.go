// Package session keeps per-visitor UI state tables keyed by an opaque
// session ID.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/catalog-view/internal/domain/catalog"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

type entry struct {
	table    *catalog.StateTable
	lastSeen time.Time
}

// Registry maps session IDs to state tables of the current catalog
// generation. A table built for an older generation is replaced on access.
type Registry struct {
	store *catalog.Store
	ttl   time.Duration
	now   func() time.Time
	lg    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

// NewRegistry creates a Registry over store. A non-positive ttl selects
// DefaultTTL.
func NewRegistry(store *catalog.Store, ttl time.Duration, lg *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Registry{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		lg:       lg,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// New allocates a session bound to the current catalog and returns its ID
// and state table.
func (r *Registry) New() (uuid.UUID, *catalog.StateTable) {
	id := uuid.New()
	table := catalog.NewStateTable(r.store.Snapshot())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = &entry{table: table, lastSeen: r.now()}
	return id, table
}

// Lookup returns the state table of a session issued by New, rebuilding it
// when the catalog was reloaded since. IDs that were never issued, or have
// expired, are not registered and report false.
func (r *Registry) Lookup(id uuid.UUID) (*catalog.StateTable, bool) {
	snap := r.store.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if e.table.Generation() < snap.Generation {
		e.table = catalog.NewStateTable(snap)
	}
	e.lastSeen = r.now()
	return e.table, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Evict removes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Evict(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) >= r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every half TTL until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := r.Evict(now); n > 0 {
				r.lg.Debug("Evicted idle sessions", zap.Int("count", n), zap.Int("live", r.Len()))
			}
		}
	}
}
