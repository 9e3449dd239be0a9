package corpus

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Store is an immutable, in-memory mapping from fund_id to FundRecord for
// one build generation. A Store is never mutated after Freeze is called;
// rebuilds produce a brand new Store (see Generation).
type Store struct {
	records map[string]*FundRecord
	ids     []string // sorted, for deterministic iteration
	frozen  bool
}

// NewStore creates an empty, mutable Store. Call Freeze once all records
// have been added.
func NewStore() *Store {
	return &Store{records: make(map[string]*FundRecord)}
}

// Add inserts a record. Returns an error if the store is frozen or the
// fund_id is a duplicate, preserving the "unique and total" invariant of
// SPEC_FULL.md §3.
func (s *Store) Add(r *FundRecord) error {
	if s.frozen {
		return errors.New("store is frozen")
	}
	if _, exists := s.records[r.FundID]; exists {
		return errors.Newf("duplicate fund_id %q", r.FundID)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.records[r.FundID] = r
	return nil
}

// Freeze finalizes the store, sorting ids for deterministic iteration and
// making it safe for concurrent reads from any number of goroutines.
func (s *Store) Freeze() {
	if s.frozen {
		return
	}
	s.ids = make([]string, 0, len(s.records))
	for id := range s.records {
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
	s.frozen = true
}

// Get returns the record for id, or nil if absent.
func (s *Store) Get(id string) *FundRecord {
	return s.records[id]
}

// All returns every record, sorted by fund_id for deterministic output.
func (s *Store) All() []*FundRecord {
	out := make([]*FundRecord, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.records[id])
	}
	return out
}

// IDs returns every fund_id, sorted.
func (s *Store) IDs() []string {
	return s.ids
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Generation is a reference-counted handle over one immutable build: a
// corpus Store plus whatever lexical/dense indices were built against it.
// Readers Acquire a Generation for the lifetime of one request and Release
// it when done; a rebuild swaps the active Generation atomically, and the
// previous one is reclaimed once its last borrower releases it.
//
// Generation itself is domain-agnostic: it holds an opaque payload so the
// engine package can store (corpus.Store, *lexical.Index, dense.Index)
// without this package importing either.
type Generation struct {
	ID      string
	Payload interface{}

	mu       sync.Mutex
	refCount int
	released bool // true once the owning Manager has retired this generation
	onZero   func()
}

// newGeneration wraps payload in a fresh Generation with refCount 1 (the
// Manager's own reference).
func newGeneration(payload interface{}) *Generation {
	return &Generation{
		ID:       uuid.NewString(),
		Payload:  payload,
		refCount: 1,
	}
}

func (g *Generation) acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refCount++
}

// Release must be called exactly once per Manager.Acquire, and once by the
// Manager for its own reference when the generation is retired. When the
// count reaches zero and the generation has been retired, onZero fires if
// set; the Manager does not set it, so a retired generation is simply left
// for the garbage collector once no reader holds it.
func (g *Generation) Release() {
	g.mu.Lock()
	refs := g.refCount - 1
	g.refCount = refs
	onZero := g.onZero
	retired := g.released
	g.mu.Unlock()
	if refs == 0 && retired && onZero != nil {
		onZero()
	}
}

// Manager owns the single writer slot for the active Generation and lets
// readers borrow it safely across concurrent requests.
type Manager struct {
	mu     sync.RWMutex
	active *Generation
}

// NewManager creates a Manager with no active generation.
func NewManager() *Manager {
	return &Manager{}
}

// Publish installs a new active generation built from payload and returns
// it. It does not release the previous generation's Manager-held reference
// until after the swap, so a reader that already acquired the old
// generation keeps it alive until it releases.
func (m *Manager) Publish(payload interface{}) *Generation {
	g := newGeneration(payload)
	m.mu.Lock()
	old := m.active
	m.active = g
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.released = true
		old.mu.Unlock()
		old.Release() // drop the Manager's own reference
	}
	return g
}

// Acquire returns the currently active generation with an incremented
// reference count; the caller must call Release when done. Returns nil if
// no generation has ever been published.
func (m *Manager) Acquire() *Generation {
	m.mu.RLock()
	g := m.active
	m.mu.RUnlock()
	if g == nil {
		return nil
	}
	g.acquire()
	return g
}
