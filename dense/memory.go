package dense

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// MemoryIndex is a linear-scan reference backend, grounded on
// teilomillet-raggo/rag/memory.go's MemoryDB. Search cost is O(n); this
// backend exists for tests and small corpora, not for production scale.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string]Vector
	dim     int
}

// NewMemoryIndex creates an empty in-memory backend for vectors of the
// given dimension.
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{
		vectors: make(map[string]Vector),
		dim:     dim,
	}
}

func (m *MemoryIndex) Add(ctx context.Context, fundID string, v Vector) error {
	if m.dim > 0 && len(v) != m.dim {
		return errors.Newf("vector for %s has dimension %d, expected %d", fundID, len(v), m.dim)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[fundID] = v
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, v Vector, topK int) ([]Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Result, 0, len(m.vectors))
	for fundID, stored := range m.vectors {
		results = append(results, Result{FundID: fundID, Similarity: Dot(v, stored)})
	}
	breakTies(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Save writes the vector array in fund_id-sorted row order, plus the
// sidecar id mapping, to dir/vectors.bin and dir/vectors.ids.
func (m *MemoryIndex) Save(dir string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.vectors))
	for id := range m.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	vectors := make([]Vector, len(ids))
	for i, id := range ids {
		vectors[i] = m.vectors[id]
	}

	if err := WriteVectorArray(filepath.Join(dir, "vectors.bin"), ids, vectors, m.dim); err != nil {
		return err
	}
	return writeIDMapping(filepath.Join(dir, "vectors.ids"), ids)
}

func (m *MemoryIndex) Close() error { return nil }

// LoadMemoryIndex restores a MemoryIndex previously written by Save.
func LoadMemoryIndex(dir string) (*MemoryIndex, error) {
	vectors, dim, err := ReadVectorArray(filepath.Join(dir, "vectors.bin"))
	if err != nil {
		return nil, err
	}
	ids, err := readIDMapping(filepath.Join(dir, "vectors.ids"))
	if err != nil {
		return nil, err
	}
	if len(ids) != len(vectors) {
		return nil, errors.Newf("vector array has %d rows but id mapping has %d entries", len(vectors), len(ids))
	}

	idx := NewMemoryIndex(dim)
	for i, id := range ids {
		idx.vectors[id] = vectors[i]
	}
	return idx, nil
}
