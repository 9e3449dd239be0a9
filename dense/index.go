// Package dense implements the approximate-nearest-neighbor index from
// SPEC_FULL.md §4.3: L2-normalized vectors under inner-product similarity,
// with bulk build, append-only extension, persistent save, and restore.
//
// Three backends share one Index interface, grounded on
// teilomillet-raggo/rag/vector_interface.go's VectorDB abstraction:
//   - memory:  linear-scan reference backend (rag/memory.go)
//   - chromem: github.com/philippgille/chromem-go, the persistent embedded
//     backend (rag/chromem.go); the configuration default is memory
//   - milvus:  github.com/milvus-io/milvus-sdk-go/v2 for standalone-service
//     scale deployments (rag/milvus.go)
package dense

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

// Vector is an embedding. The contract (SPEC_FULL.md §4.3) requires
// L2-normalized vectors; Normalize enforces it.
type Vector []float32

// Normalize scales v to unit L2 norm in place and returns it. A zero vector
// is left unchanged (normalizing it is undefined).
func Normalize(v Vector) Vector {
	f64 := make([]float64, len(v))
	for i, x := range v {
		f64[i] = float64(x)
	}
	norm := floats.Norm(f64, 2)
	if norm < 1e-12 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Dot computes the inner product of two equal-length vectors using gonum's
// float routines.
func Dot(a, b Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	fa := make([]float64, n)
	fb := make([]float64, n)
	for i := 0; i < n; i++ {
		fa[i] = float64(a[i])
		fb[i] = float64(b[i])
	}
	return floats.Dot(fa, fb)
}

// Result is one nearest-neighbor hit.
type Result struct {
	FundID     string
	Similarity float64 // raw inner-product similarity in [-1,1]
}

// Index is the dense ANN index contract. Every backend must support
// concurrent Search calls while Add is not in progress (callers serialize
// writes through the single-writer generation model of SPEC_FULL.md §5).
type Index interface {
	// Add inserts or replaces the vector for fundID.
	Add(ctx context.Context, fundID string, v Vector) error
	// Search returns up to topK nearest neighbors to v, sorted by
	// descending similarity, ties broken by ascending fund_id.
	Search(ctx context.Context, v Vector, topK int) ([]Result, error)
	// Len returns the number of indexed vectors.
	Len() int
	// Save persists the index (vector array plus any backend-native
	// structure) under the given directory.
	Save(dir string) error
	// Close releases backend resources (no-op for in-memory backends).
	Close() error
}

// breakTies sorts results by descending similarity, ascending fund_id.
func breakTies(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].FundID < results[j].FundID
	})
}

// --- Persisted vector array format (SPEC_FULL.md §6) -----------------
//
// Header: count uint32, dim uint32 (little-endian)
// Body:   count*dim float32, row-major, little-endian
//
// Grounded on Vedant9500-WTF/internal/embedding/embedding.go's
// LoadWordVectors/LoadCommandEmbeddings framing, generalized to a
// manifest-declared dimension instead of a fixed 100-d GloVe format.

// WriteVectorArray writes vectors to the binary vector-array format, using
// len(ids) as the header's row count. It does not write the ids; callers
// persist the row-to-fund_id mapping separately.
func WriteVectorArray(path string, ids []string, vectors []Vector, dim int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create vector array %s", path)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(len(ids))); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(dim)); err != nil {
		return err
	}
	for i, v := range vectors {
		if len(v) != dim {
			return errors.Newf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
		if err := binary.Write(f, binary.LittleEndian, []float32(v)); err != nil {
			return err
		}
	}
	return nil
}

// ReadVectorArray reads the binary vector-array format back into
// parallel id-order vectors (ids must be supplied by the caller from the
// sidecar mapping; this function only validates the count).
func ReadVectorArray(path string) (vectors []Vector, dim int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "open vector array %s", path)
	}
	defer f.Close()

	var count, d uint32
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(f, binary.LittleEndian, &d); err != nil {
		return nil, 0, err
	}

	vectors = make([]Vector, count)
	for i := uint32(0); i < count; i++ {
		v := make(Vector, d)
		if err := binary.Read(f, binary.LittleEndian, v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, errors.Newf("vector array truncated at row %d", i)
			}
			return nil, 0, err
		}
		vectors[i] = v
	}
	return vectors, int(d), nil
}
