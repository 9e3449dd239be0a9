package dense

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	chromem "github.com/philippgille/chromem-go"
)

// collectionName is fixed: one corpus generation owns one collection, and a
// ChromemIndex owns exactly one collection for its lifetime.
const collectionName = "funds"

// ChromemIndex is the default persistent dense backend, grounded on
// teilomillet-raggo/rag/chromem.go's ChromemDB. Unlike the teacher, vectors
// here always arrive pre-computed from the embedtext package, so the
// embedding function registered with chromem-go is a stub that errors if
// chromem ever tries to compute an embedding on our behalf.
type ChromemIndex struct {
	mu  sync.Mutex
	db  *chromem.DB
	col *chromem.Collection
	dim int
}

// noEmbed satisfies chromem.EmbeddingFunc but must never be called: every
// document we add already carries its embedding.
func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("chromem embedding function invoked, but fundrag always supplies precomputed embeddings")
}

// NewChromemIndex opens (or creates) a persistent chromem-go database at
// path. An empty path creates a process-local in-memory database, useful
// for tests.
func NewChromemIndex(path string, dim int) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create chromem directory for %s", path)
		}
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, errors.Wrapf(err, "open chromem db at %s", path)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, noEmbed)
	if err != nil {
		return nil, errors.Wrap(err, "create funds collection")
	}

	return &ChromemIndex{db: db, col: col, dim: dim}, nil
}

func (c *ChromemIndex) Add(ctx context.Context, fundID string, v Vector) error {
	if c.dim > 0 && len(v) != c.dim {
		return errors.Newf("vector for %s has dimension %d, expected %d", fundID, len(v), c.dim)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col.AddDocument(ctx, chromem.Document{
		ID:        fundID,
		Embedding: []float32(v),
	})
}

func (c *ChromemIndex) Search(ctx context.Context, v Vector, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = c.Len()
	}
	if topK == 0 {
		return nil, nil
	}
	if n := c.Len(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}

	docs, err := c.col.QueryEmbedding(ctx, []float32(v), topK, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "chromem query")
	}

	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		results = append(results, Result{FundID: d.ID, Similarity: float64(d.Similarity)})
	}
	breakTies(results)
	return results, nil
}

func (c *ChromemIndex) Len() int {
	return c.col.Count()
}

// Save is a no-op and always returns nil: chromem-go's persistent DB writes
// through to disk on every AddDocument call when opened with a path, so
// there is no separate bulk-save step. Memory-backed instances (empty path)
// write nothing to disk.
func (c *ChromemIndex) Save(dir string) error {
	return nil
}

func (c *ChromemIndex) Close() error {
	return nil
}
