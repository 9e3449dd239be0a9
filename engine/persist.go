package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/dense"
	"github.com/fundscope/retrieval/lexical"
	"github.com/fundscope/retrieval/manifest"
)

const (
	fundsFile    = "funds.json"
	bm25File     = "bm25.json"
	manifestFile = "manifest.json"
)

// Save persists the active generation's artifacts under dir: the corpus
// mapping, the BM25 state, the dense index (backend-specific), and a
// manifest tying them together (SPEC_FULL.md §6).
func (e *Engine) Save(dir string, embeddingModel string, embeddingDim int, corpusChecksum string) error {
	gen := e.manager.Acquire()
	if gen == nil {
		return ErrNoActiveGeneration
	}
	defer gen.Release()
	pl := gen.Payload.(*payload)

	if err := pl.store.Save(filepath.Join(dir, fundsFile)); err != nil {
		return errors.Wrap(err, "save corpus")
	}
	if err := pl.lex.Save(filepath.Join(dir, bm25File)); err != nil {
		return errors.Wrap(err, "save bm25 state")
	}
	if err := pl.dense.Save(dir); err != nil {
		return errors.Wrap(err, "save dense index")
	}

	m := &manifest.Manifest{
		EmbeddingModel: embeddingModel,
		EmbeddingDim:   embeddingDim,
		CorpusChecksum: corpusChecksum,
		RecordCount:    pl.store.Len(),
		BuildTimestamp: time.Now(),
		BM25K1:         e.cfg.K1,
		BM25B:          e.cfg.B,
		VectorArrayFile: "vectors.bin",
		IDMappingFile:   "vectors.ids",
		BM25StateFile:   bm25File,
		DenseBackend:    e.cfg.DenseBackend,
	}
	return manifest.Write(filepath.Join(dir, manifestFile), m)
}

// LoadGeneration restores a generation previously written by Save and
// makes it the engine's active generation. Only the "memory" dense
// backend supports restore from the on-disk vector array in this form;
// chromem and milvus restore from their own native storage instead
// (SPEC_FULL.md §4.3: "the index supports... persistent save, and
// restore").
func (e *Engine) LoadGeneration(ctx context.Context, dir string) (*corpus.Generation, error) {
	m, err := manifest.Read(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}

	store, err := corpus.LoadStore(filepath.Join(dir, fundsFile))
	if err != nil {
		return nil, errors.Wrap(err, "load corpus")
	}

	lex, err := lexical.Load(filepath.Join(dir, bm25File))
	if err != nil {
		return nil, errors.Wrap(err, "load bm25 state")
	}

	var denseIdx dense.Index
	switch m.DenseBackend {
	case "", "memory":
		mem, err := dense.LoadMemoryIndex(dir)
		if err != nil {
			return nil, errors.Wrap(err, "load dense index")
		}
		if err := manifest.ValidateVectorCount(m, mem.Len(), store.Len()); err != nil {
			return nil, err
		}
		denseIdx = mem
	default:
		denseIdx, err = dense.Open(ctx, m.DenseBackend, e.cfg.DenseAddress, m.EmbeddingDim)
		if err != nil {
			return nil, errors.Wrap(err, "reopen dense backend")
		}
	}

	return e.manager.Publish(&payload{store: store, lex: lex, dense: denseIdx}), nil
}
