// Package engine wires the Corpus Store, Lexical Index, Dense Index,
// Query Parser, Candidate Generator, Reranker, and RAG Prompt Builder
// together into the two operations SPEC_FULL.md §6 exposes externally:
// Search and Explain-prompt. It owns the single-writer generation model
// of SPEC_FULL.md §5: Build publishes a new generation atomically, and
// every Search/ExplainPrompt call borrows the active generation for
// exactly the duration of one request.
package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fundscope/retrieval/candidate"
	"github.com/fundscope/retrieval/config"
	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/dense"
	"github.com/fundscope/retrieval/lexical"
	"github.com/fundscope/retrieval/logging"
	"github.com/fundscope/retrieval/normalize"
	"github.com/fundscope/retrieval/prompt"
	"github.com/fundscope/retrieval/queryparse"
	"github.com/fundscope/retrieval/rerank"
)

// Search-level error kinds, per SPEC_FULL.md §7.
var (
	ErrInvalidK           = errors.New("k must be in [1,100]")
	ErrDeadlineExceeded   = errors.New("request deadline exceeded")
	ErrNoActiveGeneration = errors.New("no corpus generation has been built yet")
)

// payload is the concrete contents of a corpus.Generation for this engine:
// a frozen Store plus the lexical and dense indices built against it.
type payload struct {
	store *corpus.Store
	lex   *lexical.Index
	dense dense.Index
}

// Embedder turns normalized text into a dense vector; satisfied by
// *embedtext.Embedder. Declared locally (rather than importing embedtext)
// to keep engine decoupled from the specific provider package, the same
// way candidate.Embedder avoids a dependency on embedtext.
type Embedder = candidate.Embedder

// Engine is the concurrency-safe, request/response retrieval service of
// SPEC_FULL.md §2. Multiple Search/ExplainPrompt calls may run
// concurrently; Build/Rebuild may run concurrently with readers, who keep
// working against the generation they acquired (SPEC_FULL.md §5).
type Engine struct {
	cfg      *config.Config
	manager  *corpus.Manager
	embedder Embedder
	logger   logging.Logger
}

// New creates an Engine with no active generation; call Build before the
// first Search.
func New(cfg *config.Config, embedder Embedder, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Noop{}
	}
	return &Engine{cfg: cfg, manager: corpus.NewManager(), embedder: embedder, logger: logger}
}

// Build ingests records into a brand-new generation: synthesizes missing
// descriptions, builds the lexical and dense indices, and atomically
// publishes the generation (SPEC_FULL.md §2, §5). The previous generation,
// if any, remains valid for in-flight readers until they release it.
func (e *Engine) Build(ctx context.Context, records []*corpus.FundRecord) (*corpus.Generation, error) {
	store := corpus.NewStore()
	tok := normalize.DefaultTokenizer()

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.FundID] {
			return nil, &BuildError{Op: "add", FundID: r.FundID, Cause: errors.New("duplicate fund_id")}
		}
		seen[r.FundID] = true

		if r.Description == "" {
			r.Description = normalize.Describe(r, tok, e.cfg.DescriptionTokenBudget)
		}
		if err := store.Add(r); err != nil {
			return nil, &BuildError{Op: "add", FundID: r.FundID, Cause: err}
		}
	}
	store.Freeze()

	lex := lexical.New(lexical.Params{K1: e.cfg.K1, B: e.cfg.B})
	denseIdx, err := dense.Open(ctx, e.cfg.DenseBackend, e.cfg.DenseAddress, e.cfg.EmbeddingDim)
	if err != nil {
		return nil, errors.Wrap(err, "open dense index")
	}

	for _, f := range store.All() {
		lex.Add(f.FundID, indexedText(f))

		if e.embedder == nil {
			continue
		}
		vec, err := e.embedder.Embed(ctx, f.Description)
		if err != nil {
			return nil, &BuildError{Op: "embed", FundID: f.FundID, Cause: err}
		}
		if e.cfg.EmbeddingDim > 0 && len(vec) != e.cfg.EmbeddingDim {
			return nil, &BuildError{Op: "embed", FundID: f.FundID, Cause: errors.Newf(
				"embedding dimension %d does not match configured %d", len(vec), e.cfg.EmbeddingDim)}
		}
		if err := denseIdx.Add(ctx, f.FundID, vec); err != nil {
			return nil, &BuildError{Op: "index", FundID: f.FundID, Cause: err}
		}
	}

	return e.manager.Publish(&payload{store: store, lex: lex, dense: denseIdx}), nil
}

// indexedText concatenates a fund's description with a few high-signal
// metadata fields, so BM25 can match on fund name / house / category
// tokens even when the synthesized description phrases them differently.
func indexedText(f *corpus.FundRecord) string {
	text := f.FundName + " " + f.FundHouse + " " + f.Category + " " + f.SubCategory + " " + f.Description
	return normalize.Normalize(text)
}

// SearchRequest is one Search call's input (SPEC_FULL.md §6).
type SearchRequest struct {
	Query           string
	K               int
	Explain         bool
	FilterOverrides map[string]queryparse.Constraint
	Deadline        time.Time
}

// SearchResult is one ranked fund per SPEC_FULL.md §6's output contract.
type SearchResult struct {
	FundID        string
	FundName      string
	FundHouse     string
	Category      string
	SubCategory   string
	RiskLevel     corpus.RiskLevel
	FinalScore    float64
	SemanticScore float64
	MetadataScore float64
	FuzzyScore    float64
	Explanation   *rerank.Explanation
}

// Search runs the full query -> normalize -> parse -> candidate-generate
// -> rerank pipeline and returns up to req.K ranked results.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if req.K < 1 || req.K > 100 {
		return nil, ErrInvalidK
	}
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	gen := e.manager.Acquire()
	if gen == nil {
		return nil, ErrNoActiveGeneration
	}
	defer gen.Release()

	return e.searchIn(ctx, gen.Payload.(*payload), req)
}

// searchIn runs the search pipeline against an already-acquired
// generation's payload. Callers that need the same generation for
// additional lookups after ranking (ExplainPrompt) acquire once and call
// this directly instead of going through Search, so that a concurrent
// Build can never hand the ranking and the lookup different generations
// (SPEC_FULL.md §8 property 7).
func (e *Engine) searchIn(ctx context.Context, pl *payload, req SearchRequest) ([]SearchResult, error) {
	parsed := queryparse.Parse(req.Query)
	for field, c := range req.FilterOverrides {
		parsed.Constraints[field] = c
	}

	for _, w := range parsed.Warnings {
		e.logger.Warn("query parse warning", "field", w.Field, "span", w.Span, "message", w.Message)
	}

	if parsed.IsEmpty() {
		return nil, nil
	}

	smallPoolThreshold := e.cfg.SmallPoolThreshold
	var embedder candidate.Embedder
	if e.embedder != nil {
		embedder = e.embedder
	}

	candidates, err := candidate.Generate(ctx, pl.store, pl.lex, pl.dense, embedder, parsed, req.K, smallPoolThreshold)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrDeadlineExceeded
		}
		return nil, &SearchError{Query: req.Query, Cause: err}
	}

	weights := rerank.Weights{
		Semantic: e.cfg.WeightSemantic,
		Metadata: e.cfg.WeightMetadata,
		Fuzzy:    e.cfg.WeightFuzzy,
		Band:     e.cfg.PartialCreditBand,
	}
	scored := rerank.Rerank(candidates, parsed.Residual, parsed.Constraints, weights, req.K)

	results := make([]SearchResult, 0, len(scored))
	for _, s := range scored {
		r := SearchResult{
			FundID:        s.Fund.FundID,
			FundName:      s.Fund.FundName,
			FundHouse:     s.Fund.FundHouse,
			Category:      s.Fund.Category,
			SubCategory:   s.Fund.SubCategory,
			RiskLevel:     s.Fund.RiskLevel,
			FinalScore:    s.Final,
			SemanticScore: s.Semantic,
			MetadataScore: s.Metadata,
			FuzzyScore:    s.Fuzzy,
		}
		if req.Explain {
			exp := s.Explanation
			r.Explanation = &exp
		}
		results = append(results, r)
	}
	return results, nil
}

// ExplainPrompt runs the search pipeline with k fixed at prompt.TopN and
// formats the RAG advisor prompt of SPEC_FULL.md §4.7 over the results.
// Ranking and the subsequent fund lookups share a single acquired
// generation so a concurrent Build cannot mix the two (SPEC_FULL.md §8
// property 7).
func (e *Engine) ExplainPrompt(ctx context.Context, query string) (string, []*corpus.FundRecord, error) {
	gen := e.manager.Acquire()
	if gen == nil {
		return "", nil, ErrNoActiveGeneration
	}
	defer gen.Release()
	pl := gen.Payload.(*payload)

	results, err := e.searchIn(ctx, pl, SearchRequest{Query: query, K: prompt.TopN})
	if err != nil {
		return "", nil, err
	}

	funds := make([]*corpus.FundRecord, 0, len(results))
	for _, r := range results {
		if f := pl.store.Get(r.FundID); f != nil {
			funds = append(funds, f)
		}
	}
	return prompt.Build(query, funds), funds, nil
}

// Len reports how many funds the active generation holds, or 0 if none has
// been built yet. Used by operational tooling, not by the search path.
func (e *Engine) Len() int {
	gen := e.manager.Acquire()
	if gen == nil {
		return 0
	}
	defer gen.Release()
	return gen.Payload.(*payload).store.Len()
}
