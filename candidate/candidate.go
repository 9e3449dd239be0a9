// Package candidate implements the Candidate Generator of SPEC_FULL.md
// §4.5: hard-filter the corpus, skip ranked retrieval for small pools, and
// otherwise fan out concurrent BM25 and ANN lookups over the filtered
// pool, unioning the results for the reranker.
//
// The concurrent-fan-out shape is grounded on
// AleutianAI-AleutianFOSS/services/trace/agent/routing/embedder.go's
// errgroup.WithContext pattern, generalized from embedding warm-up to two
// heterogeneous retrieval calls racing against one request deadline.
package candidate

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/dense"
	"github.com/fundscope/retrieval/lexical"
	"github.com/fundscope/retrieval/queryparse"
	"github.com/fundscope/retrieval/rerank"
)

// SmallPoolThreshold is the default size at or below which the generator skips
// ranked retrieval entirely and uses every hard-filtered record as a
// candidate (SPEC_FULL.md §6).
const SmallPoolThreshold = 200

// Embedder turns normalized query text into a dense vector. Implementations
// live in package embedtext; this interface exists so candidate does not
// import it directly, mirroring how corpus.Generation holds an opaque
// payload to avoid a dependency cycle.
type Embedder interface {
	Embed(ctx context.Context, text string) (dense.Vector, error)
}

// hardFilterFields are the constraint families precise enough to apply as
// a hard pre-filter before any ranked retrieval (SPEC_FULL.md §4.5 step 1).
// Numeric constraints are deliberately excluded: they get soft,
// partial-credit treatment in the reranker instead.
var hardFilterFields = []string{"amc", "category", "sector"}

// Pool computes the hard-filtered candidate pool P: every fund_id whose
// record satisfies all equality constraints the parser recognized for
// amc/category/sector.
func Pool(store *corpus.Store, constraints map[string]queryparse.Constraint) []*corpus.FundRecord {
	active := make(map[string]queryparse.Constraint)
	for _, field := range hardFilterFields {
		if c, ok := constraints[field]; ok {
			active[field] = c
		}
	}
	if len(active) == 0 {
		return store.All()
	}

	out := make([]*corpus.FundRecord, 0, store.Len())
	for _, f := range store.All() {
		if passesHardFilters(f, active) {
			out = append(out, f)
		}
	}
	return out
}

func passesHardFilters(f *corpus.FundRecord, active map[string]queryparse.Constraint) bool {
	for field, c := range active {
		var value string
		switch field {
		case "amc":
			value = f.FundHouse
		case "category":
			value = f.Category
		case "sector":
			value = f.Sector
		}
		if !strings.EqualFold(value, c.StringValue) {
			return false
		}
	}
	return true
}

// Breadth returns K_bm25 / K_ann for a requested top-k: max(3k, 50),
// per SPEC_FULL.md §4.5.
func Breadth(k int) int {
	if 3*k > 50 {
		return 3 * k
	}
	return 50
}

// Generate runs the full candidate-generation procedure and returns the
// union of BM25 and ANN hits (or the whole small pool) as reranker input.
func Generate(
	ctx context.Context,
	store *corpus.Store,
	lexIdx *lexical.Index,
	denseIdx dense.Index,
	embedder Embedder,
	parsed queryparse.ParsedQuery,
	k int,
	smallPoolThreshold int,
) ([]rerank.Candidate, error) {
	if parsed.IsEmpty() {
		return nil, nil
	}

	pool := Pool(store, parsed.Constraints)
	if smallPoolThreshold <= 0 {
		smallPoolThreshold = SmallPoolThreshold
	}

	if len(pool) <= smallPoolThreshold || parsed.Residual == "" {
		// SPEC_FULL.md §4.5: an empty residual with non-empty filters still
		// yields candidates = P, ranked only by metadata and fuzzy (semantic
		// score defaults to 0) — there is no semantic text to run BM25/ANN
		// against regardless of pool size, so the large-pool branch below
		// would just spend two no-op goroutines to reach the same union.
		candidates := make([]rerank.Candidate, 0, len(pool))
		for _, f := range pool {
			candidates = append(candidates, rerank.Candidate{Fund: f})
		}
		return candidates, nil
	}

	allowed := make(map[string]bool, len(pool))
	byID := make(map[string]*corpus.FundRecord, len(pool))
	for _, f := range pool {
		allowed[f.FundID] = true
		byID[f.FundID] = f
	}

	breadth := Breadth(k)

	var bm25Results []lexical.Result
	var annResults []dense.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bm25Results = lexIdx.Restrict(parsed.Residual, breadth, allowed)
		return nil
	})
	g.Go(func() error {
		if denseIdx == nil {
			return nil
		}
		vec, err := embedder.Embed(gctx, parsed.Residual)
		if err != nil {
			return err
		}
		// The dense backends exposed here have no native per-request
		// filter expression, so over-fetch relative to the pool and
		// post-filter to it; a production milvus deployment can instead
		// push the fund_id filter into the search expression.
		overfetch := breadth * 4
		if n := denseIdx.Len(); n >= 0 && overfetch > n {
			overfetch = n
		}
		raw, err := denseIdx.Search(gctx, dense.Normalize(vec), overfetch)
		if err != nil {
			return err
		}
		filtered := make([]dense.Result, 0, breadth)
		for _, r := range raw {
			if !allowed[r.FundID] {
				continue
			}
			filtered = append(filtered, r)
			if len(filtered) == breadth {
				break
			}
		}
		annResults = filtered
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return union(byID, bm25Results, annResults), nil
}

// union merges BM25 and ANN hits into one candidate list, attaching raw
// scores where available (SPEC_FULL.md §4.5 step 4).
func union(byID map[string]*corpus.FundRecord, bm25Results []lexical.Result, annResults []dense.Result) []rerank.Candidate {
	merged := make(map[string]*rerank.Candidate)

	order := make([]string, 0, len(bm25Results)+len(annResults))
	for _, r := range bm25Results {
		f, ok := byID[r.FundID]
		if !ok {
			continue
		}
		if c, exists := merged[r.FundID]; exists {
			c.BM25Score = r.Score
			continue
		}
		merged[r.FundID] = &rerank.Candidate{Fund: f, BM25Score: r.Score}
		order = append(order, r.FundID)
	}
	for _, r := range annResults {
		f, ok := byID[r.FundID]
		if !ok {
			continue
		}
		if c, exists := merged[r.FundID]; exists {
			c.CosineSim = r.Similarity
			c.HasCosine = true
			continue
		}
		merged[r.FundID] = &rerank.Candidate{Fund: f, CosineSim: r.Similarity, HasCosine: true}
		order = append(order, r.FundID)
	}

	sort.Strings(order)
	seen := make(map[string]bool, len(order))
	out := make([]rerank.Candidate, 0, len(merged))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, *merged[id])
	}
	return out
}
