// Package lexical implements the BM25 inverted index from SPEC_FULL.md
// §4.2, generalized from teilomillet-raggo/rag/sparse_index.go's single
// content-string BM25Index to FundRecord's description plus key metadata
// fields.
package lexical

import (
	"math"
	"sort"
	"sync"

	"github.com/fundscope/retrieval/normalize"
)

// Params holds the BM25 tuning knobs.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams returns k1=1.5, b=0.75 per SPEC_FULL.md §6.
func DefaultParams() Params {
	return Params{K1: 1.5, B: 0.75}
}

// Result is one scored document.
type Result struct {
	FundID string
	Score  float64
}

// Index is a thread-safe BM25 inverted index over normalized document
// tokens. The zero value is not usable; construct with New.
type Index struct {
	mu sync.RWMutex

	termFreq  map[string]map[string]int // fundID -> term -> count
	docFreq   map[string]int            // term -> number of docs containing it
	docLength map[string]int            // fundID -> token count
	avgDocLen float64
	totalDocs int
	ids       []string // sorted fund_ids, for deterministic tie-break

	params Params
}

// New creates an empty index with the given params.
func New(params Params) *Index {
	return &Index{
		termFreq:  make(map[string]map[string]int),
		docFreq:   make(map[string]int),
		docLength: make(map[string]int),
		params:    params,
	}
}

// Add indexes one document's already-normalized text under fundID. Callers
// must pass text through normalize.Normalize before calling Add, matching
// the invariant that indexing and query-time normalization are identical.
func (idx *Index) Add(fundID, normalizedText string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.termFreq[fundID]; !exists {
		idx.ids = append(idx.ids, fundID)
		sort.Strings(idx.ids)
	}

	terms := normalize.Tokenize(normalizedText)
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	// If re-adding, first undo the previous contribution to docFreq.
	if prev, exists := idx.termFreq[fundID]; exists {
		for term := range prev {
			idx.docFreq[term]--
			if idx.docFreq[term] <= 0 {
				delete(idx.docFreq, term)
			}
		}
	} else {
		idx.totalDocs++
	}

	idx.termFreq[fundID] = tf
	idx.docLength[fundID] = len(terms)
	for term := range tf {
		idx.docFreq[term]++
	}

	idx.recomputeAvgDocLen()
}

func (idx *Index) recomputeAvgDocLen() {
	if idx.totalDocs == 0 {
		idx.avgDocLen = 0
		return
	}
	var total int
	for _, l := range idx.docLength {
		total += l
	}
	idx.avgDocLen = float64(total) / float64(idx.totalDocs)
}

// Search scores query against every indexed document and returns up to
// topK results sorted by descending score, ties broken by ascending
// fund_id. An empty or stop-only query (no recognized terms) returns an
// empty, non-error result, per SPEC_FULL.md §4.2.
func (idx *Index) Search(query string, topK int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	results := idx.scoreAllLocked(query)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// scoreAllLocked computes every document's score for query, sorted, with
// no truncation. Caller must hold idx.mu (read or write).
func (idx *Index) scoreAllLocked(query string) []Result {
	terms := normalize.Tokenize(normalize.Normalize(query))
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		df, ok := idx.docFreq[term]
		if !ok {
			continue
		}
		idf := math.Log((float64(idx.totalDocs)-float64(df)+0.5)/(float64(df)+0.5) + 1)
		for fundID, tf := range idx.termFreq {
			count, ok := tf[term]
			if !ok {
				continue
			}
			docLen := float64(idx.docLength[fundID])
			numerator := float64(count) * (idx.params.K1 + 1)
			denom := float64(count) + idx.params.K1*(1-idx.params.B+idx.params.B*docLen/idx.avgDocLen)
			scores[fundID] += idf * numerator / denom
		}
	}

	if len(scores) == 0 {
		return nil
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{FundID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FundID < results[j].FundID
	})
	return results
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalDocs
}

// SetParams updates the BM25 tuning parameters.
func (idx *Index) SetParams(p Params) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.params = p
}

// Restrict returns a Search variant that only scores documents whose
// fund_id is in allowed. Used by the candidate generator to search within
// the hard-filtered pool (SPEC_FULL.md §4.5).
func (idx *Index) Restrict(query string, topK int, allowed map[string]bool) []Result {
	idx.mu.RLock()
	full := idx.scoreAllLocked(query)
	idx.mu.RUnlock()
	out := make([]Result, 0, topK)
	for _, r := range full {
		if allowed != nil && !allowed[r.FundID] {
			continue
		}
		out = append(out, r)
		if len(out) == topK {
			break
		}
	}
	return out
}
