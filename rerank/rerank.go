// Package rerank implements the Enhanced Reranker of SPEC_FULL.md §4.6:
// three normalized subscores (semantic, metadata, fuzzy) combined under a
// fixed weight vector, with a four-decimal explanation record for every
// scored candidate.
//
// Grounded on teilomillet-raggo/rag/reranker.go's RRFReranker shape —
// same "score every candidate, sort, truncate to k" structure — but the
// combiner itself is NOT reciprocal rank fusion: the spec requires a
// weighted sum of three named subscores, so WeightedFusion replaces RRF
// rather than reusing it (see DESIGN.md).
package rerank

import (
	"math"
	"sort"

	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/queryparse"
)

// Weights holds the final-score weight vector and the partial-credit
// tolerance band, both configurable per SPEC_FULL.md §6 but defaulting to
// 0.6/0.3/0.1 and 0.20.
type Weights struct {
	Semantic float64
	Metadata float64
	Fuzzy    float64
	Band     float64
}

// DefaultWeights returns the spec's default weight vector.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.6, Metadata: 0.3, Fuzzy: 0.1, Band: 0.20}
}

// Candidate is one fund entering the reranker, carrying whatever raw
// scores the candidate generator attached (SPEC_FULL.md §4.5). CosineSim
// is the raw semantic similarity in [-1,1] if already computed by the
// dense index; HasCosine distinguishes "0 because no embedding match" from
// "not computed yet."
type Candidate struct {
	Fund      *corpus.FundRecord
	CosineSim float64
	HasCosine bool
	BM25Score float64
}

// Explanation is the stable, four-decimal-precision record SPEC_FULL.md
// §4.6 requires for every returned candidate.
type Explanation struct {
	SemanticScore    float64
	MetadataScore    float64
	FuzzyScore       float64
	SemanticWeight   float64
	MetadataWeight   float64
	FuzzyWeight      float64
	FinalScore       float64
	MetadataDetail   []Component
	// SemanticFromBM25 is true when SemanticScore is the min-max-normalized
	// BM25 substitute rather than a cosine similarity.
	SemanticFromBM25 bool
}

// Scored is one reranked candidate with its final and component scores.
type Scored struct {
	Fund        *corpus.FundRecord
	Final       float64
	Semantic    float64
	Metadata    float64
	Fuzzy       float64
	Explanation Explanation
}

// minMaxNormalizeBM25 rescales raw BM25 scores in candidates into [0,1],
// used as a semantic-score substitute when a candidate has no cosine
// similarity available (SPEC_FULL.md §4.6: "implementations may
// alternatively substitute a min-max-normalized BM25 score and mark this
// in the explanation").
func minMaxNormalizeBM25(candidates []Candidate) (normalized []float64) {
	if len(candidates) == 0 {
		return nil
	}
	min, max := candidates[0].BM25Score, candidates[0].BM25Score
	for _, c := range candidates {
		if c.BM25Score < min {
			min = c.BM25Score
		}
		if c.BM25Score > max {
			max = c.BM25Score
		}
	}
	normalized = make([]float64, len(candidates))
	spread := max - min
	for i, c := range candidates {
		if spread <= 0 {
			normalized[i] = 0
			continue
		}
		normalized[i] = (c.BM25Score - min) / spread
	}
	return normalized
}

// Rerank computes the final weighted-fusion score for every candidate and
// returns the top k, sorted by descending final score, tie-broken by
// descending metadata score then ascending fund_id (SPEC_FULL.md §4.6).
func Rerank(candidates []Candidate, queryResidual string, constraints map[string]queryparse.Constraint, weights Weights, k int) []Scored {
	bm25Fallback := minMaxNormalizeBM25(candidates)

	scored := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		sSem := c.CosineSim
		if sSem < 0 {
			sSem = 0
		}
		if !c.HasCosine {
			sSem = bm25Fallback[i]
		}

		sMeta, components := MetadataSubscore(c.Fund, constraints, weights.Band)
		sFuzz := fuzzySubscore(c.Fund, queryResidual)

		final := weights.Semantic*sSem + weights.Metadata*sMeta + weights.Fuzzy*sFuzz

		scored = append(scored, Scored{
			Fund:     c.Fund,
			Final:    final,
			Semantic: sSem,
			Metadata: sMeta,
			Fuzzy:    sFuzz,
			Explanation: Explanation{
				SemanticScore:  round4(sSem),
				MetadataScore:  round4(sMeta),
				FuzzyScore:     round4(sFuzz),
				SemanticWeight: weights.Semantic,
				MetadataWeight: weights.Metadata,
				FuzzyWeight:    weights.Fuzzy,
				FinalScore:     round4(final),
				MetadataDetail: components,
				SemanticFromBM25: !c.HasCosine,
			},
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Final != scored[j].Final {
			return scored[i].Final > scored[j].Final
		}
		if scored[i].Metadata != scored[j].Metadata {
			return scored[i].Metadata > scored[j].Metadata
		}
		return scored[i].Fund.FundID < scored[j].Fund.FundID
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// fuzzySubscore is the max normalized_token_set_ratio across fund_name and
// fund_house, per SPEC_FULL.md §4.6.
func fuzzySubscore(f *corpus.FundRecord, queryResidual string) float64 {
	if queryResidual == "" {
		return 0
	}
	best := NormalizedTokenSetRatio(queryResidual, f.FundName) / 100
	if house := NormalizedTokenSetRatio(queryResidual, f.FundHouse) / 100; house > best {
		best = house
	}
	return best
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
