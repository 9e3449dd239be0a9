package rerank

import (
	"sort"
	"strings"

	"github.com/fundscope/retrieval/normalize"
)

// levenshteinDistance computes the edit distance between two strings,
// grounded on Vedant9500-WTF/internal/search/enhanced_search.go's
// LevenshteinDistance (full dynamic-programming matrix, no row
// optimization — the strings here are short field values, so the memory
// cost is immaterial).
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = minOf3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(s1)][len(s2)]
}

func minOf3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// levenshteinRatio is a normalized similarity in [0,100] derived from edit
// distance: 100 means identical, 0 means maximally different relative to
// the longer string's length.
func levenshteinRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshteinDistance(a, b)
	ratio := (1 - float64(dist)/float64(maxLen)) * 100
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

// tokenFuzzyMatchThreshold is the per-token levenshteinRatio above which
// two tokens from opposite sides are treated as the same word when
// building the intersection set. Without this, a single-character alias
// typo ("flexcap" vs "flexicap") never lands in the intersection under
// exact token equality, so the whole-string ratio undercounts a near-exact
// match. 80 is loose enough to absorb a one/two-character edit on typical
// fund-name-length tokens without conflating unrelated short words.
const tokenFuzzyMatchThreshold = 80.0

// NormalizedTokenSetRatio implements the fuzzywuzzy-style token-set-ratio
// algorithm, required by SPEC_FULL.md §4.6's `s_fuzz` definition, over the
// SAME normalizer output the lexical and dense indices use (SPEC_FULL.md
// §9: "do not introduce a second tokenization"). Returns a score in
// [0,100].
//
// The algorithm splits both strings into sorted, deduplicated token sets,
// then compares three reconstructed strings — the intersection alone, the
// intersection plus each side's leftover tokens — pairwise, also compares
// the two raw input strings, and returns the best of those four
// similarities. This makes the ratio robust to word reordering and
// to one string being a subset of the other's words (e.g. a query
// fragment against a full fund name). Token membership in the
// intersection tolerates a per-token edit-distance-tolerant match (see
// tokenFuzzyMatchThreshold), not just exact equality, so that a single
// misspelled word still aligns with its counterpart.
func NormalizedTokenSetRatio(a, b string) float64 {
	tokensA := uniqueSortedTokens(a)
	tokensB := uniqueSortedTokens(b)

	intersection, onlyA, onlyB := partitionTokens(tokensA, tokensB)

	t0 := strings.Join(intersection, " ")
	t1 := strings.Join(append(append([]string{}, intersection...), onlyA...), " ")
	t2 := strings.Join(append(append([]string{}, intersection...), onlyB...), " ")

	best := levenshteinRatio(t0, t1)
	if r := levenshteinRatio(t0, t2); r > best {
		best = r
	}
	if r := levenshteinRatio(t1, t2); r > best {
		best = r
	}
	if r := levenshteinRatio(a, b); r > best {
		best = r
	}
	return best
}

func uniqueSortedTokens(s string) []string {
	terms := normalize.Tokenize(normalize.Normalize(s))
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// partitionTokens splits a and b's tokens into those shared (exactly or
// within tokenFuzzyMatchThreshold edit distance), and each side's
// leftovers. Each b token is consumed by at most one a token, so a short
// token can't soak up multiple distinct a tokens as fuzzy matches.
func partitionTokens(a, b []string) (intersection, onlyA, onlyB []string) {
	usedB := make([]bool, len(b))

	for _, ta := range a {
		matchIdx := -1
		for j, tb := range b {
			if !usedB[j] && ta == tb {
				matchIdx = j
				break
			}
		}
		if matchIdx == -1 {
			bestScore := 0.0
			for j, tb := range b {
				if usedB[j] {
					continue
				}
				if score := levenshteinRatio(ta, tb); score > bestScore {
					bestScore = score
					matchIdx = j
				}
			}
			if bestScore < tokenFuzzyMatchThreshold {
				matchIdx = -1
			}
		}

		if matchIdx == -1 {
			onlyA = append(onlyA, ta)
			continue
		}
		usedB[matchIdx] = true
		intersection = append(intersection, ta)
	}

	for j, tb := range b {
		if !usedB[j] {
			onlyB = append(onlyB, tb)
		}
	}
	return intersection, onlyA, onlyB
}
