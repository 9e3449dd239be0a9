package queryparse

import "github.com/sahilm/fuzzy"

// fundHouseAliases maps a lower-cased alias phrase to its canonical AMC
// name. Phrases are matched as whole words against the normalized query.
var fundHouseAliases = map[string]string{
	"icici":        "ICICI",
	"hdfc":         "HDFC",
	"sbi":          "SBI",
	"axis":         "Axis",
	"kotak":        "Kotak",
	"aditya birla": "Aditya Birla",
	"nippon":       "Nippon",
	"tata":         "Tata",
	"uti":          "UTI",
}

// riskLevelGroups maps a keyword phrase to its canonical risk tier.
var riskLevelGroups = map[string]string{
	"low risk":     "Low",
	"conservative": "Low",
	"safe":         "Low",
	"moderate":     "Moderate",
	"medium":       "Moderate",
	"balanced":     "Moderate",
	"high risk":    "High",
	"aggressive":   "High",
}

// categoryAliases maps a keyword phrase to its canonical fund category.
var categoryAliases = map[string]string{
	"tax saver":                            "ELSS",
	"tax saving":                           "ELSS",
	"tax-saving equity-linked saving scheme": "ELSS",
	"elss":       "ELSS",
	"index":      "Index",
	"large cap":  "Large Cap",
	"mid cap":    "Mid Cap",
	"small cap":  "Small Cap",
	"debt":       "Debt",
	"liquid":     "Liquid",
	"hybrid":     "Hybrid",
	"equity":     "Equity",
}

// sectorAliases maps a keyword phrase to its canonical sector name.
var sectorAliases = map[string]string{
	"tech":           "Technology",
	"it":             "Technology",
	"technology":     "Technology",
	"pharma":         "Healthcare",
	"healthcare":     "Healthcare",
	"pharmaceutical": "Healthcare",
	"banking":        "Financial Services",
	"finance":        "Financial Services",
	"financial":      "Financial Services",
	"energy":         "Energy",
	"infrastructure": "Infrastructure",
	"auto":           "Automobile",
	"automobile":     "Automobile",
	"consumer":       "Consumer Goods",
	"fmcg":           "Consumer Goods",
}

// horizonHints maps a keyword phrase to an advisory suitability tag. These
// never become a hard filter (SPEC_FULL.md §4.4).
var horizonHints = map[string]string{
	"retirement": "long_term",
	"long term":  "long_term",
	"short term": "short_term",
}

// nearestAlias finds the closest key in dict to token using sahilm/fuzzy,
// the same scoring library Vedant9500-WTF/internal/search/fuzzy.go uses for
// "did you mean" suggestions. It only accepts a match whose score clears a
// conservative bar, so it recovers alias keywords typed with dropped
// characters ("icic" -> "icici"); fuzzy.Find only matches keys that contain
// every character of token in order, so substituted or transposed
// characters are not recovered. This keeps the parser from becoming a general
// fuzzy matcher — that job belongs to the reranker's fuzzy subscore.
func nearestAlias(token string, dict map[string]string) (key string, ok bool) {
	if len(token) < 3 {
		return "", false
	}
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	matches := fuzzy.Find(token, keys)
	if len(matches) == 0 {
		return "", false
	}
	best := matches[0]
	// Require near-exact closeness: fuzzy.Find scores reward contiguous,
	// in-order rune overlap, so a genuine single-typo alias still scores
	// close to len(token).
	if best.Score < len(token)-2 {
		return "", false
	}
	return keys[best.Index], true
}
