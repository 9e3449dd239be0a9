// Package normalize implements the text normalization and description
// synthesis described in SPEC_FULL.md §4.1. The same Normalize function
// runs at index build time (over synthesized descriptions) and at query
// time, which is the invariant the rest of the engine depends on.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// abbreviations expands domain shorthand before tokenization. Keys and
// values are already lower-case.
var abbreviations = map[string]string{
	"amc":     "asset management company",
	"elss":    "tax-saving equity-linked saving scheme",
	"nav":     "net asset value",
	"sip":     "systematic investment plan",
	"etf":     "exchange traded fund",
	"aum":     "assets under management",
	"ter":     "total expense ratio",
	"idx":     "index",
	"lrg cap": "large cap",
	"mid cap": "mid cap",
	"sm cap":  "small cap",
}

// Normalize folds text to NFKC, lower-cases it, collapses whitespace,
// strips punctuation (except intra-word hyphens, decimal points between
// digits, and percent signs adjacent to digits), and expands the
// abbreviation dictionary, two-word keys before single words. It must be applied
// identically to indexed documents and to queries.
func Normalize(text string) string {
	folded := norm.NFKC.String(text)
	lower := strings.ToLower(folded)
	stripped := stripPunctuation(lower)
	collapsed := collapseWhitespace(stripped)
	return expandAbbreviations(collapsed)
}

// Tokenize splits normalized text on whitespace, matching the BM25 index's
// own tokenization contract (SPEC_FULL.md §4.2).
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}

func stripPunctuation(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i, r := range runes {
		if r == '-' {
			// Keep intra-word hyphens: both neighbors must be letters/digits.
			if i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
				out = append(out, r)
				continue
			}
			out = append(out, ' ')
			continue
		}
		if r == '.' && i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			// Keep decimal points between digits, so "1.5%" stays one number.
			out = append(out, r)
			continue
		}
		if r == '%' {
			// Keep percent signs adjacent to a digit.
			if i > 0 && unicode.IsDigit(runes[i-1]) {
				out = append(out, r)
				continue
			}
			out = append(out, ' ')
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			out = append(out, r)
			continue
		}
		out = append(out, ' ')
	}
	return string(out)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		w := words[i]
		if i+1 < len(words) {
			if expanded, ok := abbreviations[w+" "+words[i+1]]; ok {
				out = append(out, expanded)
				i++
				continue
			}
		}
		if expanded, ok := abbreviations[w]; ok {
			out = append(out, expanded)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
