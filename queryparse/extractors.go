package queryparse

import (
	"regexp"
	"strconv"
	"strings"
)

// step is one ordered extraction pass: given the current residual, it
// returns the updated residual plus at most one match or warning. Each
// recognized span is removed from the residual before the next step runs,
// so later steps never see text a prior step already consumed.
type step func(residual string) (newResidual string, matches []Match, warnings []Warning)

// steps runs in the fixed, documented order required by SPEC_FULL.md
// §4.4: fund house, risk level, category, sector, minimum return, maximum
// expense ratio, minimum AUM, horizon hint.
var steps = []step{
	extractFundHouse,
	extractRiskLevel,
	extractCategory,
	extractSector,
	extractMinReturn,
	extractMaxExpenseRatio,
	extractMinAUM,
	extractHorizonHint,
}

// replaceWholeWordPhrase removes the first whole-word occurrence of phrase
// from text (case-sensitive; callers pass already-lower-cased text) and
// returns the updated text plus the exact span removed. ok is false if no
// whole-word occurrence exists.
func replaceWholeWordPhrase(text, phrase string) (newText, span string, ok bool) {
	words := strings.Fields(text)
	phraseWords := strings.Fields(phrase)
	if len(phraseWords) == 0 || len(words) < len(phraseWords) {
		return text, "", false
	}
	for i := 0; i+len(phraseWords) <= len(words); i++ {
		match := true
		for j, pw := range phraseWords {
			if words[i+j] != pw {
				match = false
				break
			}
		}
		if match {
			span = strings.Join(words[i:i+len(phraseWords)], " ")
			remaining := append(append([]string{}, words[:i]...), words[i+len(phraseWords):]...)
			return strings.Join(remaining, " "), span, true
		}
	}
	return text, "", false
}

// extractByAliasDict runs a single-pass equality extraction for any
// alias-dictionary family (fund house, risk level, category). The longest
// phrase wins on overlap (e.g. "low risk" before "low"), matching how a
// reader would read the phrase table in SPEC_FULL.md §4.4.
func extractByAliasDict(field string, dict map[string]string) step {
	// Sort phrases by descending word count so multi-word aliases are
	// tried before any single-word alias they contain.
	phrases := make([]string, 0, len(dict))
	for p := range dict {
		phrases = append(phrases, p)
	}
	sortByWordCountDesc(phrases)

	return func(residual string) (string, []Match, []Warning) {
		for _, phrase := range phrases {
			newText, span, ok := replaceWholeWordPhrase(residual, phrase)
			if !ok {
				continue
			}
			return newText, []Match{{
				Field: field,
				Constraint: Constraint{
					Field:       field,
					Kind:        KindEquality,
					StringValue: dict[phrase],
				},
				Span: span,
			}}, nil
		}

		// No exact alias hit: try a typo-tolerant fallback per token, but
		// only accept a nearest dictionary key that is a single word, to
		// avoid spurious multi-word drift.
		words := strings.Fields(residual)
		for _, w := range words {
			if key, ok := nearestAlias(w, dict); ok && len(strings.Fields(key)) == 1 {
				newText, span, replaced := replaceWholeWordPhrase(residual, w)
				if !replaced {
					continue
				}
				return newText, []Match{{
					Field: field,
					Constraint: Constraint{
						Field:       field,
						Kind:        KindEquality,
						StringValue: dict[key],
					},
					Span: span,
				}}, nil
			}
		}
		return residual, nil, nil
	}
}

func sortByWordCountDesc(phrases []string) {
	for i := 1; i < len(phrases); i++ {
		for j := i; j > 0; j-- {
			if len(strings.Fields(phrases[j])) > len(strings.Fields(phrases[j-1])) {
				phrases[j], phrases[j-1] = phrases[j-1], phrases[j]
			} else {
				break
			}
		}
	}
}

func extractFundHouse(residual string) (string, []Match, []Warning) {
	return extractByAliasDict("amc", fundHouseAliases)(residual)
}

func extractRiskLevel(residual string) (string, []Match, []Warning) {
	return extractByAliasDict("risk_level", riskLevelGroups)(residual)
}

func extractCategory(residual string) (string, []Match, []Warning) {
	return extractByAliasDict("category", categoryAliases)(residual)
}

// extractSector requires whole-word matches for single-word sector
// aliases (SPEC_FULL.md §4.4), which extractByAliasDict already enforces
// via replaceWholeWordPhrase.
func extractSector(residual string) (string, []Match, []Warning) {
	return extractByAliasDict("sector", sectorAliases)(residual)
}

func extractHorizonHint(residual string) (string, []Match, []Warning) {
	for phrase, tag := range horizonHints {
		newText, span, ok := replaceWholeWordPhrase(residual, phrase)
		if !ok {
			continue
		}
		return newText, []Match{{
			Field: "horizon_hint",
			Constraint: Constraint{
				Field:       "horizon_hint",
				Kind:        KindEquality,
				StringValue: tag,
			},
			Span: span,
		}}, nil
	}
	return residual, nil, nil
}

// Comparator alternatives omit symbolic forms ("<", ">") since the
// Normalizer (which runs before the parser, per the query → Normalizer →
// Parser data flow) strips anything that is not a letter, digit, space, or
// an intra-word hyphen/percent sign.
//
// The period prefix ("1/3/5 year(s)") is optional: a bare "returns over
// X%" is still a recognizable return-threshold phrase, defaulted to the
// 1-year period when the query does not name one (the spec's own worked
// example "fund with returns over
// 9999%" omits a period and still expects the phrase to be recognized and
// then dropped for being out of range).
var minReturnPattern = regexp.MustCompile(
	`\b(?:(1|3|5) years? )?returns? (over|above|at least|more than|exceeding) (\d+(?:\.\d+)?) ?(?:%|\b)`)

func extractMinReturn(residual string) (string, []Match, []Warning) {
	loc := minReturnPattern.FindStringSubmatchIndex(residual)
	if loc == nil {
		return residual, nil, nil
	}
	groups := submatches(residual, loc)
	period := groups[1]
	if period == "" {
		period = "1"
	}
	valueStr := groups[3]
	span := residual[loc[0]:loc[1]]

	value, err := strconv.ParseFloat(valueStr, 64)
	newResidual := residual[:loc[0]] + residual[loc[1]:]
	newResidual = collapseSpaces(newResidual)

	field := "min_return_" + period + "yr"
	if err != nil || value < 0 || value > 100 {
		return residual, nil, []Warning{{
			Field:   field,
			Span:    span,
			Message: "return threshold out of sane range [0,100]; constraint dropped",
		}}
	}
	return newResidual, []Match{{
		Field: field,
		Constraint: Constraint{
			Field:     field,
			Kind:      KindMinThreshold,
			Threshold: value,
		},
		Span: span,
	}}, nil
}

var maxExpenseRatioPattern = regexp.MustCompile(
	`\bexpense ratio (less than|below|under) (\d+(?:\.\d+)?) ?(?:%|\b)`)

func extractMaxExpenseRatio(residual string) (string, []Match, []Warning) {
	loc := maxExpenseRatioPattern.FindStringSubmatchIndex(residual)
	if loc == nil {
		return residual, nil, nil
	}
	groups := submatches(residual, loc)
	valueStr := groups[2]
	span := residual[loc[0]:loc[1]]

	value, err := strconv.ParseFloat(valueStr, 64)
	newResidual := collapseSpaces(residual[:loc[0]] + residual[loc[1]:])

	if err != nil || value < 0 || value > 100 {
		return residual, nil, []Warning{{
			Field:   "max_expense_ratio",
			Span:    span,
			Message: "expense ratio threshold out of sane range [0,100]; constraint dropped",
		}}
	}
	return newResidual, []Match{{
		Field: "max_expense_ratio",
		Constraint: Constraint{
			Field:     "max_expense_ratio",
			Kind:      KindMaxThreshold,
			Threshold: value,
		},
		Span: span,
	}}, nil
}

// "aum" itself is expanded to "assets under management" by
// normalize.Normalize's abbreviation dictionary before the parser ever
// sees the query, so the trigger phrase here must match the expanded
// form, not the abbreviation.
var minAUMPattern = regexp.MustCompile(
	`\bassets under management (over) (\d+(?:\.\d+)?) ?(cr|crore|lakh|billion|million)?\b`)

func extractMinAUM(residual string) (string, []Match, []Warning) {
	loc := minAUMPattern.FindStringSubmatchIndex(residual)
	if loc == nil {
		return residual, nil, nil
	}
	groups := submatches(residual, loc)
	valueStr := groups[2]
	unit := groups[3]
	span := residual[loc[0]:loc[1]]

	value, err := strconv.ParseFloat(valueStr, 64)
	newResidual := collapseSpaces(residual[:loc[0]] + residual[loc[1]:])

	if err != nil || value < 0 {
		return residual, nil, []Warning{{
			Field:   "min_aum",
			Span:    span,
			Message: "aum threshold is not a valid non-negative number; constraint dropped",
		}}
	}
	return newResidual, []Match{{
		Field: "min_aum",
		Constraint: Constraint{
			Field:     "min_aum",
			Kind:      KindMinThreshold,
			Threshold: value,
			Unit:      unit,
		},
		Span: span,
	}}, nil
}

// submatches extracts regexp capture groups from a FindStringSubmatchIndex
// result against the original string.
func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 || end < 0 {
			continue
		}
		out[i] = s[start:end]
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
