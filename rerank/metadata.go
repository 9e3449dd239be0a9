package rerank

import (
	"sort"
	"strings"

	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/queryparse"
)

// metadataWeights is the fixed per-constraint weight table from
// SPEC_FULL.md §4.6.
var metadataWeights = map[string]float64{
	"amc":               2.0,
	"category":          1.5,
	"risk_level":        1.2,
	"sector":            1.2,
	"min_return_1yr":    1.0,
	"min_return_3yr":    1.0,
	"min_return_5yr":    1.0,
	"max_expense_ratio": 0.8,
	"min_aum":           0.8,
}

// Component is one (constraint, indicator, weight, contribution) tuple in
// the metadata subscore's explanation, per SPEC_FULL.md §9's
// explainability requirement.
type Component struct {
	Field        string
	Weight       float64
	Indicator    float64
	Contribution float64 // Weight * Indicator
}

// partialCreditMin implements the single partial-credit helper SPEC_FULL.md
// §9 calls for: full credit at or above threshold, linear partial credit
// in the band immediately below it, zero below the band. Used by every
// "minimum X" constraint (returns, AUM).
func partialCreditMin(value *float64, threshold, band float64) float64 {
	if value == nil || threshold == 0 {
		return 0
	}
	v := *value
	if v >= threshold {
		return 1
	}
	lowerBound := threshold * (1 - band)
	if v >= lowerBound {
		return v / threshold
	}
	return 0
}

// partialCreditMax is partialCreditMin's mirror image for "maximum X"
// constraints (expense ratio): full credit at or below threshold, partial
// credit in the band immediately above it.
func partialCreditMax(value *float64, threshold, band float64) float64 {
	if value == nil || threshold == 0 {
		return 0
	}
	v := *value
	if v <= threshold {
		return 1
	}
	upperBound := threshold * (1 + band)
	if v <= upperBound {
		return threshold / v
	}
	return 0
}

// MetadataSubscore computes s_meta for one fund against the parser's
// constraint set, per SPEC_FULL.md §4.6. If the constraint set is empty,
// s_meta is 0 (there is nothing to reward), not 1.
func MetadataSubscore(f *corpus.FundRecord, constraints map[string]queryparse.Constraint, band float64) (float64, []Component) {
	if len(constraints) == 0 {
		return 0, nil
	}

	fields := make([]string, 0, len(constraints))
	for field := range constraints {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var components []Component
	var weightedSum, weightSum float64

	for _, field := range fields {
		c := constraints[field]
		weight, known := metadataWeights[field]
		if !known {
			continue
		}
		indicator := metadataIndicator(f, c, band)
		components = append(components, Component{
			Field:        field,
			Weight:       weight,
			Indicator:    indicator,
			Contribution: weight * indicator,
		})
		weightedSum += weight * indicator
		weightSum += weight
	}

	if weightSum == 0 {
		return 0, components
	}
	return weightedSum / weightSum, components
}

func metadataIndicator(f *corpus.FundRecord, c queryparse.Constraint, band float64) float64 {
	switch c.Field {
	case "amc":
		return equalityIndicator(f.FundHouse, c.StringValue)
	case "category":
		return equalityIndicator(f.Category, c.StringValue)
	case "risk_level":
		return riskLevelIndicator(f.RiskLevel, corpus.RiskLevel(c.StringValue))
	case "sector":
		return sectorIndicator(f, c.StringValue)
	case "min_return_1yr":
		return partialCreditMin(f.Return1Yr, c.Threshold, band)
	case "min_return_3yr":
		return partialCreditMin(f.Return3Yr, c.Threshold, band)
	case "min_return_5yr":
		return partialCreditMin(f.Return5Yr, c.Threshold, band)
	case "max_expense_ratio":
		return partialCreditMax(f.ExpenseRatio, c.Threshold, band)
	case "min_aum":
		return partialCreditMin(f.AUM, c.Threshold, band)
	default:
		return 0
	}
}

func equalityIndicator(value, want string) float64 {
	if value == "" || want == "" {
		return 0
	}
	if strings.EqualFold(value, want) {
		return 1
	}
	return 0
}

func riskLevelIndicator(have, want corpus.RiskLevel) float64 {
	if have == "" || want == "" {
		return 0
	}
	if strings.EqualFold(string(have), string(want)) {
		return 1
	}
	if have.AdjacentTo(want) {
		return 0.5
	}
	return 0
}

func sectorIndicator(f *corpus.FundRecord, want string) float64 {
	if f.Sector != "" && strings.EqualFold(f.Sector, want) {
		return 1
	}
	n := len(f.SectorAllocation)
	if n > 3 {
		n = 3
	}
	for _, sa := range f.SectorAllocation[:n] {
		if strings.EqualFold(sa.Sector, want) {
			return 0.5
		}
	}
	return 0
}
