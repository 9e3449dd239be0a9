// Package corpus holds the FundRecord data model and the in-memory,
// generation-versioned store that maps fund identifiers to records.
package corpus

import (
	"math"

	"github.com/cockroachdb/errors"
)

// RiskLevel is one of the three canonical risk tiers.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Valid reports whether r is one of the three canonical risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	default:
		return false
	}
}

// AdjacentTo reports whether r and other are adjacent risk tiers
// (Low<->Moderate, Moderate<->High), used for partial metadata credit.
func (r RiskLevel) AdjacentTo(other RiskLevel) bool {
	order := map[RiskLevel]int{RiskLow: 0, RiskModerate: 1, RiskHigh: 2}
	a, aok := order[r]
	b, bok := order[other]
	if !aok || !bok {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff == 1
}

// SectorAllocation is one entry of a fund's sector weighting.
type SectorAllocation struct {
	Sector string
	Weight float64 // fraction in [0,1]
}

// FundRecord is the immutable, per-generation description of one mutual
// fund. See SPEC_FULL.md §3 for field semantics and invariants.
type FundRecord struct {
	FundID      string
	FundName    string
	FundHouse   string
	Category    string
	SubCategory string
	AssetClass  string
	FundType    string
	Sector      string
	RiskLevel   RiskLevel

	// Optional numeric fields. A nil pointer means "absent", which must
	// never be treated as zero during scoring.
	ExpenseRatio *float64
	Return1Yr    *float64
	Return3Yr    *float64
	Return5Yr    *float64
	AUM          *float64

	TopHoldings      []string
	SectorAllocation []SectorAllocation

	// Description is synthesized at ingestion time (see package normalize).
	Description string

	// Informational-only fields, never used in scoring.
	ISIN           string
	LaunchDate     string
	BenchmarkIndex string
}

// Validate checks the invariants from SPEC_FULL.md §3: fund_id/fund_name
// non-empty, numeric fields finite and in range, risk level canonical if
// present, sector allocation weights sum to at most 1.0.
func (f *FundRecord) Validate() error {
	if f.FundID == "" {
		return errors.New("fund_id is required")
	}
	if f.FundName == "" {
		return errors.Newf("fund_id %q: fund_name is required", f.FundID)
	}
	if f.RiskLevel != "" && !f.RiskLevel.Valid() {
		return errors.Newf("fund_id %q: invalid risk_level %q", f.FundID, f.RiskLevel)
	}
	for name, v := range map[string]*float64{
		"expense_ratio": f.ExpenseRatio,
		"return_1yr":    f.Return1Yr,
		"return_3yr":    f.Return3Yr,
		"return_5yr":    f.Return5Yr,
		"aum":           f.AUM,
	} {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return errors.Newf("fund_id %q: %s is not finite", f.FundID, name)
		}
	}
	if f.ExpenseRatio != nil && *f.ExpenseRatio < 0 {
		return errors.Newf("fund_id %q: expense_ratio must be non-negative", f.FundID)
	}
	if f.AUM != nil && *f.AUM < 0 {
		return errors.Newf("fund_id %q: aum must be non-negative", f.FundID)
	}
	for name, v := range map[string]*float64{
		"return_1yr": f.Return1Yr,
		"return_3yr": f.Return3Yr,
		"return_5yr": f.Return5Yr,
	} {
		if v == nil {
			continue
		}
		if *v < -100 || *v > 1000 {
			return errors.Newf("fund_id %q: %s out of range [-100,1000]", f.FundID, name)
		}
	}
	var weightSum float64
	for _, sa := range f.SectorAllocation {
		weightSum += sa.Weight
	}
	if weightSum > 1.0+1e-6 {
		return errors.Newf("fund_id %q: sector_allocation weights sum to %.4f > 1.0", f.FundID, weightSum)
	}
	return nil
}
