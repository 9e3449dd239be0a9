package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fundscope/retrieval/corpus"
)

func TestNormalizeLowercasesAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "sbi bluechip fund", Normalize("  SBI   Bluechip    Fund  "))
}

func TestNormalizeKeepsIntraWordHyphens(t *testing.T) {
	assert.Equal(t, "large-cap fund", Normalize("Large-Cap Fund"))
}

func TestNormalizeDropsLeadingAndTrailingHyphens(t *testing.T) {
	assert.Equal(t, "fund", Normalize("-Fund-"))
}

func TestNormalizeKeepsPercentAdjacentToDigit(t *testing.T) {
	assert.Equal(t, "returns of 12% last year", Normalize("Returns of 12% last year"))
}

func TestNormalizeDropsStandalonePercentSign(t *testing.T) {
	assert.Equal(t, "returns of last year", Normalize("Returns of % last year"))
}

func TestNormalizeStripsGeneralPunctuation(t *testing.T) {
	assert.Equal(t, "hdfc flexicap fund net asset value growth", Normalize("HDFC Flexicap Fund, NAV (Growth)!"))
}

func TestNormalizeExpandsKnownAbbreviations(t *testing.T) {
	assert.Equal(t, "net asset value update", Normalize("NAV update"))
	assert.Equal(t, "systematic investment plan enrollment", Normalize("SIP enrollment"))
}

func TestTokenizeSplitsOnWhitespace(t *testing.T) {
	assert.Equal(t, []string{"sbi", "bluechip", "fund"}, Tokenize(Normalize("SBI Bluechip Fund")))
}

func TestDescribeOmitsMissingFieldsWithoutNA(t *testing.T) {
	f := &corpus.FundRecord{FundName: "SBI Bluechip Fund"}
	desc := Describe(f, nil, 0)
	assert.Contains(t, desc, "SBI Bluechip Fund")
	assert.NotContains(t, desc, "N/A")
	assert.NotContains(t, desc, "Managed by")
}

func TestDescribeIncludesTopThreeHoldingsAndSectorWeights(t *testing.T) {
	f := &corpus.FundRecord{
		FundName:    "ICICI Technology Fund",
		FundHouse:   "ICICI",
		Category:    "Equity",
		SubCategory: "Sectoral",
		TopHoldings: []string{"Infosys", "TCS", "Wipro", "HCL Tech"},
		SectorAllocation: []corpus.SectorAllocation{
			{Sector: "Technology", Weight: 0.65},
			{Sector: "Financials", Weight: 0.15},
		},
	}
	desc := Describe(f, nil, 0)
	assert.Contains(t, desc, "Managed by ICICI")
	assert.Contains(t, desc, "Equity / Sectoral")
	assert.Contains(t, desc, "Infosys, TCS, Wipro")
	assert.NotContains(t, desc, "HCL Tech")
	assert.Contains(t, desc, "Technology (65.0%)")
}

func TestDescribeTruncatesToTokenBudget(t *testing.T) {
	f := &corpus.FundRecord{
		FundName:  "A Very Long Fund Name That Goes On And On",
		FundHouse: "Some Asset Management Company",
		Category:  "Equity",
	}
	full := Describe(f, wordTokenizer{}, 0)
	truncated := Describe(f, wordTokenizer{}, 3)
	assert.Less(t, len(truncated), len(full))
}
