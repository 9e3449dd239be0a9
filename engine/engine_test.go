package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/retrieval/config"
	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/embedtext"
)

func ptr(v float64) *float64 { return &v }

func testEngine(t *testing.T, records []*corpus.FundRecord) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.DenseBackend = "memory"
	cfg.EmbeddingDim = 64
	cfg.SmallPoolThreshold = 200

	provider, err := embedtext.Open("local", map[string]interface{}{"dimension": cfg.EmbeddingDim})
	require.NoError(t, err)

	eng := New(cfg, embedtext.NewEmbedder(provider), nil)
	_, err = eng.Build(context.Background(), records)
	require.NoError(t, err)
	return eng
}

func sampleCorpus() []*corpus.FundRecord {
	return []*corpus.FundRecord{
		{
			FundID: "sbi-debt-1", FundName: "SBI Short Term Debt Fund", FundHouse: "SBI",
			Category: "Debt", RiskLevel: corpus.RiskLow, Sector: "Diversified",
			Return1Yr: ptr(7.2), Return3Yr: ptr(7.8), Return5Yr: ptr(8.0),
			ExpenseRatio: ptr(0.4), AUM: ptr(1200),
		},
		{
			FundID: "sbi-debt-2", FundName: "SBI Dynamic Bond Fund", FundHouse: "SBI",
			Category: "Hybrid", RiskLevel: corpus.RiskModerate, Sector: "Diversified",
			Return1Yr: ptr(6.5), Return3Yr: ptr(7.0), Return5Yr: ptr(7.5),
			ExpenseRatio: ptr(0.6), AUM: ptr(800),
		},
		{
			FundID: "sbi-debt-3", FundName: "SBI Liquid Fund", FundHouse: "SBI",
			Category: "Liquid", RiskLevel: corpus.RiskLow, Sector: "Diversified",
			Return1Yr: ptr(6.0), Return3Yr: ptr(6.2), Return5Yr: ptr(6.5),
			ExpenseRatio: ptr(0.2), AUM: ptr(3000),
		},
		{
			FundID: "icici-tech-1", FundName: "ICICI Prudential Technology Fund", FundHouse: "ICICI",
			Category: "Equity", SubCategory: "Sectoral", RiskLevel: corpus.RiskHigh, Sector: "Technology",
			Return1Yr: ptr(22.0), Return3Yr: ptr(18.0), Return5Yr: ptr(16.0),
			ExpenseRatio: ptr(1.8), AUM: ptr(5000),
		},
		{
			FundID: "icici-tech-2", FundName: "ICICI Digital Innovation Fund", FundHouse: "ICICI",
			Category: "Equity", SubCategory: "Sectoral", RiskLevel: corpus.RiskHigh, Sector: "Technology",
			Return1Yr: ptr(19.0), Return3Yr: ptr(13.0), Return5Yr: ptr(14.0),
			ExpenseRatio: ptr(1.6), AUM: ptr(2200),
		},
		{
			FundID: "hdfc-flexi-1", FundName: "HDFC Flexicap Fund", FundHouse: "HDFC",
			Category: "Equity", SubCategory: "Flexi Cap", RiskLevel: corpus.RiskModerate, Sector: "Diversified",
			Return1Yr: ptr(14.0), Return3Yr: ptr(12.5), Return5Yr: ptr(13.0),
			ExpenseRatio: ptr(1.1), AUM: ptr(9000),
		},
		{
			FundID: "uti-elss-1", FundName: "UTI Long Term Equity Fund", FundHouse: "UTI",
			Category: "ELSS", RiskLevel: corpus.RiskHigh, Sector: "Diversified",
			Return1Yr: ptr(15.0), Return3Yr: ptr(11.0), Return5Yr: ptr(12.0),
			ExpenseRatio: ptr(1.3), AUM: ptr(2600),
		},
	}
}

func TestSearchInvalidKIsRejected(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	_, err := eng.Search(context.Background(), SearchRequest{Query: "SBI", K: 0})
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = eng.Search(context.Background(), SearchRequest{Query: "SBI", K: 101})
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestSearchEmptyQueryReturnsEmptyResult(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	results, err := eng.Search(context.Background(), SearchRequest{Query: "", K: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// Scenario 1 of SPEC_FULL.md §8: "low risk SBI debt fund" ranks the SBI
// debt fund whose risk_level is Low first, and since only SBI funds pass
// the hard amc filter, every result has fund_house == SBI.
func TestLowRiskSBIDebtFundRanksLowRiskFundFirst(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	results, err := eng.Search(context.Background(), SearchRequest{Query: "low risk SBI debt fund", K: 3, Explain: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "sbi-debt-1", results[0].FundID)
	assert.GreaterOrEqual(t, results[0].MetadataScore, 0.8)
	for _, r := range results {
		assert.Equal(t, "SBI", r.FundHouse)
	}
}

// Scenario 3: "tax saver" resolves to category == ELSS and every result
// satisfies that hard filter.
func TestTaxSaverResolvesToELSSCategory(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	results, err := eng.Search(context.Background(), SearchRequest{Query: "tax saver", K: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "ELSS", r.Category)
	}
}

// Scenario 4: a misspelled fund name still ranks the intended fund first
// on fuzzy + metadata strength.
func TestMisspelledFundNameRanksIntendedFundFirst(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	results, err := eng.Search(context.Background(), SearchRequest{Query: "hdfc flexcap", K: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "hdfc-flexi-1", results[0].FundID)
}

// Scenario 5: an out-of-range return threshold is dropped, with the query
// falling back to semantic/lexical search on the residual rather than
// erroring out.
func TestOutOfRangeReturnThresholdFallsBackToResidualSearch(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	results, err := eng.Search(context.Background(), SearchRequest{Query: "fund with returns over 9999%", K: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSearchResultsAreSortedByFinalScoreDescending(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	results, err := eng.Search(context.Background(), SearchRequest{Query: "technology fund", K: 5})
	require.NoError(t, err)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FinalScore, results[i].FinalScore)
	}
}

func TestExplainPromptBuildsAdvisorPromptOverTopThree(t *testing.T) {
	eng := testEngine(t, sampleCorpus())
	text, funds, err := eng.ExplainPrompt(context.Background(), "SBI debt fund")
	require.NoError(t, err)
	assert.Contains(t, text, "You are a mutual fund advisor")
	assert.Contains(t, text, "SBI debt fund")
	assert.LessOrEqual(t, len(funds), 3)
}

func TestSearchWithoutBuiltGenerationReturnsError(t *testing.T) {
	cfg := config.Default()
	cfg.DenseBackend = "memory"
	provider, err := embedtext.Open("local", nil)
	require.NoError(t, err)
	eng := New(cfg, embedtext.NewEmbedder(provider), nil)

	_, err = eng.Search(context.Background(), SearchRequest{Query: "SBI", K: 5})
	assert.ErrorIs(t, err, ErrNoActiveGeneration)
}

func TestDuplicateFundIDRejectedAtBuild(t *testing.T) {
	cfg := config.Default()
	cfg.DenseBackend = "memory"
	provider, err := embedtext.Open("local", nil)
	require.NoError(t, err)
	eng := New(cfg, embedtext.NewEmbedder(provider), nil)

	dup := []*corpus.FundRecord{
		{FundID: "f1", FundName: "Fund One"},
		{FundID: "f1", FundName: "Fund One Duplicate"},
	}
	_, err = eng.Build(context.Background(), dup)
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "f1", buildErr.FundID)
}
