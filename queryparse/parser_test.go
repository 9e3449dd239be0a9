package queryparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFundHouseAlias(t *testing.T) {
	pq := Parse("SBI funds")
	c, ok := pq.Constraints["amc"]
	require.True(t, ok)
	assert.Equal(t, "SBI", c.StringValue)
	assert.Equal(t, KindEquality, c.Kind)
}

func TestParseLowRiskSBIDebtFund(t *testing.T) {
	pq := Parse("low risk SBI debt fund")

	amc, ok := pq.Constraints["amc"]
	require.True(t, ok)
	assert.Equal(t, "SBI", amc.StringValue)

	risk, ok := pq.Constraints["risk_level"]
	require.True(t, ok)
	assert.Equal(t, "Low", risk.StringValue)

	cat, ok := pq.Constraints["category"]
	require.True(t, ok)
	assert.Equal(t, "Debt", cat.StringValue)
}

func TestParseMinReturnThreshold(t *testing.T) {
	pq := Parse("ICICI technology fund with 3 year returns above 15%")

	amc, ok := pq.Constraints["amc"]
	require.True(t, ok)
	assert.Equal(t, "ICICI", amc.StringValue)

	sector, ok := pq.Constraints["sector"]
	require.True(t, ok)
	assert.Equal(t, "Technology", sector.StringValue)

	ret, ok := pq.Constraints["min_return_3yr"]
	require.True(t, ok)
	assert.Equal(t, KindMinThreshold, ret.Kind)
	assert.Equal(t, 15.0, ret.Threshold)
}

func TestParseOutOfRangeReturnIsDroppedWithWarning(t *testing.T) {
	pq := Parse("fund with returns over 9999%")

	_, ok := pq.Constraints["min_return_1yr"]
	assert.False(t, ok, "out-of-range return constraint must not be recorded")
	require.Len(t, pq.Warnings, 1)
	assert.Contains(t, pq.Warnings[0].Message, "sane range")
	assert.NotEmpty(t, pq.Residual, "falls back to semantic search on the residual")
}

func TestParseTaxSaverMapsToELSS(t *testing.T) {
	pq := Parse("tax saver")
	c, ok := pq.Constraints["category"]
	require.True(t, ok)
	assert.Equal(t, "ELSS", c.StringValue)
}

func TestParseIsIdempotent(t *testing.T) {
	first := Parse("low risk SBI debt fund with 3 year returns above 15%")
	second := Parse(first.Residual)
	assert.Empty(t, second.Constraints)
	assert.Equal(t, first.Residual, second.Residual)
}

func TestParseMaxExpenseRatio(t *testing.T) {
	pq := Parse("fund with expense ratio below 1.5%")
	c, ok := pq.Constraints["max_expense_ratio"]
	require.True(t, ok)
	assert.Equal(t, KindMaxThreshold, c.Kind)
	assert.Equal(t, 1.5, c.Threshold)
}

func TestParseMinAUMWithUnit(t *testing.T) {
	pq := Parse("fund with aum over 500 crore")
	c, ok := pq.Constraints["min_aum"]
	require.True(t, ok)
	assert.Equal(t, 500.0, c.Threshold)
	assert.Equal(t, "crore", c.Unit)
}

func TestParseHorizonHintIsAdvisoryOnly(t *testing.T) {
	pq := Parse("retirement fund")
	assert.Equal(t, "long_term", pq.HorizonHint)
	_, ok := pq.Constraints["horizon_hint"]
	assert.False(t, ok, "horizon hint must never become a hard filter")
}

func TestParseEmptyQueryIsEmpty(t *testing.T) {
	pq := Parse("")
	assert.True(t, pq.IsEmpty())
}
