package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVHappyPath(t *testing.T) {
	csvData := `fund_id,fund_name,fund_house,category,risk_level,return_3yr,expense_ratio,top_holdings
f1,SBI Bluechip Fund,SBI,Equity,Moderate,14.2,1.1,"HDFC Bank|Infosys|Reliance"
f2,ICICI Tech Fund,ICICI,Equity,High,N/A,1.8,
`
	records, err := ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "f1", records[0].FundID)
	assert.Equal(t, "SBI", records[0].FundHouse)
	require.NotNil(t, records[0].Return3Yr)
	assert.Equal(t, 14.2, *records[0].Return3Yr)
	assert.Equal(t, []string{"HDFC Bank", "Infosys", "Reliance"}, records[0].TopHoldings)

	assert.Nil(t, records[1].Return3Yr, "N/A must parse to an absent field, not zero")
}

func TestParseCSVRejectsMissingFundID(t *testing.T) {
	csvData := `fund_id,fund_name
,Some Fund
`
	_, err := ParseCSV(strings.NewReader(csvData))
	require.Error(t, err)
	var rowErrs RowErrors
	require.ErrorAs(t, err, &rowErrs)
	assert.Contains(t, rowErrs[0].Message, "fund_id")
}

func TestParseCSVRejectsMissingFundName(t *testing.T) {
	csvData := `fund_id,fund_name
f1,
`
	_, err := ParseCSV(strings.NewReader(csvData))
	require.Error(t, err)
	var rowErrs RowErrors
	require.ErrorAs(t, err, &rowErrs)
	assert.Contains(t, rowErrs[0].Message, "fund_name")
}

func TestParseCSVToleratesAliasedHeaders(t *testing.T) {
	csvData := `FundID,FundName,AMC
f1,Some Fund,SBI
`
	records, err := ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SBI", records[0].FundHouse)
}

func TestParseJSONHappyPath(t *testing.T) {
	jsonData := []byte(`[
		{
			"fund_id": "f1",
			"fund_name": "SBI Bluechip Fund",
			"fund_house": "SBI",
			"category": "Equity",
			"risk_level": "moderate",
			"return_3yr": 14.2,
			"sector_allocation": [{"sector": "Financials", "weight": 0.3}]
		}
	]`)
	records, err := ParseJSON(jsonData)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Moderate", string(records[0].RiskLevel))
	require.Len(t, records[0].SectorAllocation, 1)
	assert.Equal(t, "Financials", records[0].SectorAllocation[0].Sector)
}

func TestParseJSONRejectsNonArrayRoot(t *testing.T) {
	_, err := ParseJSON([]byte(`{"fund_id": "f1"}`))
	assert.Error(t, err)
}

func TestParseJSONRejectsMissingFundID(t *testing.T) {
	_, err := ParseJSON([]byte(`[{"fund_name": "Some Fund"}]`))
	require.Error(t, err)
	var rowErrs RowErrors
	require.ErrorAs(t, err, &rowErrs)
}
