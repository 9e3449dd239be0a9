// Package ingest implements the input contract of SPEC_FULL.md §6: parsing
// a tabular fund corpus (CSV or JSON) into FundRecords, with lenient
// numeric parsing and line-level rejection of rows missing fund_id or
// fund_name. Data acquisition upstream of this contract (how the CSV/JSON
// reached the build machine) is out of scope per SPEC_FULL.md §1.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/fundscope/retrieval/corpus"
)

// RowError is one line-level rejection, aggregated into a RowErrors build
// error (SPEC_FULL.md §7: "malformed row... fatal at build time").
type RowError struct {
	Line    int // CSV: file line, header is line 1; JSON: 1-based array index
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// RowErrors aggregates every rejected row from one ingest call.
type RowErrors []RowError

func (e RowErrors) Error() string {
	lines := make([]string, len(e))
	for i, re := range e {
		lines[i] = re.Error()
	}
	return fmt.Sprintf("%d malformed row(s):\n%s", len(e), strings.Join(lines, "\n"))
}

// columnAliases maps accepted header spellings to the canonical field
// name, tolerating the column-naming variance a real upstream export
// tends to have (snake_case, spaced, or title-cased headers).
var columnAliases = map[string]string{
	"fund_id": "fund_id", "fundid": "fund_id", "id": "fund_id",
	"fund_name": "fund_name", "fundname": "fund_name", "name": "fund_name",
	"fund_house": "fund_house", "amc": "fund_house", "fundhouse": "fund_house",
	"category": "category",
	"sub_category": "sub_category", "subcategory": "sub_category",
	"asset_class": "asset_class", "assetclass": "asset_class",
	"fund_type": "fund_type", "fundtype": "fund_type",
	"sector": "sector",
	"risk_level": "risk_level", "risk": "risk_level",
	"expense_ratio": "expense_ratio", "expenseratio": "expense_ratio",
	"return_1yr": "return_1yr", "return1yr": "return_1yr", "1yr_return": "return_1yr",
	"return_3yr": "return_3yr", "return3yr": "return_3yr", "3yr_return": "return_3yr",
	"return_5yr": "return_5yr", "return5yr": "return_5yr", "5yr_return": "return_5yr",
	"aum": "aum",
	"top_holdings": "top_holdings", "topholdings": "top_holdings",
	"isin":            "isin",
	"launch_date":     "launch_date",
	"benchmark_index": "benchmark_index", "benchmark": "benchmark_index",
}

// ParseCSV reads a fund corpus from CSV, one row per fund. The first row
// must be a header; column order is unconstrained. top_holdings, if
// present, is a single field with holdings separated by "|" or ";".
// sector_allocation is not representable in flat CSV and is left empty;
// populate it via ParseJSON or programmatically when needed.
func ParseCSV(r io.Reader) ([]*corpus.FundRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read csv header")
	}

	columns := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := columnAliases[key]; ok {
			columns[i] = canonical
		} else {
			columns[i] = key
		}
	}

	var records []*corpus.FundRecord
	var rowErrs RowErrors

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				fields[col] = strings.TrimSpace(row[i])
			}
		}

		rec, rowErr := recordFromFields(fields)
		if rowErr != "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: rowErr})
			continue
		}
		records = append(records, rec)
	}

	if len(rowErrs) > 0 {
		return nil, rowErrs
	}
	return records, nil
}

func recordFromFields(f map[string]string) (*corpus.FundRecord, string) {
	fundID := f["fund_id"]
	fundName := f["fund_name"]
	if fundID == "" {
		return nil, "missing fund_id"
	}
	if fundName == "" {
		return nil, "missing fund_name"
	}

	rec := &corpus.FundRecord{
		FundID:         fundID,
		FundName:       fundName,
		FundHouse:      f["fund_house"],
		Category:       f["category"],
		SubCategory:    f["sub_category"],
		AssetClass:     f["asset_class"],
		FundType:       f["fund_type"],
		Sector:         f["sector"],
		RiskLevel:      corpus.RiskLevel(normalizeRiskLevel(f["risk_level"])),
		ISIN:           f["isin"],
		LaunchDate:     f["launch_date"],
		BenchmarkIndex: f["benchmark_index"],
	}

	rec.ExpenseRatio = parseLenientFloat(f["expense_ratio"])
	rec.Return1Yr = parseLenientFloat(f["return_1yr"])
	rec.Return3Yr = parseLenientFloat(f["return_3yr"])
	rec.Return5Yr = parseLenientFloat(f["return_5yr"])
	rec.AUM = parseLenientFloat(f["aum"])

	if holdings := f["top_holdings"]; holdings != "" {
		rec.TopHoldings = splitHoldings(holdings)
	}

	return rec, ""
}

// normalizeRiskLevel canonicalizes common spellings to Low/Moderate/High,
// leaving anything unrecognized as-is so FundRecord.Validate can reject it.
func normalizeRiskLevel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "l":
		return string(corpus.RiskLow)
	case "moderate", "medium", "m":
		return string(corpus.RiskModerate)
	case "high", "h":
		return string(corpus.RiskHigh)
	case "":
		return ""
	default:
		return raw
	}
}

// parseLenientFloat parses a numeric field leniently (SPEC_FULL.md §6):
// blank, "n/a", or unparseable values become an absent field rather than
// an error, since absence carries distinct scoring semantics from zero.
func parseLenientFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "%")
	if raw == "" || strings.EqualFold(raw, "n/a") || strings.EqualFold(raw, "na") {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func splitHoldings(raw string) []string {
	sep := "|"
	if strings.Contains(raw, ";") && !strings.Contains(raw, "|") {
		sep = ";"
	}
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseJSON reads a fund corpus from a JSON array of fund objects, using
// gjson for tolerant field extraction (a row missing an expected key
// simply yields a zero value rather than a parse error, matching CSV's
// lenient-numeric-parsing posture for optional fields).
func ParseJSON(data []byte) ([]*corpus.FundRecord, error) {
	result := gjson.ParseBytes(data)
	if !result.IsArray() {
		return nil, errors.New("ingest: JSON corpus root must be an array of fund objects")
	}

	var records []*corpus.FundRecord
	var rowErrs RowErrors

	idx := 0
	result.ForEach(func(_, row gjson.Result) bool {
		idx++
		line := idx

		fundID := row.Get("fund_id").String()
		fundName := row.Get("fund_name").String()
		if fundID == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "missing fund_id"})
			return true
		}
		if fundName == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "missing fund_name"})
			return true
		}

		rec := &corpus.FundRecord{
			FundID:         fundID,
			FundName:       fundName,
			FundHouse:      row.Get("fund_house").String(),
			Category:       row.Get("category").String(),
			SubCategory:    row.Get("sub_category").String(),
			AssetClass:     row.Get("asset_class").String(),
			FundType:       row.Get("fund_type").String(),
			Sector:         row.Get("sector").String(),
			RiskLevel:      corpus.RiskLevel(normalizeRiskLevel(row.Get("risk_level").String())),
			ISIN:           row.Get("isin").String(),
			LaunchDate:     row.Get("launch_date").String(),
			BenchmarkIndex: row.Get("benchmark_index").String(),
		}

		rec.ExpenseRatio = gjsonFloat(row.Get("expense_ratio"))
		rec.Return1Yr = gjsonFloat(row.Get("return_1yr"))
		rec.Return3Yr = gjsonFloat(row.Get("return_3yr"))
		rec.Return5Yr = gjsonFloat(row.Get("return_5yr"))
		rec.AUM = gjsonFloat(row.Get("aum"))

		for _, h := range row.Get("top_holdings").Array() {
			rec.TopHoldings = append(rec.TopHoldings, h.String())
		}
		for _, sa := range row.Get("sector_allocation").Array() {
			rec.SectorAllocation = append(rec.SectorAllocation, corpus.SectorAllocation{
				Sector: sa.Get("sector").String(),
				Weight: sa.Get("weight").Float(),
			})
		}

		records = append(records, rec)
		return true
	})

	if len(rowErrs) > 0 {
		return nil, rowErrs
	}
	return records, nil
}

func gjsonFloat(r gjson.Result) *float64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.Type == gjson.String && (r.String() == "" || strings.EqualFold(r.String(), "n/a")) {
		return nil
	}
	v := r.Float()
	return &v
}
