// Package prompt implements the RAG Prompt Builder of SPEC_FULL.md §4.7:
// a pure function of (query, candidates) that formats the top reranked
// funds into a fixed advisor prompt. The LLM invocation itself is out of
// scope (SPEC_FULL.md §1); this package only builds the text that would be
// handed to one, the same split teilomillet-raggo/simple_rag.go makes
// between building a prompt string (fmt.Sprintf over retrieved content)
// and calling the LLM.
package prompt

import (
	"fmt"
	"strings"

	"github.com/fundscope/retrieval/corpus"
)

// TopN is the fixed candidate count the prompt renders (SPEC_FULL.md §4.7:
// "Explain-prompt operation... k: integer (fixed at 3 for the prompt)").
const TopN = 3

// Build renders the advisor prompt for query over candidates. Fewer than
// TopN candidates is handled by padding remaining slots with
// "No additional fund data available."; missing numeric fields render as
// "N/A".
func Build(query string, candidates []*corpus.FundRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a mutual fund advisor. A user asked: %q.\n", query)
	sb.WriteString("Here are top matching funds:\n")

	for i := 0; i < TopN; i++ {
		fmt.Fprintf(&sb, "FUND %d: ", i+1)
		if i < len(candidates) {
			sb.WriteString(renderFund(candidates[i]))
		} else {
			sb.WriteString("No additional fund data available.\n")
		}
	}

	sb.WriteString("Which one is the best match? Explain why in 3 sentences.\n")
	return sb.String()
}

func renderFund(f *corpus.FundRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", f.FundName)
	fmt.Fprintf(&sb, "- AMC: %s\n", f.FundHouse)
	fmt.Fprintf(&sb, "- Category: %s\n", f.Category)
	fmt.Fprintf(&sb, "- Risk Level: %s\n", orNA(string(f.RiskLevel)))
	fmt.Fprintf(&sb, "- Returns: 1yr: %s%%, 3yr: %s%%, 5yr: %s%%\n",
		formatPercent(f.Return1Yr), formatPercent(f.Return3Yr), formatPercent(f.Return5Yr))
	fmt.Fprintf(&sb, "- Expense Ratio: %s%%\n", formatPercent(f.ExpenseRatio))
	return sb.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}
