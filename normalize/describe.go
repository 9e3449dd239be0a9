package normalize

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/fundscope/retrieval/corpus"
)

// Tokenizer counts tokens in text. The engine treats the tokenizer as an
// injected capability (SPEC_FULL.md §1); DefaultTokenizer below is the
// built-in implementation backed by tiktoken-go.
type Tokenizer interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// tiktokenTokenizer adapts tiktoken-go's BPE encoder to the Tokenizer
// interface, the same way the teacher's chunker wraps it for chunk sizing
// (teilomillet-raggo/rag/chunk.go).
type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// DefaultTokenizer returns a tokenizer using the cl100k_base encoding
// (tiktoken-go's general-purpose BPE vocabulary).
func DefaultTokenizer() Tokenizer {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return wordTokenizer{}
	}
	return &tiktokenTokenizer{enc: enc}
}

func (t *tiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *tiktokenTokenizer) Truncate(text string, maxTokens int) string {
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.enc.Decode(tokens[:maxTokens])
}

// wordTokenizer is a whitespace-based fallback used only if the BPE
// vocabulary fails to load (e.g. offline build environments).
type wordTokenizer struct{}

func (wordTokenizer) Count(text string) int { return len(strings.Fields(text)) }

func (wordTokenizer) Truncate(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}

// Describe synthesizes the natural-language description for a fund record
// per SPEC_FULL.md §4.1: templated sentences over available metadata,
// missing fields omitted (never rendered as "N/A"), truncated to
// tokenBudget tokens via tok.
func Describe(f *corpus.FundRecord, tok Tokenizer, tokenBudget int) string {
	var sb strings.Builder

	if f.FundName != "" {
		sb.WriteString(f.FundName)
		sb.WriteString(".")
	}
	if f.FundHouse != "" {
		sb.WriteString(fmt.Sprintf(" Managed by %s.", f.FundHouse))
	}

	var cat strings.Builder
	if f.Category != "" {
		cat.WriteString(f.Category)
	}
	if f.SubCategory != "" {
		if cat.Len() > 0 {
			cat.WriteString(" / ")
		}
		cat.WriteString(f.SubCategory)
	}
	if cat.Len() > 0 {
		sb.WriteString(fmt.Sprintf(" Category: %s.", cat.String()))
	}

	if f.Sector != "" {
		sb.WriteString(fmt.Sprintf(" Sector focus: %s.", f.Sector))
	}
	if f.RiskLevel != "" {
		sb.WriteString(fmt.Sprintf(" Risk level: %s.", f.RiskLevel))
	}

	if len(f.TopHoldings) > 0 {
		n := len(f.TopHoldings)
		if n > 3 {
			n = 3
		}
		sb.WriteString(fmt.Sprintf(" Top holdings: %s.", strings.Join(f.TopHoldings[:n], ", ")))
	}

	if len(f.SectorAllocation) > 0 {
		n := len(f.SectorAllocation)
		if n > 3 {
			n = 3
		}
		parts := make([]string, 0, n)
		for _, sa := range f.SectorAllocation[:n] {
			parts = append(parts, fmt.Sprintf("%s (%.1f%%)", sa.Sector, sa.Weight*100))
		}
		sb.WriteString(fmt.Sprintf(" Sector allocation: %s.", strings.Join(parts, ", ")))
	}

	description := strings.TrimSpace(sb.String())
	if tok != nil && tokenBudget > 0 {
		description = tok.Truncate(description, tokenBudget)
	}
	return description
}
