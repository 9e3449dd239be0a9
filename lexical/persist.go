package lexical

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
)

// state is the on-disk BM25 snapshot format required by SPEC_FULL.md §6:
// "single JSON or binary blob with vocab, df, tf, lengths, params."
type state struct {
	TermFreq  map[string]map[string]int `json:"term_freq"`
	DocFreq   map[string]int            `json:"doc_freq"`
	DocLength map[string]int            `json:"doc_length"`
	AvgDocLen float64                    `json:"avg_doc_len"`
	TotalDocs int                        `json:"total_docs"`
	Params    Params                     `json:"params"`
}

// Save writes the index's full state to path as JSON.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	s := state{
		TermFreq:  idx.termFreq,
		DocFreq:   idx.docFreq,
		DocLength: idx.docLength,
		AvgDocLen: idx.avgDocLen,
		TotalDocs: idx.totalDocs,
		Params:    idx.params,
	}
	idx.mu.RUnlock()

	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal bm25 state")
	}
	return os.WriteFile(path, data, 0o644)
}

// Load restores an Index previously written by Save.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read bm25 state %s", path)
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshal bm25 state")
	}

	ids := make([]string, 0, len(s.TermFreq))
	for id := range s.TermFreq {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Index{
		termFreq:  s.TermFreq,
		docFreq:   s.DocFreq,
		docLength: s.DocLength,
		avgDocLen: s.AvgDocLen,
		totalDocs: s.TotalDocs,
		ids:       ids,
		params:    s.Params,
	}, nil
}
