package corpus

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
)

// Save writes every record in the store as the sorted fund_id -> row JSON
// mapping required by SPEC_FULL.md §6.
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal corpus store")
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadStore restores a frozen Store from the JSON mapping written by Save.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read corpus store %s", path)
	}
	var records map[string]*FundRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "unmarshal corpus store")
	}

	store := NewStore()
	for id, r := range records {
		if r.FundID == "" {
			r.FundID = id
		}
		if err := store.Add(r); err != nil {
			return nil, err
		}
	}
	store.Freeze()
	return store, nil
}
