// Package manifest implements the sidecar manifest of SPEC_FULL.md §6: a
// small JSON record alongside the persisted index artifacts, naming the
// embedding model identity and version, a corpus checksum, and the build
// timestamp. Loading an index validates the manifest before trusting the
// artifacts it describes.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// Manifest describes one build generation's persisted artifacts.
type Manifest struct {
	EmbeddingModel   string    `json:"embedding_model"`
	EmbeddingDim     int       `json:"embedding_dim"`
	CorpusChecksum   string    `json:"corpus_checksum"`
	RecordCount      int       `json:"record_count"`
	BuildTimestamp   time.Time `json:"build_timestamp"`
	BM25K1           float64   `json:"bm25_k1"`
	BM25B            float64   `json:"bm25_b"`
	VectorArrayFile  string    `json:"vector_array_file"`
	IDMappingFile    string    `json:"id_mapping_file"`
	BM25StateFile    string    `json:"bm25_state_file"`
	DenseBackend     string    `json:"dense_backend"`
}

// ChecksumCorpus computes a stable checksum over the raw corpus bytes
// (the CSV or JSON payload ingest read from), so a manifest can detect
// whether the on-disk artifacts still correspond to the input that
// produced them.
func ChecksumCorpus(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Write serializes m as indented JSON to path.
func Write(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads and parses the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal manifest")
	}
	return &m, nil
}

// ValidateVectorCount checks the "vector count equals the mapping size"
// invariant from SPEC_FULL.md §6: a mismatch is a fatal load error.
func ValidateVectorCount(m *Manifest, vectorCount, mappingSize int) error {
	if vectorCount != mappingSize {
		return errors.Newf(
			"manifest validation failed: vector array has %d rows but id mapping has %d entries",
			vectorCount, mappingSize)
	}
	if m.RecordCount != 0 && m.RecordCount != mappingSize {
		return errors.Newf(
			"manifest validation failed: manifest declares %d records but id mapping has %d entries",
			m.RecordCount, mappingSize)
	}
	return nil
}
