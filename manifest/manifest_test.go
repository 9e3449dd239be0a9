package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := &Manifest{
		EmbeddingModel: "local:hashing-v1",
		EmbeddingDim:   64,
		CorpusChecksum: ChecksumCorpus([]byte("fund_id,fund_name\n")),
		RecordCount:    3,
	}
	require.NoError(t, Write(path, m))

	loaded, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m.EmbeddingModel, loaded.EmbeddingModel)
	assert.Equal(t, m.EmbeddingDim, loaded.EmbeddingDim)
	assert.Equal(t, m.CorpusChecksum, loaded.CorpusChecksum)
	assert.Equal(t, m.RecordCount, loaded.RecordCount)
}

func TestChecksumCorpusIsDeterministic(t *testing.T) {
	a := ChecksumCorpus([]byte("hello"))
	b := ChecksumCorpus([]byte("hello"))
	c := ChecksumCorpus([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestValidateVectorCountMismatchIsFatal(t *testing.T) {
	m := &Manifest{RecordCount: 3}
	assert.Error(t, ValidateVectorCount(m, 3, 2))
	assert.Error(t, ValidateVectorCount(m, 2, 3))
	assert.NoError(t, ValidateVectorCount(m, 3, 3))
}
