package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.WeightsSumToOne())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundrag.json")

	cfg := Default()
	cfg.K1 = 1.8
	cfg.DenseBackend = "chromem"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.8, loaded.K1)
	assert.Equal(t, "chromem", loaded.DenseBackend)
}

func TestLoadFallsBackToDefaultsWhenNoFileOrEnv(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().K1, cfg.K1)
	assert.Equal(t, "memory", cfg.DenseBackend)
}

func TestEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundrag.json")

	cfg := Default()
	cfg.K1 = 1.8
	require.NoError(t, cfg.Save(path))

	t.Setenv("FUNDRAG_BM25_K1", "2.5")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, loaded.K1)
}

func TestWeightsSumToOneRejectsSkewedWeights(t *testing.T) {
	cfg := Default()
	cfg.WeightSemantic = 0.9
	assert.False(t, cfg.WeightsSumToOne())
}
