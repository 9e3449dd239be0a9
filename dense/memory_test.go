package dense

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexSearchOrdersByDescendingSimilarity(t *testing.T) {
	idx := NewMemoryIndex(3)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "fund-b", Normalize(Vector{1, 0, 0})))
	require.NoError(t, idx.Add(ctx, "fund-a", Normalize(Vector{0.9, 0.1, 0})))
	require.NoError(t, idx.Add(ctx, "fund-c", Normalize(Vector{0, 1, 0})))

	results, err := idx.Search(ctx, Normalize(Vector{1, 0, 0}), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "fund-b", results[0].FundID)
	assert.Equal(t, "fund-a", results[1].FundID)
}

func TestMemoryIndexSearchTieBreaksByFundID(t *testing.T) {
	idx := NewMemoryIndex(2)
	ctx := context.Background()

	v := Normalize(Vector{1, 0})
	require.NoError(t, idx.Add(ctx, "fund-z", v))
	require.NoError(t, idx.Add(ctx, "fund-a", v))

	results, err := idx.Search(ctx, v, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "fund-a", results[0].FundID)
	assert.Equal(t, "fund-z", results[1].FundID)
}

func TestMemoryIndexRejectsWrongDimension(t *testing.T) {
	idx := NewMemoryIndex(3)
	err := idx.Add(context.Background(), "fund-a", Vector{1, 0})
	assert.Error(t, err)
}

func TestMemoryIndexSaveAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx := NewMemoryIndex(2)
	require.NoError(t, idx.Add(ctx, "fund-a", Normalize(Vector{1, 0})))
	require.NoError(t, idx.Add(ctx, "fund-b", Normalize(Vector{0, 1})))
	require.NoError(t, idx.Save(dir))

	restored, err := LoadMemoryIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())

	results, err := restored.Search(ctx, Normalize(Vector{1, 0}), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fund-a", results[0].FundID)
}

func TestReadVectorArrayRejectsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")

	require.NoError(t, WriteVectorArray(path, []string{"fund-a"}, []Vector{{1, 2, 3}}, 3))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, _, err = ReadVectorArray(path)
	assert.Error(t, err)
}

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := Normalize(Vector{3, 4, 0})
	got := Dot(v, v)
	assert.InDelta(t, 1.0, got, 1e-6)
}
