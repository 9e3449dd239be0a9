package embedtext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnknownProviderReturnsError(t *testing.T) {
	_, err := Open("does-not-exist", nil)
	assert.Error(t, err)
}

func TestLocalProviderIsDeterministic(t *testing.T) {
	p, err := Open("local", map[string]interface{}{"dimension": 32})
	require.NoError(t, err)

	v1, err := p.Embed(context.Background(), "SBI Bluechip Fund")
	require.NoError(t, err)
	v2, err := p.Embed(context.Background(), "SBI Bluechip Fund")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestLocalProviderRespectsConfiguredDimension(t *testing.T) {
	p, err := Open("local", map[string]interface{}{"dimension": 16})
	require.NoError(t, err)
	assert.Equal(t, 16, p.Dimension())

	v, err := p.Embed(context.Background(), "some fund")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestLocalProviderDefaultsDimensionWhenUnset(t *testing.T) {
	p, err := Open("local", nil)
	require.NoError(t, err)
	assert.Equal(t, 128, p.Dimension())
}

func TestEmbedderNormalizesToUnitLength(t *testing.T) {
	provider, err := Open("local", map[string]interface{}{"dimension": 32})
	require.NoError(t, err)
	embedder := NewEmbedder(provider)

	vec, err := embedder.Embed(context.Background(), "ICICI Technology Fund growth")
	require.NoError(t, err)

	var sumSquares float64
	for _, x := range vec {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-6)
}

func TestEmbedderRejectsDimensionMismatch(t *testing.T) {
	provider, err := Open("local", map[string]interface{}{"dimension": 32})
	require.NoError(t, err)
	embedder := NewEmbedder(&fixedDimProvider{Provider: provider, dim: 64})

	_, err = embedder.Embed(context.Background(), "some fund")
	assert.Error(t, err)
}

// fixedDimProvider wraps a Provider but reports a different Dimension,
// forcing Embedder.Embed's dimension-validation branch.
type fixedDimProvider struct {
	Provider
	dim int
}

func (f *fixedDimProvider) Dimension() int { return f.dim }
