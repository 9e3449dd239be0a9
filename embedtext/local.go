package embedtext

import (
	"context"
	"hash/fnv"

	"github.com/fundscope/retrieval/normalize"
)

func init() {
	Register("local", newLocalProvider)
}

// localProvider is a deterministic, dependency-free embedder for tests and
// offline development: it feature-hashes normalized tokens into a
// fixed-width vector. It satisfies the determinism contract of
// SPEC_FULL.md §4.3 (same text, same model version -> same vector) without
// requiring network access or a trained model; it is not intended to carry
// real semantic quality and production deployments use the "openai"
// provider instead.
type localProvider struct {
	dim int
}

func newLocalProvider(config map[string]interface{}) (Provider, error) {
	dim := 128
	if d, ok := config["dimension"].(int); ok && d > 0 {
		dim = d
	}
	return &localProvider{dim: dim}, nil
}

func (p *localProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, p.dim)
	for _, tok := range normalize.Tokenize(normalize.Normalize(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sign := fnv.New32a()
		_, _ = sign.Write([]byte(tok + "#sign"))
		bucket := int(h.Sum32() % uint32(p.dim))
		if sign.Sum32()%2 == 0 {
			v[bucket] += 1
		} else {
			v[bucket] -= 1
		}
	}
	return v, nil
}

func (p *localProvider) Dimension() int { return p.dim }

func (p *localProvider) ModelIdentity() string { return "local:hashing-v1" }
