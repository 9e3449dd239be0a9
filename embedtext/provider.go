// Package embedtext adapts the embedding-provider contract of
// SPEC_FULL.md §4.3 ("function embed(text) -> R^d is deterministic for a
// given model version and returns a unit-norm vector after the index's
// own normalization step") into the candidate.Embedder interface the
// retrieval engine consumes.
//
// The provider registry is grounded on
// teilomillet-raggo/rag/providers/register.go's RegisterEmbedder pattern:
// each backend registers a factory under a name, and callers select one
// by name plus a config map, rather than importing every backend
// unconditionally.
package embedtext

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/fundscope/retrieval/dense"
)

// Provider produces an embedding vector for a piece of text. Implementations
// are injected capabilities (SPEC_FULL.md §1): the retrieval engine treats
// the model choice as external, but requires the declared dimension and
// determinism contract.
type Provider interface {
	// Embed returns the raw embedding vector for text, not yet
	// normalized; callers apply dense.Normalize.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the fixed output width for this provider's model.
	Dimension() int
	// ModelIdentity names the model and version, recorded in the build
	// manifest (SPEC_FULL.md §6) so a restored index can be validated
	// against the embedder that built it.
	ModelIdentity() string
}

// Factory builds a Provider from a config map, mirroring
// providers.EmbedderFactory in the teacher.
type Factory func(config map[string]interface{}) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a named provider factory. Backend packages call this from
// an init func, the same self-registration shape as
// rag/providers/openai.go's init().
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Open constructs the named provider from config.
func Open(name string, config map[string]interface{}) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, errors.Newf("unknown embedding provider %q", name)
	}
	return factory(config)
}

// Embedder adapts a Provider into candidate.Embedder, normalizing the raw
// vector to unit L2 norm per the dense index's contract and validating
// its dimension against what the provider declares.
type Embedder struct {
	Provider Provider
}

// NewEmbedder wraps provider for use by the candidate generator.
func NewEmbedder(provider Provider) *Embedder {
	return &Embedder{Provider: provider}
}

// Embed implements candidate.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (dense.Vector, error) {
	raw, err := e.Provider.Embed(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "embedding provider failed")
	}
	if dim := e.Provider.Dimension(); dim > 0 && len(raw) != dim {
		return nil, errors.Newf("embedding provider returned dimension %d, expected %d", len(raw), dim)
	}
	return dense.Normalize(dense.Vector(raw)), nil
}
