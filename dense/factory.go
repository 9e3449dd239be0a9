package dense

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Open constructs the configured dense backend, generalizing
// teilomillet-raggo/internal/rag's type-switch VectorDB factory to the
// three backends fundrag carries (SPEC_FULL.md §4.3/§6).
//
//   - "memory":  in-process linear scan, no address needed.
//   - "chromem": persistent embedded store at address (a file path); an
//     empty address opens an in-memory chromem instance.
//   - "milvus":  standalone Milvus service reachable at address
//     ("host:port").
func Open(ctx context.Context, backend, address string, dim int) (Index, error) {
	switch backend {
	case "", "memory":
		return NewMemoryIndex(dim), nil
	case "chromem":
		return NewChromemIndex(address, dim)
	case "milvus":
		return NewMilvusIndex(ctx, address, dim)
	default:
		return nil, errors.Newf("unknown dense backend %q", backend)
	}
}
