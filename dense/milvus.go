package dense

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusIndex is the standalone-service backend for deployments beyond
// what an in-process index can hold, grounded on
// teilomillet-raggo/rag/milvus.go's MilvusDB. It manages one fixed
// collection ("funds") with an id varchar primary key and a float-vector
// field, using an HNSW index and inner-product metric to match the
// engine's L2-normalized-vector contract (SPEC_FULL.md §4.3).
type MilvusIndex struct {
	cli  client.Client
	dim  int
	name string
}

const (
	milvusIDField  = "fund_id"
	milvusVecField = "embedding"
)

// NewMilvusIndex connects to a Milvus standalone instance at address and
// ensures the funds collection and its HNSW index exist.
func NewMilvusIndex(ctx context.Context, address string, dim int) (*MilvusIndex, error) {
	cli, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, errors.Wrapf(err, "connect to milvus at %s", address)
	}

	idx := &MilvusIndex{cli: cli, dim: dim, name: collectionName}

	has, err := cli.HasCollection(ctx, idx.name)
	if err != nil {
		return nil, errors.Wrap(err, "check milvus collection")
	}
	if !has {
		if err := idx.createCollection(ctx); err != nil {
			return nil, err
		}
	}
	if err := cli.LoadCollection(ctx, idx.name, false); err != nil {
		return nil, errors.Wrap(err, "load milvus collection")
	}
	return idx, nil
}

func (m *MilvusIndex) createCollection(ctx context.Context) error {
	schema := entity.NewSchema().WithName(m.name).WithDescription("fund embeddings").
		WithField(entity.NewField().WithName(milvusIDField).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(milvusVecField).WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(m.dim)))

	if err := m.cli.CreateCollection(ctx, schema, 1); err != nil {
		return errors.Wrap(err, "create milvus collection")
	}

	idx, err := entity.NewIndexHNSW(entity.IP, 16, 200)
	if err != nil {
		return errors.Wrap(err, "build HNSW index params")
	}
	if err := m.cli.CreateIndex(ctx, m.name, milvusVecField, idx, false); err != nil {
		return errors.Wrap(err, "create milvus HNSW index")
	}
	return nil
}

func (m *MilvusIndex) Add(ctx context.Context, fundID string, v Vector) error {
	if len(v) != m.dim {
		return errors.Newf("vector for %s has dimension %d, expected %d", fundID, len(v), m.dim)
	}
	idCol := entity.NewColumnVarChar(milvusIDField, []string{fundID})
	vecCol := entity.NewColumnFloatVector(milvusVecField, m.dim, [][]float32{v})
	_, err := m.cli.Insert(ctx, m.name, "", idCol, vecCol)
	if err != nil {
		return errors.Wrap(err, "insert into milvus")
	}
	return m.cli.Flush(ctx, m.name, false)
}

func (m *MilvusIndex) Search(ctx context.Context, v Vector, topK int) ([]Result, error) {
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, errors.Wrap(err, "build HNSW search param")
	}

	searchResult, err := m.cli.Search(ctx, m.name, nil, "", []string{milvusIDField},
		[]entity.Vector{entity.FloatVector(v)}, milvusVecField, entity.IP, topK, sp)
	if err != nil {
		return nil, errors.Wrap(err, "milvus search")
	}

	var results []Result
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			id, err := sr.IDs.GetAsString(i)
			if err != nil {
				return nil, errors.Wrap(err, "decode milvus result id")
			}
			results = append(results, Result{FundID: id, Similarity: float64(sr.Scores[i])})
		}
	}
	breakTies(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MilvusIndex) Len() int {
	// Milvus does not expose a cheap exact row count through this client,
	// so Len returns -1 for "unknown"; the candidate generator then does
	// not cap its over-fetch at the index size.
	return -1
}

// Save is a no-op: Milvus is itself the durable store, with no separate
// snapshot artifact for this backend.
func (m *MilvusIndex) Save(dir string) error { return nil }

func (m *MilvusIndex) Close() error {
	return m.cli.Close()
}
