// Package vector defines the VectorStore contract and its backends (Qdrant,
// chromem-go) used by one Container per logical space.
package vector

import (
	"context"

	"github.com/raggify/raggify-go/internal/metadata"
)

// Hit pairs a retrieved node with its similarity score.
type Hit struct {
	Node  metadata.Node
	Score float32
}

// Filters narrows a Query to a subset of a space — currently by ref_doc_id,
// the only filter the pipeline and retrievers need.
type Filters struct {
	RefDocIDs []string
}

// Store is the per-space vector store contract. Same-id Upsert overwrites.
// DeleteByRefDocIDs removes every chunk whose ref_doc_id is in the set.
// Implementations must be safe for concurrent use.
type Store interface {
	Upsert(ctx context.Context, nodes []metadata.Node) error
	DeleteByRefDocIDs(ctx context.Context, refDocIDs []string) error
	Clear(ctx context.Context) error
	Query(ctx context.Context, queryVec []float32, topK int, filters *Filters) ([]Hit, error)
	Close() error
}
