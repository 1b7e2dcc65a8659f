// Package retrieve implements the per-modality retriever contract
// (spec §4.5): retrieve(query, top_k) -> list<(Node, score)>, exposed here
// as typed retrievers returning []vector.Hit.
package retrieve

import (
	"context"

	"github.com/raggify/raggify-go/internal/metadata"
)

// Mode selects how TextRetriever combines vector and BM25 results.
type Mode string

const (
	ModeVectorOnly Mode = "vector_only"
	ModeBM25Only   Mode = "bm25_only"
	ModeFusion     Mode = "fusion"
)

// Embedder encodes text into a modality's vector space. *embed.Manager
// satisfies this by its existing Embed method, so no adapter is needed to
// wire a retriever to the embed package.
type Embedder interface {
	Embed(ctx context.Context, mod metadata.Modality, inputs []string) ([][]float32, error)
}
