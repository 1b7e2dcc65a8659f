package retrieve

import (
	"context"
	"fmt"
	"sort"

	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/store/vector"
)

// TextRetriever implements the text retriever contract (spec §4.5): dense
// kNN, BM25-only, or a weighted fusion of both.
type TextRetriever struct {
	Vectors  vector.Store
	Embedder Embedder
	BM25     *BM25Index // nil disables BM25_ONLY/FUSION

	// FusionLambdaVector/FusionLambdaBM25 weight each side's score in
	// FUSION mode (retrieve.fusion_lambda_vector / fusion_lambda_bm25).
	FusionLambdaVector float64
	FusionLambdaBM25   float64
}

// Retrieve dispatches to the vector, BM25, or fusion path per mode. An
// empty mode defaults to vector-only.
func (r *TextRetriever) Retrieve(ctx context.Context, query string, topK int, mode Mode) ([]vector.Hit, error) {
	switch mode {
	case "", ModeVectorOnly:
		return r.vectorRetrieve(ctx, query, topK)
	case ModeBM25Only:
		return r.bm25Retrieve(ctx, query, topK)
	case ModeFusion:
		return r.fusionRetrieve(ctx, query, topK)
	default:
		return nil, fmt.Errorf("retrieve: unknown mode %q", mode)
	}
}

func (r *TextRetriever) vectorRetrieve(ctx context.Context, query string, topK int) ([]vector.Hit, error) {
	vecs, err := r.Embedder.Embed(ctx, metadata.Text, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed text query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("retrieve: embedder returned no vectors for query")
	}
	hits, err := r.Vectors.Query(ctx, vecs[0], topK, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve: vector query: %w", err)
	}
	return hits, nil
}

func (r *TextRetriever) bm25Retrieve(_ context.Context, query string, topK int) ([]vector.Hit, error) {
	if r.BM25 == nil {
		return nil, fmt.Errorf("retrieve: bm25 index is not configured")
	}
	bmHits, err := r.BM25.Search(query, topK)
	if err != nil {
		return nil, err
	}
	return bm25HitsToVectorHits(bmHits), nil
}

func bm25HitsToVectorHits(bmHits []bm25Hit) []vector.Hit {
	hits := make([]vector.Hit, 0, len(bmHits))
	for _, h := range bmHits {
		hits = append(hits, vector.Hit{
			Node: metadata.Node{
				ID:       h.RefDocID,
				RefDocID: h.RefDocID,
				Modality: metadata.Text,
				Text:     h.Text,
			},
			Score: float32(h.Score),
		})
	}
	return hits
}

// fusionKey identifies a hit across the vector and BM25 result sets. BM25
// only has ref_doc_id granularity (it indexes whole documents, not chunks),
// so fusion keys on RefDocID rather than node ID — every vector-side chunk
// of a document that also matches BM25 receives that document's BM25 score.
func fusionKey(h vector.Hit) string {
	if h.Node.RefDocID != "" {
		return h.Node.RefDocID
	}
	return h.Node.ID
}

func (r *TextRetriever) fusionRetrieve(ctx context.Context, query string, topK int) ([]vector.Hit, error) {
	vecHits, err := r.vectorRetrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	bmHits, err := r.bm25Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	type scored struct {
		hit   vector.Hit
		score float64
	}
	byKey := make(map[string]*scored, len(vecHits)+len(bmHits))
	for _, h := range vecHits {
		byKey[fusionKey(h)] = &scored{hit: h, score: r.FusionLambdaVector * float64(h.Score)}
	}
	for _, h := range bmHits {
		k := fusionKey(h)
		if s, ok := byKey[k]; ok {
			s.score += r.FusionLambdaBM25 * float64(h.Score)
		} else {
			byKey[k] = &scored{hit: h, score: r.FusionLambdaBM25 * float64(h.Score)}
		}
	}

	all := make([]*scored, 0, len(byKey))
	for _, s := range byKey {
		all = append(all, s)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if all[i].hit.Node.RefDocID != all[j].hit.Node.RefDocID {
			return all[i].hit.Node.RefDocID < all[j].hit.Node.RefDocID
		}
		return all[i].hit.Node.ID < all[j].hit.Node.ID
	})
	if topK > 0 && len(all) > topK {
		all = all[:topK]
	}

	out := make([]vector.Hit, len(all))
	for i, s := range all {
		out[i] = vector.Hit{Node: s.hit.Node, Score: float32(s.score)}
	}
	return out, nil
}
