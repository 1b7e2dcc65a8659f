package retrieve

import (
	"context"
	"fmt"

	"github.com/raggify/raggify-go/internal/embed"
	"github.com/raggify/raggify-go/internal/store/vector"
)

// ImageRetriever serves the text→image and image→image retriever contracts
// (spec §4.5) against the image space's vector store. A nil encoder field
// means that direction is unsupported and fails with
// UnsupportedCrossModalQueryError, rather than panicking on a nil call.
type ImageRetriever struct {
	Vectors      vector.Store
	TextEncoder  embed.TextEncoder  // nil if the image backend can't embed text
	MediaEncoder embed.MediaEncoder // nil if the image backend can't embed images
}

// TextToImageRetrieve embeds query with the image space's cross-modal text
// encoder and queries the image vector store.
func (r *ImageRetriever) TextToImageRetrieve(ctx context.Context, query string, topK int) ([]vector.Hit, error) {
	if r.TextEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "text_to_image"}
	}
	vecs, err := r.TextEncoder.EncodeText(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieve: encode text-to-image query: %w", err)
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}

// ImageToImageRetrieve embeds a reference image file and queries the image
// vector store.
func (r *ImageRetriever) ImageToImageRetrieve(ctx context.Context, path string, topK int) ([]vector.Hit, error) {
	if r.MediaEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "image_to_image"}
	}
	vecs, err := r.MediaEncoder.EncodeMedia(ctx, []string{path})
	if err != nil {
		return nil, fmt.Errorf("retrieve: encode image-to-image query: %w", err)
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}

// queryOne runs a single-vector Query, validating the encoder returned
// exactly the one vector callers asked for.
func queryOne(ctx context.Context, store vector.Store, vecs [][]float32, topK int) ([]vector.Hit, error) {
	if len(vecs) == 0 {
		return nil, fmt.Errorf("retrieve: encoder returned no vectors for query")
	}
	hits, err := store.Query(ctx, vecs[0], topK, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve: vector query: %w", err)
	}
	return hits, nil
}
