package embed

import "context"

// TextEncoder embeds query strings into the vector space of some other
// modality's index, enabling cross-modal retrieval (e.g. text→image).
type TextEncoder interface {
	EncodeText(ctx context.Context, queries []string) ([][]float32, error)
}

// MediaEncoder embeds local media file paths into a vector space — used by
// image→image, audio→audio, and the media-source legs of cross-modal
// retrieval.
type MediaEncoder interface {
	EncodeMedia(ctx context.Context, paths []string) ([][]float32, error)
}

// Capability reports which encode directions a cross-modal encoder set
// supports, so a retriever can fail fast with UnsupportedCrossModalQuery
// instead of calling a nil encoder.
type Capability struct {
	Text  bool
	Image bool
	Audio bool
	Video bool
}

// BackendEncoder adapts a Backend (the per-modality embed container's
// backend) to the TextEncoder/MediaEncoder interfaces so the same concrete
// implementation can serve both the embed manager and a cross-modal
// retriever's encoder slot.
type BackendEncoder struct {
	Backend Backend
}

func (e BackendEncoder) EncodeText(ctx context.Context, queries []string) ([][]float32, error) {
	return e.Backend.Embed(ctx, queries)
}

func (e BackendEncoder) EncodeMedia(ctx context.Context, paths []string) ([][]float32, error) {
	return e.Backend.Embed(ctx, paths)
}
