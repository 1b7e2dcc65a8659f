package retrieve

import (
	"context"

	"github.com/raggify/raggify-go/internal/embed"
	"github.com/raggify/raggify-go/internal/store/vector"
)

// VideoRetriever is the same shape as AudioRetriever but with encoders for
// all four query modalities that can address the video space (spec §4.5).
type VideoRetriever struct {
	Vectors      vector.Store
	TextEncoder  embed.TextEncoder
	ImageEncoder embed.MediaEncoder
	AudioEncoder embed.MediaEncoder
	VideoEncoder embed.MediaEncoder
}

func (r *VideoRetriever) TextToVideoRetrieve(ctx context.Context, query string, topK int) ([]vector.Hit, error) {
	if r.TextEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "text_to_video"}
	}
	vecs, err := r.TextEncoder.EncodeText(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}

func (r *VideoRetriever) ImageToVideoRetrieve(ctx context.Context, path string, topK int) ([]vector.Hit, error) {
	if r.ImageEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "image_to_video"}
	}
	vecs, err := r.ImageEncoder.EncodeMedia(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}

func (r *VideoRetriever) AudioToVideoRetrieve(ctx context.Context, path string, topK int) ([]vector.Hit, error) {
	if r.AudioEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "audio_to_video"}
	}
	vecs, err := r.AudioEncoder.EncodeMedia(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}

func (r *VideoRetriever) VideoToVideoRetrieve(ctx context.Context, path string, topK int) ([]vector.Hit, error) {
	if r.VideoEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "video_to_video"}
	}
	vecs, err := r.VideoEncoder.EncodeMedia(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}
