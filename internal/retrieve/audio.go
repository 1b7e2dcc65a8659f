package retrieve

import (
	"context"

	"github.com/raggify/raggify-go/internal/embed"
	"github.com/raggify/raggify-go/internal/store/vector"
)

// AudioRetriever is the dedicated cross-modal retriever for the image-free
// audio space (spec §4.5): a text encoder and an audio encoder, each
// optional. There is no same-modality-as-query "sync" variant — every
// entry point here already takes a context and is the only retrieve path,
// matching the original's "sync retrieve explicitly unimplemented, async
// only" by simply not offering a blocking alternative.
type AudioRetriever struct {
	Vectors      vector.Store
	TextEncoder  embed.TextEncoder
	AudioEncoder embed.MediaEncoder
}

// TextToAudioRetrieve embeds query with the text encoder and queries the
// audio vector store.
func (r *AudioRetriever) TextToAudioRetrieve(ctx context.Context, query string, topK int) ([]vector.Hit, error) {
	if r.TextEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "text_to_audio"}
	}
	vecs, err := r.TextEncoder.EncodeText(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}

// AudioToAudioRetrieve embeds a reference audio file and queries the audio
// vector store.
func (r *AudioRetriever) AudioToAudioRetrieve(ctx context.Context, path string, topK int) ([]vector.Hit, error) {
	if r.AudioEncoder == nil {
		return nil, &UnsupportedCrossModalQueryError{Direction: "audio_to_audio"}
	}
	vecs, err := r.AudioEncoder.EncodeMedia(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return queryOne(ctx, r.Vectors, vecs, topK)
}
