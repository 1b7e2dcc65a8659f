package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/store/vector"
)

type fakeTextEncoder struct{ vec []float32 }

func (f fakeTextEncoder) EncodeText(context.Context, []string) ([][]float32, error) {
	return [][]float32{f.vec}, nil
}

type fakeMediaEncoder struct{ vec []float32 }

func (f fakeMediaEncoder) EncodeMedia(context.Context, []string) ([][]float32, error) {
	return [][]float32{f.vec}, nil
}

func TestImageRetrieverUnsupportedDirectionsFailFast(t *testing.T) {
	store := &fakeStore{hits: []vector.Hit{{Node: metadata.Node{ID: "img1"}, Score: 0.8}}}

	r := &ImageRetriever{Vectors: store}
	_, err := r.TextToImageRetrieve(context.Background(), "a cat", 5)
	var unsupported *UnsupportedCrossModalQueryError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "text_to_image", unsupported.Direction)

	_, err = r.ImageToImageRetrieve(context.Background(), "/tmp/x.png", 5)
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "image_to_image", unsupported.Direction)
}

func TestImageRetrieverSupportedDirectionsQuery(t *testing.T) {
	store := &fakeStore{hits: []vector.Hit{{Node: metadata.Node{ID: "img1"}, Score: 0.8}}}
	r := &ImageRetriever{
		Vectors:      store,
		TextEncoder:  fakeTextEncoder{vec: []float32{1, 0}},
		MediaEncoder: fakeMediaEncoder{vec: []float32{0, 1}},
	}

	hits, err := r.TextToImageRetrieve(context.Background(), "a cat", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = r.ImageToImageRetrieve(context.Background(), "/tmp/x.png", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestAudioRetrieverUnsupportedDirections(t *testing.T) {
	r := &AudioRetriever{Vectors: &fakeStore{}}
	_, err := r.TextToAudioRetrieve(context.Background(), "q", 5)
	assert.Error(t, err)
	_, err = r.AudioToAudioRetrieve(context.Background(), "/tmp/a.mp3", 5)
	assert.Error(t, err)
}

func TestVideoRetrieverAllFourDirections(t *testing.T) {
	store := &fakeStore{hits: []vector.Hit{{Node: metadata.Node{ID: "v1"}, Score: 0.5}}}
	r := &VideoRetriever{
		Vectors:      store,
		TextEncoder:  fakeTextEncoder{vec: []float32{1}},
		ImageEncoder: fakeMediaEncoder{vec: []float32{1}},
		AudioEncoder: fakeMediaEncoder{vec: []float32{1}},
		VideoEncoder: fakeMediaEncoder{vec: []float32{1}},
	}

	for _, call := range []func() ([]vector.Hit, error){
		func() ([]vector.Hit, error) { return r.TextToVideoRetrieve(context.Background(), "q", 5) },
		func() ([]vector.Hit, error) { return r.ImageToVideoRetrieve(context.Background(), "/tmp/i.png", 5) },
		func() ([]vector.Hit, error) { return r.AudioToVideoRetrieve(context.Background(), "/tmp/a.mp3", 5) },
		func() ([]vector.Hit, error) { return r.VideoToVideoRetrieve(context.Background(), "/tmp/v.mp4", 5) },
	} {
		hits, err := call()
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	}

	empty := &VideoRetriever{Vectors: store}
	_, err := empty.VideoToVideoRetrieve(context.Background(), "/tmp/v.mp4", 5)
	assert.Error(t, err)
}
