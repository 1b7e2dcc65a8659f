package retrieve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/store/document"
	"github.com/raggify/raggify-go/internal/store/vector"
)

type fakeStore struct {
	hits []vector.Hit
}

func (f *fakeStore) Upsert(context.Context, []metadata.Node) error       { return nil }
func (f *fakeStore) DeleteByRefDocIDs(context.Context, []string) error   { return nil }
func (f *fakeStore) Clear(context.Context) error                        { return nil }
func (f *fakeStore) Close() error                                       { return nil }
func (f *fakeStore) Query(_ context.Context, _ []float32, topK int, _ *vector.Filters) ([]vector.Hit, error) {
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ metadata.Modality, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newDocStore(t *testing.T) document.Store {
	t.Helper()
	s, err := document.OpenSQLite(":memory:", "t_doc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTextRetrieverVectorOnly(t *testing.T) {
	store := &fakeStore{hits: []vector.Hit{
		{Node: metadata.Node{ID: "n1", RefDocID: "d1"}, Score: 0.9},
	}}
	r := &TextRetriever{Vectors: store, Embedder: fakeEmbedder{}}

	hits, err := r.Retrieve(context.Background(), "hello", 5, ModeVectorOnly)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, "n1", hits[0].Node.ID)
}

func TestTextRetrieverBM25Only(t *testing.T) {
	ds := newDocStore(t)
	require.NoError(t, ds.Upsert(context.Background(), document.Record{
		RefDocID: "doc-a", Hash: "h1", Text: "the quick brown fox jumps over the lazy dog",
	}))
	require.NoError(t, ds.Upsert(context.Background(), document.Record{
		RefDocID: "doc-b", Hash: "h2", Text: "completely unrelated content about gardening",
	}))

	idx, err := NewBM25Index()
	require.NoError(t, err)
	require.NoError(t, idx.BuildFromDocStore(context.Background(), ds))

	r := &TextRetriever{BM25: idx}
	hits, err := r.Retrieve(context.Background(), "quick fox", 5, ModeBM25Only)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc-a", hits[0].Node.RefDocID)
}

func TestTextRetrieverBM25OnlyRequiresIndex(t *testing.T) {
	r := &TextRetriever{}
	_, err := r.Retrieve(context.Background(), "q", 5, ModeBM25Only)
	assert.Error(t, err)
}

func TestTextRetrieverFusionCombinesScores(t *testing.T) {
	ds := newDocStore(t)
	require.NoError(t, ds.Upsert(context.Background(), document.Record{
		RefDocID: "shared-doc", Hash: "h1", Text: "quick brown fox",
	}))
	idx, err := NewBM25Index()
	require.NoError(t, err)
	require.NoError(t, idx.BuildFromDocStore(context.Background(), ds))

	store := &fakeStore{hits: []vector.Hit{
		{Node: metadata.Node{ID: "chunk-1", RefDocID: "shared-doc"}, Score: 0.5},
		{Node: metadata.Node{ID: "chunk-2", RefDocID: "vector-only-doc"}, Score: 0.4},
	}}
	r := &TextRetriever{
		Vectors: store, Embedder: fakeEmbedder{}, BM25: idx,
		FusionLambdaVector: 0.5, FusionLambdaBM25: 0.5,
	}

	hits, err := r.Retrieve(context.Background(), "quick fox", 5, ModeFusion)
	require.NoError(t, err)
	require.Len(t, hits, 2, "vector-only and fused hits both survive the union")
	assert.Equal(t, "chunk-1", hits[0].Node.ID, "the doc matched by both sides should rank first")
}

func TestTextRetrieverFusionBreaksScoreTiesByID(t *testing.T) {
	ds := newDocStore(t)
	idx, err := NewBM25Index()
	require.NoError(t, err)
	require.NoError(t, idx.BuildFromDocStore(context.Background(), ds))

	store := &fakeStore{hits: []vector.Hit{
		{Node: metadata.Node{ID: "chunk-b", RefDocID: "doc-b"}, Score: 0.5},
		{Node: metadata.Node{ID: "chunk-a", RefDocID: "doc-a"}, Score: 0.5},
	}}
	r := &TextRetriever{
		Vectors: store, Embedder: fakeEmbedder{}, BM25: idx,
		FusionLambdaVector: 1, FusionLambdaBM25: 1,
	}

	hits, err := r.Retrieve(context.Background(), "q", 5, ModeFusion)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-a", hits[0].Node.RefDocID, "equal-score hits must be ordered deterministically by id")
	assert.Equal(t, "doc-b", hits[1].Node.RefDocID)
}

func TestTextRetrieverUnknownMode(t *testing.T) {
	r := &TextRetriever{}
	_, err := r.Retrieve(context.Background(), "q", 5, Mode("bogus"))
	assert.Error(t, err)
}
