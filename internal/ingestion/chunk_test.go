package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, chunkText("", 100, 10))
	assert.Nil(t, chunkText("   \n\t ", 100, 10))
}

func TestChunkText_SingleChunkWhenShort(t *testing.T) {
	chunks := chunkText("the quick brown fox jumps over the lazy dog", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", chunks[0])
}

func TestChunkText_SplitsLongTextIntoOverlappingChunks(t *testing.T) {
	text := strings.Repeat("word ", 2000)
	chunks := chunkText(text, 50, 10)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.NotEmpty(t, c)
	}

	enc, err := tokenizer()
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(enc.Encode(c, nil, nil)), 50)
	}
}

func TestChunkText_RoundTripsThroughTokenizer(t *testing.T) {
	enc, err := tokenizer()
	require.NoError(t, err)

	original := "raggify ingests documents, images, audio, and video."
	chunks := chunkText(original, 1000, 100)
	require.Len(t, chunks, 1)

	wantTokens := enc.Encode(original, nil, nil)
	gotTokens := enc.Encode(chunks[0], nil, nil)
	assert.Equal(t, len(wantTokens), len(gotTokens))
}

func TestSplitIntoChunks_TextModalityProducesContiguousChunkNumbers(t *testing.T) {
	doc := metadata.Document{
		Text: strings.Repeat("sentence number here. ", 500),
		Meta: metadata.BasicMetaData{FilePath: "/tmp/doc.txt"},
	}

	nodes := splitIntoChunks(doc, metadata.Text, 50, 5)
	require.Greater(t, len(nodes), 1)
	for i, n := range nodes {
		assert.Equal(t, i, n.Meta.ChunkNo)
		assert.Equal(t, metadata.Text, n.Modality)
	}
}

func TestSplitIntoChunks_MediaModalityPassesThroughAsSingleChunk(t *testing.T) {
	doc := metadata.Document{
		Meta: metadata.BasicMetaData{FilePath: "/tmp/photo.jpg"},
	}

	nodes := splitIntoChunks(doc, metadata.Image, 50, 5)
	require.Len(t, nodes, 1)
	assert.Equal(t, 0, nodes[0].Meta.ChunkNo)
	assert.Equal(t, metadata.Image, nodes[0].Modality)
}

func TestNodeID_DeterministicAndUUIDShaped(t *testing.T) {
	id1 := nodeID("doc-abc", 0)
	id2 := nodeID("doc-abc", 0)
	id3 := nodeID("doc-abc", 1)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, id1, 36)
	assert.Equal(t, byte('5'), id1[14])
}
