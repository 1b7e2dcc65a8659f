package server

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/retrieve"
	"github.com/raggify/raggify-go/internal/store/vector"
)

func TestTopKOrDefault(t *testing.T) {
	assert.Equal(t, defaultQueryTopK, topKOrDefault(0))
	assert.Equal(t, defaultQueryTopK, topKOrDefault(-1))
	assert.Equal(t, 42, topKOrDefault(42))
}

func TestDecodeTextQuery_RequiresQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/query/text_text", bytes.NewBufferString(`{}`))
	_, err := decodeTextQuery(r)
	require.Error(t, err)
	var bodyErr *requestBodyError
	assert.ErrorAs(t, err, &bodyErr)
}

func TestDecodeTextQuery_ValidBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/query/text_text", bytes.NewBufferString(`{"query":"eks clusters","topk":5,"mode":"hybrid"}`))
	req, err := decodeTextQuery(r)
	require.NoError(t, err)
	assert.Equal(t, "eks clusters", req.Query)
	assert.Equal(t, 5, req.TopK)
	assert.Equal(t, "hybrid", req.Mode)
}

func TestDecodeMediaQuery_RequiresPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/query/image_image", bytes.NewBufferString(`{}`))
	_, err := decodeMediaQuery(r)
	require.Error(t, err)
	var bodyErr *requestBodyError
	assert.ErrorAs(t, err, &bodyErr)
}

func TestQueryErrorStatus_BodyErrorIs400(t *testing.T) {
	status, msg := queryErrorStatus(&requestBodyError{"bad body"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad body", msg)
}

func TestQueryErrorStatus_UnconfiguredModalityIs400(t *testing.T) {
	status, _ := queryErrorStatus(&modalityUnconfiguredError{"video"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestQueryErrorStatus_UnsupportedCrossModalIs500(t *testing.T) {
	status, _ := queryErrorStatus(&retrieve.UnsupportedCrossModalQueryError{})
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestQueryErrorStatus_OtherErrorsAre500(t *testing.T) {
	status, msg := queryErrorStatus(errors.New("qdrant: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "qdrant: connection refused", msg)
}

func TestToQueryDocuments(t *testing.T) {
	hits := []vector.Hit{
		{
			Node: metadata.Node{
				Text: "hello world",
				Meta: metadata.BasicMetaData{FilePath: "/tmp/doc.txt"},
			},
			Score: 0.87,
		},
	}

	docs := toQueryDocuments(hits)
	require.Len(t, docs, 1)
	assert.Equal(t, "hello world", docs[0].Text)
	assert.InDelta(t, 0.87, docs[0].Score, 0.0001)
	assert.Equal(t, "/tmp/doc.txt", docs[0].Metadata["file_path"])
}

func TestToQueryDocuments_Empty(t *testing.T) {
	assert.Empty(t, toQueryDocuments(nil))
}
