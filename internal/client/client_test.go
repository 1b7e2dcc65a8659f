package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return New(srv.URL), srv.Close
}

func TestHealth(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", VectorStore: "ok"})
	})
	defer closeFn()

	resp, err := cl.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.VectorStore)
}

func TestReload(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reload", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ReloadResponse{Status: "ok"})
	})
	defer closeFn()

	resp, err := cl.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestIngest_PathKindSendsPathField(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ingest/path", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "./docs", body["path"])
		_, hasURL := body["url"]
		assert.False(t, hasURL)
		_ = json.NewEncoder(w).Encode(IngestResponse{Status: "accepted", JobID: "job-1"})
	})
	defer closeFn()

	resp, err := cl.Ingest(context.Background(), IngestPath, "./docs")
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.JobID)
}

func TestIngest_URLKindSendsURLField(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ingest/url", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com", body["url"])
		_ = json.NewEncoder(w).Encode(IngestResponse{Status: "accepted", JobID: "job-2"})
	})
	defer closeFn()

	resp, err := cl.Ingest(context.Background(), IngestURL, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "job-2", resp.JobID)
}

func TestGetJob(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "job-1", body["job_id"])
		_ = json.NewEncoder(w).Encode(JobView{JobID: "job-1", Status: "done", NodesCommitted: 3})
	})
	defer closeFn()

	job, err := cl.GetJob(context.Background(), "job-1", false)
	require.NoError(t, err)
	assert.Equal(t, "done", job.Status)
	assert.Equal(t, 3, job.NodesCommitted)
}

func TestTextQuery(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query/text_text", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "eks clusters", body["query"])
		_ = json.NewEncoder(w).Encode(QueryResponse{Documents: []QueryDocument{{Text: "hit", Score: 0.9}}})
	})
	defer closeFn()

	resp, err := cl.TextQuery(context.Background(), "text_text", "eks clusters", 5, "")
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "hit", resp.Documents[0].Text)
}

func TestMediaQuery(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query/image_image", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/tmp/cat.jpg", body["path"])
		_ = json.NewEncoder(w).Encode(QueryResponse{Documents: nil})
	})
	defer closeFn()

	resp, err := cl.MediaQuery(context.Background(), "image_image", "/tmp/cat.jpg", 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Documents)
}

func TestNonOKStatusReturnsAPIError(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad request"})
	})
	defer closeFn()

	_, err := cl.Health(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad request", apiErr.Detail)
}

func TestWithAPIKeySetsAuthorizationHeader(t *testing.T) {
	cl, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
	})
	defer closeFn()

	cl = New(cl.baseURL, WithAPIKey("secret"))
	_, err := cl.Health(context.Background())
	require.NoError(t, err)
}
