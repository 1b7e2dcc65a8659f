// Package client provides a thin Go HTTP client for the raggify REST API
// (spec §6): health, reload, upload, ingest, job, and the nine cross-modal
// query routes. It exists so CLI commands and tests can talk to a running
// server without hand-decoding JSON at each call site.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client is a minimal REST client for one raggify server instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient overrides the underlying *http.Client (e.g. for custom
// timeouts or transports in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New constructs a Client against baseURL (e.g. "http://127.0.0.1:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HealthResponse mirrors internal/server's healthResponse wire shape.
type HealthResponse struct {
	Status        string `json:"status"`
	VectorStore   string `json:"vector_store"`
	Embed         string `json:"embed"`
	Rerank        string `json:"rerank"`
	IngestCache   string `json:"ingest_cache"`
	DocumentStore string `json:"document_store"`
}

// Health calls GET /v1/health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReloadResponse mirrors the {"status": "ok"} body GET /v1/reload returns.
type ReloadResponse struct {
	Status string `json:"status"`
}

// Reload calls GET /v1/reload, which rebuilds the server's runtime from
// the on-disk config.
func (c *Client) Reload(ctx context.Context) (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.do(ctx, http.MethodGet, "/v1/reload", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadedFile mirrors internal/server's uploadedFile wire shape.
type UploadedFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SavePath    string `json:"save_path"`
}

// UploadResponse mirrors internal/server's uploadResponse wire shape.
type UploadResponse struct {
	Files []UploadedFile `json:"files"`
}

// Upload calls POST /v1/upload with the given local files attached under
// the "files" multipart field.
func (c *Client) Upload(ctx context.Context, paths ...string) (*UploadResponse, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("client: open %q: %w", p, err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("client: create form file for %q: %w", p, err)
		}
		if _, err := io.Copy(part, f); err != nil {
			f.Close()
			return nil, fmt.Errorf("client: copy %q into request: %w", p, err)
		}
		f.Close()
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	var resp UploadResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IngestResponse mirrors internal/server's ingestResponse wire shape.
type IngestResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// IngestKind selects one of the four POST /v1/ingest/* routes.
type IngestKind string

const (
	IngestPath     IngestKind = "path"
	IngestPathList IngestKind = "path_list"
	IngestURL      IngestKind = "url"
	IngestURLList  IngestKind = "url_list"
)

// Ingest calls POST /v1/ingest/{kind} with {"path": input} for
// path/path_list kinds or {"url": input} for url/url_list kinds.
// /ingest/* always answers 200 "accepted" regardless of eventual outcome
// (spec §7); poll Job with the returned JobID to learn how it finished.
func (c *Client) Ingest(ctx context.Context, kind IngestKind, input string) (*IngestResponse, error) {
	body := map[string]string{"path": input}
	if kind == IngestURL || kind == IngestURLList {
		body = map[string]string{"url": input}
	}

	var resp IngestResponse
	if err := c.do(ctx, http.MethodPost, "/v1/ingest/"+string(kind), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobView mirrors internal/server's jobView wire shape.
type JobView struct {
	JobID           string `json:"job_id"`
	Kind            string `json:"kind"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at"`
	StartedAt       string `json:"started_at,omitempty"`
	FinishedAt      string `json:"finished_at,omitempty"`
	InputsProcessed int    `json:"inputs_processed"`
	NodesCommitted  int    `json:"nodes_committed"`
	NodesSkipped    int    `json:"nodes_skipped"`
}

// JobListResponse is the body returned by POST /v1/job when job_id is omitted.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// ListJobs calls POST /v1/job with an empty body, optionally pruning
// completed jobs first when rm is true.
func (c *Client) ListJobs(ctx context.Context, rm bool) (*JobListResponse, error) {
	var resp JobListResponse
	if err := c.do(ctx, http.MethodPost, "/v1/job", map[string]any{"rm": rm}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob calls POST /v1/job with the given job_id, optionally removing the
// job afterward when rm is true.
func (c *Client) GetJob(ctx context.Context, jobID string, rm bool) (*JobView, error) {
	var resp JobView
	if err := c.do(ctx, http.MethodPost, "/v1/job", map[string]any{"job_id": jobID, "rm": rm}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryDocument mirrors internal/server's queryDocument wire shape.
type QueryDocument struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

// QueryResponse mirrors internal/server's queryResponse wire shape.
type QueryResponse struct {
	Documents []QueryDocument `json:"documents"`
}

// TextQuery calls the four text-source query routes: text_text,
// text_image, text_audio, text_video.
func (c *Client) TextQuery(ctx context.Context, route, query string, topK int, mode string) (*QueryResponse, error) {
	body := map[string]any{"query": query}
	if topK > 0 {
		body["topk"] = topK
	}
	if mode != "" {
		body["mode"] = mode
	}

	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/query/"+route, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MediaQuery calls the five media-source query routes: image_image,
// audio_audio, image_video, audio_video, video_video.
func (c *Client) MediaQuery(ctx context.Context, route, path string, topK int) (*QueryResponse, error) {
	body := map[string]any{"path": path}
	if topK > 0 {
		body["topk"] = topK
	}

	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/query/"+route, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// APIError is returned when the server responds with a non-2xx status.
// Detail holds the server's {"error": "..."} message body, if present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: server returned %d: %s", e.StatusCode, e.Detail)
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := struct {
			Error string `json:"error"`
		}{}
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		return &APIError{StatusCode: resp.StatusCode, Detail: detail.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
