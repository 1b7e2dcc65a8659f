package server

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raggify/raggify-go/internal/runtime"
	"github.com/raggify/raggify-go/internal/worker"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /v1/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// UploadDir is where POST /upload writes incoming files.
	UploadDir string
	// MetricsRegistry is the Prometheus registry metrics register against.
	// If nil, a fresh private registry is created — tests inject their own
	// to keep assertions hermetic.
	MetricsRegistry *prometheus.Registry
}

// Server is the HTTP server wrapping a Runtime and its background worker
// (spec §4.6). Every ingest- and query-touching handler serializes on
// reqLock; /health bypasses it since it performs no store writes.
type Server struct {
	rt     *runtime.Runtime
	worker *worker.Manager
	cfg    *Config

	httpServer *http.Server
	log        *slog.Logger
	metrics    *serverMetrics

	// pingers is swapped atomically by /reload so the lock-free /health
	// handler never observes a torn read while a rebuild is in flight.
	pingers atomic.Pointer[[]Pinger]

	// reqLock is the process-wide request lock (spec §4.6) serializing
	// every handler that touches mutable stores: ingest, query, /reload,
	// /upload. Reads that never touch a store (/health) bypass it.
	reqLock sync.Mutex

	stopRL func()
}

func (s *Server) setPingers(p []Pinger) { s.pingers.Store(&p) }

func (s *Server) getPingers() []Pinger {
	p := s.pingers.Load()
	if p == nil {
		return nil
	}
	return *p
}

// ingestRequest is the JSON body for POST /ingest/{path,path_list,url,url_list}.
type ingestRequest struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ingestResponse is the JSON response for POST /ingest/*. Per spec §7,
// /ingest/* returns 200 with status "accepted" for every well-formed
// request — actual failure surfaces later through /job.
type ingestResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// jobRequest is the JSON body for POST /job.
type jobRequest struct {
	JobID string `json:"job_id,omitempty"`
	RM    bool   `json:"rm,omitempty"`
}

// jobView is the JSON shape of one job in /job responses.
type jobView struct {
	JobID      string `json:"job_id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`

	InputsProcessed int `json:"inputs_processed"`
	NodesCommitted  int `json:"nodes_committed"`
	NodesSkipped    int `json:"nodes_skipped"`
}

// uploadedFile is one entry in the /upload response.
type uploadedFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SavePath    string `json:"save_path"`
}

// uploadResponse is the JSON response for POST /upload.
type uploadResponse struct {
	Files []uploadedFile `json:"files"`
}

// queryDocument is one entry in a /query/* response.
type queryDocument struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

// queryResponse is the JSON response for every POST /query/* route.
type queryResponse struct {
	Documents []queryDocument `json:"documents"`
}

// textQueryRequest is the JSON body for text-source query routes
// (text_text, text_image, text_audio, text_video).
type textQueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topk,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// mediaQueryRequest is the JSON body for media-source query routes
// (image_image, audio_audio, image_video, audio_video, video_video).
type mediaQueryRequest struct {
	Path string `json:"path"`
	TopK int    `json:"topk,omitempty"`
}
