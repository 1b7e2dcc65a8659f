package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/raggify/raggify-go/internal/logging"
)

// probeTimeout is the maximum time allowed for each individual dependency
// probe during a health check. Kept short so /health responds quickly even
// when a dependency is slow rather than unreachable.
const probeTimeout = 5 * time.Second

// Pinger is the interface implemented by any component that can report its
// own reachability. Each implementation must return nil when the component
// is healthy and a descriptive error otherwise.
// Implementations must be safe to call from multiple goroutines.
type Pinger interface {
	// Ping checks whether the component is reachable within the given context.
	// Returns nil on success, a descriptive error on failure.
	Ping(ctx context.Context) error

	// Name returns the component label used as its field name in the
	// /health response (e.g. "vector_store", "ingest_cache").
	Name() string
}

// healthResponse is the JSON body returned by GET /health (spec §6): a flat
// per-component status map plus the overall status. Each component field
// holds "ok" or a short failure description.
type healthResponse struct {
	Status        string `json:"status"`
	VectorStore   string `json:"vector_store"`
	Embed         string `json:"embed"`
	Rerank        string `json:"rerank"`
	IngestCache   string `json:"ingest_cache"`
	DocumentStore string `json:"document_store"`
}

// handleHealth handles GET /health. It probes every registered Pinger with a
// short timeout and always returns 200 (spec §6 lists only 200 for this
// route) — the per-component fields, not the HTTP status, carry failure
// detail. This bypasses the request lock: probes only read, never mutate
// the stores they check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := healthResponse{Status: "ok"}
	for _, p := range s.getPingers() {
		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		val := "ok"
		if err != nil {
			val = err.Error()
			log.Warn("health probe failed",
				slog.String("component", p.Name()),
				slog.Any("error", err),
			)
		}

		switch p.Name() {
		case "vector_store":
			resp.VectorStore = val
		case "embed":
			resp.Embed = val
		case "rerank":
			resp.Rerank = val
		case "ingest_cache":
			resp.IngestCache = val
		case "document_store":
			resp.DocumentStore = val
		default:
			log.Warn("health: unrecognized pinger name, dropping", slog.String("name", p.Name()))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("health encode error", slog.Any("error", err))
	}
}

// funcPinger adapts a plain probe function to the Pinger interface, so each
// component's check can be written as a closure over the runtime instead of
// a dedicated type; every probe in pingers.go is a funcPinger.
type funcPinger struct {
	name string
	fn   func(ctx context.Context) error
}

func (f *funcPinger) Name() string                  { return f.name }
func (f *funcPinger) Ping(ctx context.Context) error { return f.fn(ctx) }
