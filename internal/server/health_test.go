package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// fakePinger is a test double for the Pinger interface.
type fakePinger struct {
	// name is returned by Name().
	name string
	// err is returned by Ping(); nil means healthy.
	err error
}

func (f *fakePinger) Name() string                 { return f.name }
func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// newHealthTestServer builds a *Server with only enough state wired for
// handleHealth to run, with the given pingers installed.
func newHealthTestServer(t *testing.T, pingers ...Pinger) *Server {
	t.Helper()
	s := &Server{
		cfg:     &Config{},
		metrics: newServerMetrics(prometheus.NewRegistry()),
	}
	s.setPingers(pingers)
	return s
}

// TestHandleHealth_NoPingers verifies that /health returns 200 with
// status "ok" when no component probes are registered.
func TestHandleHealth_NoPingers(t *testing.T) {
	t.Parallel()

	s := newHealthTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}

	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: expected %q, got %q", "ok", resp.Status)
	}
}

// TestHandleHealth_AllComponentsOK verifies every component field reports
// "ok" when all registered pingers succeed.
func TestHandleHealth_AllComponentsOK(t *testing.T) {
	t.Parallel()

	s := newHealthTestServer(t,
		&fakePinger{name: "vector_store"},
		&fakePinger{name: "embed"},
		&fakePinger{name: "rerank"},
		&fakePinger{name: "ingest_cache"},
		&fakePinger{name: "document_store"},
	)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for name, got := range map[string]string{
		"vector_store": resp.VectorStore, "embed": resp.Embed, "rerank": resp.Rerank,
		"ingest_cache": resp.IngestCache, "document_store": resp.DocumentStore,
	} {
		if got != "ok" {
			t.Errorf("%s: expected %q, got %q", name, "ok", got)
		}
	}
}

// TestHandleHealth_ComponentFailureStillReturns200 verifies that a failing
// component surfaces its error detail in the corresponding field while the
// route still answers 200 (spec §6 lists only 200 for /health).
func TestHandleHealth_ComponentFailureStillReturns200(t *testing.T) {
	t.Parallel()

	s := newHealthTestServer(t,
		&fakePinger{name: "vector_store", err: errors.New("connection refused")},
		&fakePinger{name: "embed"},
	)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.VectorStore != "connection refused" {
		t.Errorf("vector_store: expected failure detail, got %q", resp.VectorStore)
	}
	if resp.Embed != "ok" {
		t.Errorf("embed: expected %q, got %q", "ok", resp.Embed)
	}
	if resp.Status != "ok" {
		t.Errorf("overall status should stay %q regardless of component failures, got %q", "ok", resp.Status)
	}
}

// TestHandleHealth_UnrecognizedPingerNameDropped verifies that a pinger whose
// name doesn't match a known component field is silently dropped rather than
// failing the request.
func TestHandleHealth_UnrecognizedPingerNameDropped(t *testing.T) {
	t.Parallel()

	s := newHealthTestServer(t, &fakePinger{name: "not_a_real_component"})
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

// TestHandleHealth_ContentType verifies the response always has Content-Type
// application/json regardless of probe outcome.
func TestHandleHealth_ContentType(t *testing.T) {
	t.Parallel()

	s := newHealthTestServer(t, &fakePinger{name: "rerank", err: errors.New("down")})
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}
}
