// Package server implements the REST API (spec §6) that exposes a Runtime's
// ingestion and retrieval operations: health, config reload, upload, the
// background-job ingest surface, and the nine cross-modal query routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raggify/raggify-go/internal/logging"
	"github.com/raggify/raggify-go/internal/runtime"
	"github.com/raggify/raggify-go/internal/worker"
)

// New constructs a Server from the provided Runtime and worker Manager.
// If cfg.Logger is nil, [logging.New] is used.
func New(rt *runtime.Runtime, wm *worker.Manager, cfg *Config) (*Server, error) {
	if rt == nil {
		return nil, fmt.Errorf("server: runtime must not be nil")
	}
	if wm == nil {
		return nil, fmt.Errorf("server: worker manager must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.NewRegistry()
	}

	s := &Server{
		rt:      rt,
		worker:  wm,
		cfg:     cfg,
		log:     cfg.Logger,
		metrics: newServerMetrics(cfg.MetricsRegistry),
	}
	s.setPingers(buildPingers(rt))
	if cfg.APIKey == "" {
		s.log.Warn("server: no API key configured, authentication disabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/reload", s.withLock(s.handleReload))
	mux.HandleFunc("POST /v1/upload", s.withLock(s.handleUpload))

	for _, kind := range []string{"path", "path_list", "url", "url_list"} {
		mux.HandleFunc("POST /v1/ingest/"+kind, s.withLock(s.handleIngest))
	}
	mux.HandleFunc("POST /v1/job", s.withLock(s.handleJob))

	for _, route := range []string{
		"text_text", "text_image", "image_image",
		"text_audio", "audio_audio",
		"text_video", "image_video", "audio_video", "video_video",
	} {
		mux.HandleFunc("POST /v1/query/"+route, s.withLock(s.handleQuery))
	}

	mux.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsRegistry, promhttp.HandlerOpts{}))

	rl, stopRL := newRateLimiter(firstNonZero(cfg.RateLimit, defaultRateLimit), firstNonZeroInt(cfg.RateBurst, defaultRateBurst), s.log)
	s.stopRL = stopRL

	handler := requestLogger(s.log, rl.middleware(authMiddleware(cfg.APIKey, mux)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

func firstNonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func firstNonZeroInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// withLock serializes handlers that touch mutable stores behind the
// process-wide request lock (spec §4.6). /health and /metrics are not
// wrapped, since they never mutate anything.
func (s *Server) withLock(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.reqLock.Lock()
		defer s.reqLock.Unlock()
		next(w, r)
	}
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return s.worker.Shutdown(shutdownCtx)
	}
}
