// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the "handler" label value used to partition metrics by
	// the logical endpoint name rather than the raw URL path.
	labelHandler = "handler"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// ingestRequestsTotal counts completed POST /ingest/* requests,
	// partitioned by kind (path, path_list, url, url_list).
	ingestRequestsTotal *prometheus.CounterVec

	// jobsActive is registered as the number of background ingest jobs
	// currently RUNNING; nothing in this module updates it, so it reads 0.
	jobsActive prometheus.Gauge

	// queryRequestsTotal counts completed POST /query/* requests,
	// partitioned by route and outcome ("ok", "error").
	queryRequestsTotal *prometheus.CounterVec

	// queryDurationSeconds records the latency of /query/* requests.
	queryDurationSeconds *prometheus.HistogramVec

	// httpRequestsTotal is registered to count HTTP requests partitioned by
	// method, handler, and status code; nothing in this module increments
	// it, so it stays empty.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds is registered for the latency of all HTTP
	// requests; nothing in this module observes it, so it stays empty.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		ingestRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raggify",
			Subsystem: "ingest",
			Name:      "requests_total",
			Help:      "Total number of /ingest/* requests accepted, partitioned by kind.",
		}, []string{"kind"}),

		jobsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "raggify",
			Subsystem: "ingest",
			Name:      "jobs_active",
			Help:      "Number of background ingest jobs currently RUNNING.",
		}),

		queryRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raggify",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total number of /query/* requests completed, partitioned by route and outcome.",
		}, []string{"route", "outcome"}),

		queryDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raggify",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Latency of /query/* requests from receipt to response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raggify",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raggify",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}
