package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetricsTestServer builds a Server backed by a fresh isolated registry so
// tests do not pollute prometheus.DefaultRegisterer.
func newMetricsTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:     &Config{MetricsRegistry: reg},
		metrics: newServerMetrics(reg),
	}
	return s, reg
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	_, reg := newMetricsTestServer(t)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_IngestCounterIncremented(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	s.metrics.ingestRequestsTotal.WithLabelValues("path").Inc()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "raggify_ingest_requests_total" {
			for _, m := range mf.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "kind" && lp.GetValue() == "path" {
						if m.GetCounter().GetValue() != 1 {
							t.Errorf("want counter=1, got %v", m.GetCounter().GetValue())
						}
						found = true
					}
				}
			}
		}
	}
	if !found {
		t.Error("raggify_ingest_requests_total{kind=\"path\"} not found in gathered metrics")
	}
}

func Test_Metrics_JobsActiveGauge(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	s.metrics.jobsActive.Inc()
	s.metrics.jobsActive.Inc()
	s.metrics.jobsActive.Dec()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "raggify_ingest_jobs_active" {
			v := mf.GetMetric()[0].GetGauge().GetValue()
			if v != 1 {
				t.Errorf("want jobs_active=1, got %v", v)
			}
			return
		}
	}
	t.Error("raggify_ingest_jobs_active not found in gathered metrics")
}

func Test_Metrics_QueryRequestsAndDuration(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t)

	s.metrics.queryRequestsTotal.WithLabelValues("text_text", "ok").Inc()
	s.metrics.queryDurationSeconds.WithLabelValues("text_text").Observe(0.05)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var foundCounter, foundHist bool
	for _, mf := range mfs {
		switch mf.GetName() {
		case "raggify_query_requests_total":
			for _, m := range mf.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "route" && lp.GetValue() == "text_text" {
						foundCounter = true
					}
				}
			}
		case "raggify_query_duration_seconds":
			for _, m := range mf.GetMetric() {
				if m.GetHistogram().GetSampleCount() == 1 {
					foundHist = true
				}
			}
		}
	}
	if !foundCounter {
		t.Error("raggify_query_requests_total{route=\"text_text\"} not found")
	}
	if !foundHist {
		t.Error("raggify_query_duration_seconds sample not found")
	}
}
