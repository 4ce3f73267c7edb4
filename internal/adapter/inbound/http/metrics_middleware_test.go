package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// histogramCount returns the sample count of youngs_mcp_request_duration_seconds for method.
func histogramCount(t *testing.T, reg *prometheus.Registry, method string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != "youngs_mcp_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "method" && lp.GetValue() == method {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/messages", nil))

	if got := histogramCount(t, reg, "POST"); got != 1 {
		t.Errorf("duration observations = %d, want 1", got)
	}
	if got := counterValue(t, metrics.RequestsTotal.WithLabelValues("POST", "ok")); got != 1 {
		t.Errorf("requests_total{POST,ok} = %v, want 1", got)
	}
}

func TestMetricsMiddleware_ErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/messages", nil))

	if got := counterValue(t, metrics.RequestsTotal.WithLabelValues("POST", "error")); got != 1 {
		t.Errorf("requests_total{POST,error} = %v, want 1", got)
	}
}

func TestMetricsMiddleware_SkipsInternalEndpoints(t *testing.T) {
	for _, path := range []string{"/metrics", "/health"} {
		t.Run(path, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics := NewMetrics(reg)

			handler := MetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

			if got := histogramCount(t, reg, "GET"); got != 0 {
				t.Errorf("expected 0 observations for %s, got %d", path, got)
			}
		})
	}
}

func TestStatusRecorder_FlushAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := newStatusRecorder(rec)

	var w http.ResponseWriter = sr
	if _, ok := w.(http.Flusher); !ok {
		t.Fatal("statusRecorder must implement http.Flusher for SSE")
	}

	_, _ = sr.Write([]byte("event: endpoint\n"))
	sr.Flush()

	if !rec.Flushed {
		t.Error("Flush was not passed through")
	}
	if sr.bytes != len("event: endpoint\n") {
		t.Errorf("bytes = %d", sr.bytes)
	}
	if sr.status != http.StatusOK {
		t.Errorf("status = %d, want default 200", sr.status)
	}
	if sr.Unwrap() != rec {
		t.Error("Unwrap should return the underlying writer")
	}
}
