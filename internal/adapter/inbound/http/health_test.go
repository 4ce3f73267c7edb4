package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker_Healthy(t *testing.T) {
	hc := NewHealthChecker(func() int { return 3 }, "https://upstream.example/api", "test-version")

	health := hc.Check()

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want test-version", health.Version)
	}
	if health.Checks["sse_sessions"] != "ok: 3 active" {
		t.Errorf("sse_sessions = %q", health.Checks["sse_sessions"])
	}
	if health.Checks["upstream"] != "configured: https://upstream.example/api" {
		t.Errorf("upstream = %q", health.Checks["upstream"])
	}
	if health.Checks["goroutines"] == "" {
		t.Error("goroutines check missing")
	}
}

func TestHealthChecker_NoUpstream(t *testing.T) {
	hc := NewHealthChecker(nil, "", "")
	health := hc.Check()

	if health.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", health.Status)
	}
	if health.Checks["sse_sessions"] != "not configured" {
		t.Errorf("sse_sessions = %q, want 'not configured'", health.Checks["sse_sessions"])
	}
}

func TestHealthChecker_Handler(t *testing.T) {
	tests := []struct {
		name       string
		upstream   string
		wantStatus int
	}{
		{"healthy", "https://upstream.example", http.StatusOK},
		{"unhealthy", "", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker(func() int { return 0 }, tt.upstream, "v1")

			rec := httptest.NewRecorder()
			hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Version != "v1" {
				t.Errorf("Version = %q", resp.Version)
			}
		})
	}
}
