package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies component health.
type HealthChecker struct {
	sessions func() int
	upstream string
	version  string
}

// NewHealthChecker creates a HealthChecker.
// sessions reports the number of open SSE sessions and may be nil.
// upstream names the customer-details endpoint for display.
func NewHealthChecker(sessions func() int, upstream, version string) *HealthChecker {
	return &HealthChecker{
		sessions: sessions,
		upstream: upstream,
		version:  version,
	}
}

// Check reports component status. The upstream is not contacted; health
// reflects this process only.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.sessions != nil {
		// Acquires the registry lock; a hang here is itself a signal.
		checks["sse_sessions"] = fmt.Sprintf("ok: %d active", h.sessions())
	} else {
		checks["sse_sessions"] = "not configured"
	}

	if h.upstream != "" {
		checks["upstream"] = "configured: " + h.upstream
	} else {
		checks["upstream"] = "not configured"
		healthy = false
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
