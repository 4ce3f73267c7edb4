package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the HTTP front door.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge
	SessionEvents   *prometheus.CounterVec
	MessagesTotal   *prometheus.CounterVec
	UnknownSessions prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "youngs_mcp",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "status"}, // status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "youngs_mcp",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds; for SSE streams this is the session lifetime",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ActiveSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "youngs_mcp",
				Name:      "active_sessions",
				Help:      "Number of open SSE sessions",
			},
		),
		SessionEvents: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "youngs_mcp",
				Name:      "session_events_total",
				Help:      "SSE session lifecycle events",
			},
			[]string{"event"}, // opened/closed/rejected/replaced/expired
		),
		MessagesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "youngs_mcp",
				Name:      "messages_total",
				Help:      "Protocol messages posted to SSE sessions, by JSON-RPC method",
			},
			[]string{"method"},
		),
		UnknownSessions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "youngs_mcp",
				Name:      "unknown_session_total",
				Help:      "Messages rejected because no transport matched the sessionId",
			},
		),
	}
}
