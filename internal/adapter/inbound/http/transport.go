package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youngsinc/youngs-mcp/internal/domain/session"
	"github.com/youngsinc/youngs-mcp/internal/port/inbound"
)

// HTTPTransport is the inbound adapter that connects MCP clients to the
// protocol server over SSE (GET /sse + POST /messages) and streamable HTTP (/mcp).
type HTTPTransport struct {
	server          *mcp.Server
	httpServer      *http.Server
	addr            string
	callbackScheme  string
	messagesPath    string
	collision       session.CollisionPolicy
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	upstream        string
	version         string
	logger          *slog.Logger

	registry      *prometheus.Registry
	metrics       *Metrics
	sessions      *sessionRegistry
	healthChecker *HealthChecker

	handlerOnce sync.Once
	handler     http.Handler

	// baseCtx is the parent of every request context; cancelling it ends open streams.
	baseCtx    context.Context
	cancelBase context.CancelFunc
	closeOnce  sync.Once
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server.
// Default is ":3001".
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithCallbackScheme sets the scheme advertised in the SSE endpoint event.
// Default is "https".
func WithCallbackScheme(scheme string) Option {
	return func(t *HTTPTransport) {
		t.callbackScheme = scheme
	}
}

// WithMessagesPath sets the route protocol messages are posted to.
// Default is "/messages".
func WithMessagesPath(path string) Option {
	return func(t *HTTPTransport) {
		t.messagesPath = path
	}
}

// WithCollisionPolicy sets how a duplicate session ID is handled.
func WithCollisionPolicy(p session.CollisionPolicy) Option {
	return func(t *HTTPTransport) {
		t.collision = p
	}
}

// WithIdleTimeout closes SSE sessions that receive no messages for d.
// Zero (the default) disables idle expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.idleTimeout = d
	}
}

// WithCleanupInterval sets how often idle sessions are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.cleanupInterval = d
	}
}

// WithShutdownTimeout bounds graceful shutdown. Default is 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.shutdownTimeout = d
	}
}

// WithUpstream names the customer-details endpoint for the health report.
func WithUpstream(url string) Option {
	return func(t *HTTPTransport) {
		t.upstream = url
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(t *HTTPTransport) {
		t.version = v
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// WithHealthChecker replaces the default health checker.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) {
		t.healthChecker = hc
	}
}

// NewHTTPTransport creates the front door for the given protocol server.
func NewHTTPTransport(server *mcp.Server, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		server:          server,
		addr:            ":3001",
		callbackScheme:  "https",
		messagesPath:    "/messages",
		collision:       session.CollisionReject,
		cleanupInterval: DefaultCleanupInterval,
		shutdownTimeout: 10 * time.Second,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.registry = prometheus.NewRegistry()
	t.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	t.metrics = NewMetrics(t.registry)
	t.sessions = newSessionRegistry(t.collision, t.metrics, t.logger)
	if t.healthChecker == nil {
		t.healthChecker = NewHealthChecker(t.sessions.size, t.upstream, t.version)
	}
	t.baseCtx, t.cancelBase = context.WithCancel(context.Background())

	return t
}

// Handler returns the routed and instrumented HTTP handler.
func (t *HTTPTransport) Handler() http.Handler {
	t.handlerOnce.Do(func() {
		t.handler = t.buildHandler()
	})
	return t.handler
}

func (t *HTTPTransport) buildHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return t.server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/health", t.healthChecker.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{
		Registry: t.registry,
	}))
	mux.Handle("/favicon.ico", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /sse", t.handleSSE)
	mux.HandleFunc("POST "+t.messagesPath, t.handleMessages)
	mux.Handle("/mcp", streamable)

	// Middleware order (outermost first):
	// 1. MetricsMiddleware - must be outermost to capture full duration
	// 2. RequestID - extract/generate request ID and enrich logger
	// 3. RealIP - client IP from X-Forwarded-For
	// 4. AccessLog - one line per request
	var h http.Handler = mux
	h = AccessLogMiddleware(h)
	h = RealIPMiddleware(h)
	h = RequestIDMiddleware(t.logger)(h)
	h = MetricsMiddleware(t.metrics)(h)
	return h
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}
	return t.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (t *HTTPTransport) Serve(ctx context.Context, ln net.Listener) error {
	t.httpServer = &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return t.baseCtx
		},
	}

	t.sessions.startCleanup(ctx, t.cleanupInterval, t.idleTimeout)

	errCh := make(chan error, 1)
	go func() {
		t.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := t.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *HTTPTransport) shutdown() error {
	var err error
	t.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
		defer cancel()

		// End SSE sessions and any other open streams first; Shutdown
		// does not interrupt active requests.
		t.sessions.closeAll()
		t.cancelBase()

		if t.httpServer != nil {
			if err = t.httpServer.Shutdown(ctx); err != nil {
				t.logger.Error("error during server shutdown", "error", err)
				return
			}
		}
		t.logger.Info("HTTP server shutdown complete")
	})
	return err
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	return t.shutdown()
}

// SessionCount returns the number of open SSE sessions.
func (t *HTTPTransport) SessionCount() int {
	return t.sessions.size()
}

// Compile-time check that HTTPTransport implements Transport interface.
var _ inbound.Transport = (*HTTPTransport)(nil)
