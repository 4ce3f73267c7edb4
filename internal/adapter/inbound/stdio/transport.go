// Package stdio serves the MCP server over stdin/stdout for clients that
// launch youngs-mcp as a subprocess.
package stdio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/youngsinc/youngs-mcp/internal/port/inbound"
)

// StdioTransport is the inbound adapter that connects a single client on
// stdin/stdout to the protocol server.
type StdioTransport struct {
	server *mcp.Server
	in     io.ReadCloser
	out    io.WriteCloser
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a StdioTransport.
type Option func(*StdioTransport)

// WithIO replaces os.Stdin and os.Stdout.
func WithIO(in io.ReadCloser, out io.WriteCloser) Option {
	return func(t *StdioTransport) {
		t.in = in
		t.out = out
	}
}

// WithLogger sets the logger. Logs must not go to the output stream.
func WithLogger(logger *slog.Logger) Option {
	return func(t *StdioTransport) {
		t.logger = logger
	}
}

// NewStdioTransport creates a stdio transport adapter for server.
func NewStdioTransport(server *mcp.Server, opts ...Option) *StdioTransport {
	t := &StdioTransport{
		server: server,
		in:     os.Stdin,
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start serves the protocol session until the client closes its end of the
// stream, ctx is cancelled, or Close is called.
func (t *StdioTransport) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	defer cancel()

	t.logger.Info("serving MCP over stdio")
	err := t.server.Run(ctx, &mcp.IOTransport{Reader: t.in, Writer: t.out})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	t.logger.Info("stdio session ended")
	return nil
}

// Close stops a running Start.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

// Compile-time check that StdioTransport implements the Transport interface.
var _ inbound.Transport = (*StdioTransport)(nil)
