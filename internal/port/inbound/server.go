// Package inbound defines the inbound port interfaces through which MCP
// clients reach the server.
package inbound

import (
	"context"
)

// Transport is the inbound port implemented by client-facing transports.
type Transport interface {
	// Start begins accepting client connections.
	// Blocks until context is cancelled or an error occurs.
	// Returns nil on graceful shutdown, error on failure.
	Start(ctx context.Context) error

	// Close gracefully shuts down the transport and drops open sessions.
	Close() error
}
