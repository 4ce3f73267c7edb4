// Package http provides the HTTP front door for the youngs-mcp server.
//
// # Usage
//
//	transport := http.NewHTTPTransport(mcpServer,
//	    http.WithAddr(":3001"),
//	    http.WithCallbackScheme("https"),
//	    http.WithLogger(logger),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	GET  /          - Liveness text
//	GET  /sse       - Open an SSE stream; the first event ("endpoint")
//	                  carries the URL to post messages to
//	POST /messages  - Post a JSON-RPC message to ?sessionId=<id>
//	     /mcp       - Streamable HTTP binding of the same server
//	GET  /health    - JSON health report
//	GET  /metrics   - Prometheus metrics
//
// # SSE sessions
//
// Each accepted GET /sse gets a fresh session ID and a registry entry that
// lives exactly as long as the connection. The callback URL advertised to the
// client is <scheme>://<Host header>/messages?sessionId=<id>; the scheme is
// configurable because TLS is usually terminated in front of this server.
// Posting to an unknown session returns 400 with the body
// "No transport found for sessionId" and never reaches the tool.
//
// Session ID collisions are resolved by the configured policy (reject or
// replace) and are logged. Optional idle expiry closes sessions that have
// not received a message within the configured timeout.
//
// # Middleware Chain
//
// Requests pass through middleware in this order:
//
//  1. MetricsMiddleware - request counts and durations
//  2. RequestIDMiddleware - X-Request-ID and request-scoped logger
//  3. RealIPMiddleware - client IP from proxy headers
//  4. AccessLogMiddleware - one log line per request
package http
