package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/youngsinc/youngs-mcp/internal/domain/session"
	mcpmsg "github.com/youngsinc/youngs-mcp/pkg/mcp"
)

// LivenessMessage is the body served on GET /.
const LivenessMessage = "Youngs MCP server is running!"

// NoTransportMessage is the body of the 400 returned for an unknown sessionId.
const NoTransportMessage = "No transport found for sessionId"

// SessionIDParam is the query parameter carrying the SSE session ID.
const SessionIDParam = "sessionId"

// maxRequestBodySize is the maximum allowed message body size (1 MB).
const maxRequestBodySize = 1 << 20

// knownMethods bounds the method label on messages_total.
var knownMethods = map[string]struct{}{
	"initialize":                {},
	"notifications/initialized": {},
	"notifications/cancelled":   {},
	"ping":                      {},
	"tools/list":                {},
	"tools/call":                {},
}

// handleRoot serves the static liveness text. Only the exact path "/" is routed here.
func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writePlainText(w, http.StatusOK, LivenessMessage)
}

// callbackURL builds the URL clients post messages to, from the request's
// Host header and the configured scheme and path.
func callbackURL(r *http.Request, scheme, path string) string {
	return scheme + "://" + r.Host + path
}

// handleSSE opens an SSE stream, registers it, and binds it to the protocol
// server. It blocks for the life of the connection and unregisters the
// session when the client goes away or the protocol session ends.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())

	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	info := session.New(callbackURL(r, t.callbackScheme, t.messagesPath))
	entry := newSSESession(info, w)
	if err := t.sessions.register(entry); err != nil {
		logger.Error("failed to register session", "session_id", info.ID, "error", err)
		http.Error(w, "failed to establish session", http.StatusInternalServerError)
		return
	}
	defer t.sessions.unregister(entry)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionLogger := logger.With("session_id", info.ID)
	ctx := context.WithValue(r.Context(), LoggerKey, sessionLogger)

	// Connect emits the endpoint event carrying the session ID.
	conn, err := t.server.Connect(ctx, entry.transport, nil)
	if err != nil {
		sessionLogger.Error("failed to connect session", "error", err)
		return
	}
	if !entry.attach(conn) {
		_ = conn.Close()
		return
	}
	defer entry.close()

	sessionLogger.Info("sse session opened", "callback", info.CallbackURL)

	done := make(chan struct{})
	go func() {
		_ = conn.Wait()
		close(done)
	}()

	select {
	case <-r.Context().Done():
	case <-done:
	}

	sessionLogger.Info("sse session closed", "duration", time.Since(info.CreatedAt))
}

// handleMessages routes a posted protocol message to its SSE session.
func (t *HTTPTransport) handleMessages(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())

	id := r.URL.Query().Get(SessionIDParam)
	entry, ok := t.sessions.lookup(id)
	if !ok {
		t.metrics.UnknownSessions.Inc()
		logger.Debug("no transport for session", "session_id", id)
		writePlainText(w, http.StatusBadRequest, NoTransportMessage)
		return
	}
	entry.touch(time.Now())

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	label := "invalid"
	if msg, err := mcpmsg.WrapMessage(body); err == nil {
		label = methodLabel(msg)
		logger.Debug("routing message", append([]any{"session_id", id}, msg.LogAttrs()...)...)
	}
	t.metrics.MessagesTotal.WithLabelValues(label).Inc()

	// Malformed bodies are rejected by the transport itself.
	entry.transport.ServeHTTP(w, r)
}

// methodLabel maps a message to a bounded metric label.
func methodLabel(msg *mcpmsg.Message) string {
	if msg.IsResponse() {
		return "response"
	}
	if _, ok := knownMethods[msg.Method()]; ok {
		return msg.Method()
	}
	return "other"
}

// writePlainText writes body verbatim, without the trailing newline http.Error adds.
func writePlainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
