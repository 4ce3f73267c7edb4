package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpmsg "github.com/youngsinc/youngs-mcp/pkg/mcp"
)

func newTestTransport(t *testing.T, opts ...Option) *HTTPTransport {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithUpstream("https://upstream.example/api"),
	}, opts...)
	tr := NewHTTPTransport(server, opts...)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func serve(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHandler_Root(t *testing.T) {
	tr := newTestTransport(t)
	rec := serve(t, tr.Handler(), http.MethodGet, "/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != LivenessMessage {
		t.Errorf("body = %q, want %q", got, LivenessMessage)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestHandler_UnknownSession(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"unknown id", "/messages?sessionId=does-not-exist"},
		{"missing id", "/messages"},
		{"empty id", "/messages?sessionId="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransport(t)
			body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
			rec := serve(t, tr.Handler(), http.MethodPost, tt.target, body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := rec.Body.String(); got != NoTransportMessage {
				t.Errorf("body = %q, want %q", got, NoTransportMessage)
			}
			if v := counterValue(t, tr.metrics.UnknownSessions); v != 1 {
				t.Errorf("unknown_session_total = %v, want 1", v)
			}
		})
	}
}

func TestHandler_Routing(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound},
		{"root post", http.MethodPost, "/", http.StatusMethodNotAllowed},
		{"messages get", http.MethodGet, "/messages", http.StatusMethodNotAllowed},
		{"sse post", http.MethodPost, "/sse", http.StatusMethodNotAllowed},
		{"favicon", http.MethodGet, "/favicon.ico", http.StatusNoContent},
		{"health", http.MethodGet, "/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransport(t)
			rec := serve(t, tr.Handler(), tt.method, tt.target, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandler_CustomMessagesPath(t *testing.T) {
	tr := newTestTransport(t, WithMessagesPath("/rpc"))

	rec := serve(t, tr.Handler(), http.MethodPost, "/rpc?sessionId=x", strings.NewReader("{}"))
	if rec.Code != http.StatusBadRequest || rec.Body.String() != NoTransportMessage {
		t.Errorf("POST /rpc: status = %d body = %q", rec.Code, rec.Body.String())
	}

	rec = serve(t, tr.Handler(), http.MethodPost, "/messages?sessionId=x", strings.NewReader("{}"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("POST /messages with custom path: status = %d, want 404", rec.Code)
	}
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	tr := newTestTransport(t)
	serve(t, tr.Handler(), http.MethodPost, "/messages?sessionId=x", strings.NewReader("{}"))

	rec := serve(t, tr.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"youngs_mcp_unknown_session_total 1",
		"youngs_mcp_requests_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCallbackURL(t *testing.T) {
	tests := []struct {
		host   string
		scheme string
		path   string
		want   string
	}{
		{"example.com", "https", "/messages", "https://example.com/messages"},
		{"localhost:3001", "http", "/messages", "http://localhost:3001/messages"},
		{"10.0.0.1:8080", "https", "/rpc", "https://10.0.0.1:8080/rpc"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/sse", nil)
		r.Host = tt.host
		if got := callbackURL(r, tt.scheme, tt.path); got != tt.want {
			t.Errorf("callbackURL(%q, %q, %q) = %q, want %q", tt.host, tt.scheme, tt.path, got, tt.want)
		}
	}
}

func TestMethodLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`, "initialize"},
		{`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get-customer-details"}}`, "tools/call"},
		{`{"jsonrpc":"2.0","method":"notifications/initialized"}`, "notifications/initialized"},
		{`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`, "other"},
		{`{"jsonrpc":"2.0","id":4,"result":{}}`, "response"},
	}
	for _, tt := range tests {
		msg, err := mcpmsg.WrapMessage([]byte(tt.raw))
		if err != nil {
			t.Fatalf("WrapMessage(%s): %v", tt.raw, err)
		}
		if got := methodLabel(msg); got != tt.want {
			t.Errorf("methodLabel(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
