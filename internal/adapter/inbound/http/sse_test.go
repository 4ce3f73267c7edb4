package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/youngsinc/youngs-mcp/internal/adapter/outbound/customerapi"
	"github.com/youngsinc/youngs-mcp/internal/domain/customer"
	"github.com/youngsinc/youngs-mcp/internal/service"
)

const testCustomerJSON = `{"customerId":"A024874","name":"Jane Doe","tier":"gold"}`

// newCustomerStack wires a mock upstream into a protocol server the same way
// the start command does.
func newCustomerStack(t *testing.T, upstream http.HandlerFunc) *mcp.Server {
	t.Helper()
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := customerapi.NewHTTPClient(api.URL, customerapi.WithTimeout(5*time.Second))
	t.Cleanup(func() { _ = client.Close() })

	svc := service.NewCustomerService(client, customer.DefaultCustomerID, logger)
	return service.NewMCPServer(svc, logger)
}

func startFrontDoor(t *testing.T, server *mcp.Server) (*HTTPTransport, *httptest.Server) {
	t.Helper()
	tr := NewHTTPTransport(server,
		WithCallbackScheme("http"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	srv := httptest.NewServer(tr.Handler())
	t.Cleanup(func() {
		_ = tr.Close()
		srv.Close()
	})
	return tr, srv
}

func waitForSessions(t *testing.T, tr *HTTPTransport, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for tr.SessionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("session count = %d, want %d", tr.SessionCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSSE_ToolCallRoundTrip(t *testing.T) {
	server := newCustomerStack(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+customer.DefaultCustomerID {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, testCustomerJSON)
	})
	tr, srv := startFrontDoor(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "e2e", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: srv.URL + "/sse"}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	if got := cs.InitializeResult().ServerInfo.Name; got != service.ServerName {
		t.Errorf("server name = %q, want %q", got, service.ServerName)
	}
	waitForSessions(t, tr, 1)

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != service.ToolName {
		t.Fatalf("tools = %+v, want only %s", tools.Tools, service.ToolName)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: service.ToolName})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if res.IsError || len(res.Content) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want *mcp.TextContent", res.Content[0])
	}
	want, _ := customer.ParseRecord([]byte(testCustomerJSON))
	pretty, _ := want.Indent()
	if text.Text != pretty {
		t.Errorf("text = %q, want %q", text.Text, pretty)
	}

	if err := cs.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	waitForSessions(t, tr, 0)
}

func TestSSE_UpstreamFailure(t *testing.T) {
	server := newCustomerStack(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	_, srv := startFrontDoor(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "e2e", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: srv.URL + "/sse"}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: service.ToolName})
	if err != nil {
		if !strings.Contains(err.Error(), customer.FetchFailedMessage) {
			t.Errorf("error = %v, want %q", err, customer.FetchFailedMessage)
		}
		return
	}
	if !res.IsError {
		t.Fatalf("expected a failed tool call, got %+v", res)
	}
	if len(res.Content) == 0 {
		t.Fatal("error result has no content")
	}
	if text, ok := res.Content[0].(*mcp.TextContent); !ok || !strings.Contains(text.Text, customer.FetchFailedMessage) {
		t.Errorf("error content = %+v", res.Content[0])
	}

	// The session survives a failed call.
	if _, err := cs.ListTools(ctx, nil); err != nil {
		t.Errorf("list tools after failure: %v", err)
	}
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" || ev.data != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

var endpointPattern = regexp.MustCompile(`^https://example\.com/messages\?sessionId=[0-9a-f-]{36}$`)

func TestSSE_EndpointEventAndMessageRouting(t *testing.T) {
	server := newCustomerStack(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, testCustomerJSON)
	})
	tr := NewHTTPTransport(server, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	req.Host = "example.com"
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /sse: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	stream := bufio.NewReader(resp.Body)
	ev := readEvent(t, stream)
	if ev.name != "endpoint" {
		t.Fatalf("first event = %q, want endpoint", ev.name)
	}
	if !endpointPattern.MatchString(ev.data) {
		t.Fatalf("endpoint = %q, want https://example.com/messages?sessionId=<uuid>", ev.data)
	}

	// Post to the advertised path on the test server.
	sessionID := ev.data[strings.Index(ev.data, "=")+1:]
	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"raw","version":"0"}}}`
	post, err := http.Post(srv.URL+"/messages?sessionId="+sessionID, "application/json", strings.NewReader(initialize))
	if err != nil {
		t.Fatalf("POST /messages: %v", err)
	}
	_, _ = io.Copy(io.Discard, post.Body)
	post.Body.Close()
	if post.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want 202", post.StatusCode)
	}

	ev = readEvent(t, stream)
	if ev.name != "message" {
		t.Fatalf("event = %q, want message", ev.name)
	}
	var reply struct {
		ID     int `json:"id"`
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
			Instructions string `json:"instructions"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(ev.data), &reply); err != nil {
		t.Fatalf("decode reply %q: %v", ev.data, err)
	}
	if reply.ID != 1 || reply.Result.ServerInfo.Name != service.ServerName || reply.Result.ServerInfo.Version != service.ServerVersion {
		t.Errorf("unexpected initialize reply: %s", ev.data)
	}
	if reply.Result.Instructions != service.ServerInstructions {
		t.Errorf("instructions = %q", reply.Result.Instructions)
	}
	if v := counterValue(t, tr.metrics.MessagesTotal.WithLabelValues("initialize")); v != 1 {
		t.Errorf("messages_total{initialize} = %v, want 1", v)
	}
}

func TestSSE_CloseEndsOpenStreams(t *testing.T) {
	server := newCustomerStack(t, func(w http.ResponseWriter, r *http.Request) {})
	tr := NewHTTPTransport(server, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sse")
	if err != nil {
		t.Fatalf("GET /sse: %v", err)
	}
	defer resp.Body.Close()
	stream := bufio.NewReader(resp.Body)
	readEvent(t, stream)
	waitForSessions(t, tr, 1)

	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if tr.SessionCount() != 0 {
		t.Errorf("session count after close = %d", tr.SessionCount())
	}

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, stream)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE stream still open after Close")
	}
}

func TestHTTPTransport_ServeAndShutdown(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	tr := NewHTTPTransport(server,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithShutdownTimeout(2*time.Second),
	)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tr.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/"
	var resp *http.Response
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became reachable: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != LivenessMessage {
		t.Errorf("body = %q", body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	// A second close is a no-op.
	if err := tr.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
