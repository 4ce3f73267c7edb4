// Package mcp provides MCP message inspection and JSON-RPC codec utilities
// for the youngs-mcp front door.
package mcp

import (
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// MethodToolsCall is the JSON-RPC method of a tool invocation.
const MethodToolsCall = "tools/call"

// Message wraps a decoded JSON-RPC message posted by a client.
// It keeps the raw bytes so the body can be handed on unchanged.
type Message struct {
	// Raw contains the original bytes of the message.
	Raw []byte

	// Decoded contains the parsed JSON-RPC message.
	// The concrete type is either *jsonrpc.Request or *jsonrpc.Response.
	Decoded jsonrpc.Message

	// Timestamp records when the message was received.
	Timestamp time.Time
}

// IsRequest returns true if the message is a JSON-RPC request or notification.
func (m *Message) IsRequest() bool {
	return m.Request() != nil
}

// IsResponse returns true if the message is a JSON-RPC response.
func (m *Message) IsResponse() bool {
	return m.Response() != nil
}

// Method returns the method name if this is a request, empty string otherwise.
func (m *Message) Method() string {
	req := m.Request()
	if req == nil {
		return ""
	}
	return req.Method
}

// IsToolCall returns true if this is a tools/call request.
func (m *Message) IsToolCall() bool {
	return m.Method() == MethodToolsCall
}

// IsNotification returns true for requests without an ID.
func (m *Message) IsNotification() bool {
	req := m.Request()
	return req != nil && !req.ID.IsValid()
}

// Request returns the underlying Request if this is a request message.
// Returns nil if this is not a request.
func (m *Message) Request() *jsonrpc.Request {
	if m == nil || m.Decoded == nil {
		return nil
	}
	req, _ := m.Decoded.(*jsonrpc.Request)
	return req
}

// Response returns the underlying Response if this is a response message.
// Returns nil if this is not a response.
func (m *Message) Response() *jsonrpc.Response {
	if m == nil || m.Decoded == nil {
		return nil
	}
	resp, _ := m.Decoded.(*jsonrpc.Response)
	return resp
}

// ToolName returns params.name of a tools/call request, or "" otherwise.
func (m *Message) ToolName() string {
	if !m.IsToolCall() {
		return ""
	}
	req := m.Request()
	if req.Params == nil {
		return ""
	}
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return ""
	}
	return params.Name
}

// LogAttrs returns slog key/value pairs describing the message.
// Empty fields are omitted.
func (m *Message) LogAttrs() []any {
	var attrs []any
	switch {
	case m.IsResponse():
		attrs = append(attrs, "kind", "response")
	case m.IsNotification():
		attrs = append(attrs, "kind", "notification", "method", m.Method())
	default:
		attrs = append(attrs, "kind", "request", "method", m.Method())
	}
	if tool := m.ToolName(); tool != "" {
		attrs = append(attrs, "tool", tool)
	}
	if id := m.RawID(); id != nil {
		attrs = append(attrs, "id", string(id))
	}
	return attrs
}

// RawID extracts the request ID from the raw message bytes as json.RawMessage.
// The SDK's jsonrpc.ID does not marshal through interface{}, so the ID is
// read from the raw JSON. Returns nil if no ID is present.
func (m *Message) RawID() json.RawMessage {
	if m.Raw == nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(m.Raw, &raw); err != nil {
		return nil
	}
	return raw["id"]
}
