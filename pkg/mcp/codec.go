package mcp

import (
	"bytes"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// ErrEmptyMessage is returned for a body that is empty or only whitespace.
var ErrEmptyMessage = errors.New("empty JSON-RPC message")

// WrapMessage decodes a posted JSON-RPC body and stamps it with the
// receive time. raw is retained, not copied.
func WrapMessage(raw []byte) (*Message, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyMessage
	}
	decoded, err := jsonrpc.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	return &Message{
		Raw:       raw,
		Decoded:   decoded,
		Timestamp: time.Now(),
	}, nil
}
