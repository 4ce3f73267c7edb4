// Package customer holds the customer-lookup domain: the relayed record and
// the error reported when the upstream lookup fails.
package customer

import (
	"bytes"
	"encoding/json"
	"errors"
)

// DefaultCustomerID is the customer looked up when none is configured.
const DefaultCustomerID = "A024874"

// indent is the per-level indentation used when rendering a record.
const indent = "  "

// ErrInvalidRecord is returned by ParseRecord for bodies that are not JSON.
var ErrInvalidRecord = errors.New("customer record is not valid JSON")

// Record is an upstream customer document. Its shape is not interpreted;
// it is only checked to be well-formed JSON and relayed.
type Record json.RawMessage

// ParseRecord validates data as a single JSON value and returns it as a Record.
func ParseRecord(data []byte) (Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, ErrInvalidRecord
	}
	return Record(trimmed), nil
}

// Indent renders the record with two-space indentation, preserving key order.
func (r Record) Indent() (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r, "", indent); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MarshalJSON returns the record unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return r, nil
}
