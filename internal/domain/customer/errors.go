package customer

import "fmt"

// FetchFailedMessage is the caller-visible text of every UpstreamError.
const FetchFailedMessage = "Failed to fetch customer details"

// UpstreamError reports a failed customer lookup. The message shown to MCP
// clients is always FetchFailedMessage; the cause is kept for logs and errors.As.
type UpstreamError struct {
	// StatusCode is the upstream HTTP status, or 0 when no response was received.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

// NewStatusError builds an UpstreamError for a non-2xx upstream response.
func NewStatusError(status int) *UpstreamError {
	return &UpstreamError{StatusCode: status, Err: fmt.Errorf("http status %d", status)}
}

// NewTransportError builds an UpstreamError for a request that got no usable response.
func NewTransportError(err error) *UpstreamError {
	return &UpstreamError{Err: err}
}

func (e *UpstreamError) Error() string {
	return FetchFailedMessage
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Detail describes the cause for logging.
func (e *UpstreamError) Detail() string {
	if e.Err == nil {
		return FetchFailedMessage
	}
	return FetchFailedMessage + ": " + e.Err.Error()
}
