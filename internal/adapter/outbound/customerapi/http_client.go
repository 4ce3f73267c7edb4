// Package customerapi provides the HTTP adapter for the Young's Inc.
// customer-details service.
package customerapi

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/youngsinc/youngs-mcp/internal/domain/customer"
	"github.com/youngsinc/youngs-mcp/internal/port/outbound"
)

const (
	// DefaultBaseURL is the customer-details endpoint; the customer ID is appended as a path segment.
	DefaultBaseURL = "https://www.youngsinc.com/yis7beta_service/api/config/getCustomerDetails"

	// DefaultTimeout bounds a single lookup including reading the body.
	DefaultTimeout = 30 * time.Second

	// maxResponseBodySize is the maximum response body size from upstream.
	// Prevents OOM from a misbehaving upstream sending unbounded responses.
	maxResponseBodySize = 10 * 1024 * 1024 // 10MB

	instrumentationName = "github.com/youngsinc/youngs-mcp/internal/adapter/outbound/customerapi"
)

// HTTPClient fetches customer records over HTTPS.
// It implements the outbound.CustomerClient interface.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	tracer   trace.Tracer
	duration metric.Float64Histogram
}

// ClientOption is a functional option for configuring HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout for the HTTP client.
// Zero disables the timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// NewHTTPClient creates a client for the given base URL.
// An empty baseURL selects DefaultBaseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tracer: otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(c)
	}

	hist, err := otel.Meter(instrumentationName).Float64Histogram(
		"customer.upstream.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of customer-details lookups against the upstream service"),
	)
	if err != nil {
		otel.Handle(err)
	} else {
		c.duration = hist
	}

	return c
}

// URL returns the request URL for a customer ID.
func (c *HTTPClient) URL(customerID string) string {
	return c.baseURL + "/" + url.PathEscape(customerID)
}

// FetchCustomer performs one GET against the upstream service.
// Non-2xx statuses, transport failures and non-JSON bodies all yield *customer.UpstreamError.
func (c *HTTPClient) FetchCustomer(ctx context.Context, customerID string) (customer.Record, error) {
	ctx, span := c.tracer.Start(ctx, "customer.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("customer.id", customerID)),
	)
	defer span.End()

	start := time.Now()
	rec, status, err := c.fetch(ctx, customerID)
	c.record(ctx, time.Since(start), status, err)

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, customer.FetchFailedMessage)
		return nil, err
	}
	return rec, nil
}

func (c *HTTPClient) fetch(ctx context.Context, customerID string) (customer.Record, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(customerID), nil)
	if err != nil {
		return nil, 0, customer.NewTransportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, customer.NewTransportError(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, resp.StatusCode, customer.NewStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return nil, resp.StatusCode, &customer.UpstreamError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response: %w", err),
		}
	}
	if len(body) > maxResponseBodySize {
		return nil, resp.StatusCode, &customer.UpstreamError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body exceeds %d bytes", maxResponseBodySize),
		}
	}

	rec, err := customer.ParseRecord(body)
	if err != nil {
		return nil, resp.StatusCode, &customer.UpstreamError{StatusCode: resp.StatusCode, Err: err}
	}
	return rec, resp.StatusCode, nil
}

func (c *HTTPClient) record(ctx context.Context, d time.Duration, status int, err error) {
	if c.duration == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("result", result),
		attribute.Int("http.response.status_code", status),
	))
}

// Close releases idle upstream connections.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Compile-time check that HTTPClient implements CustomerClient interface.
var _ outbound.CustomerClient = (*HTTPClient)(nil)
