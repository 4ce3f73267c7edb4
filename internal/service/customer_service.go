package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/youngsinc/youngs-mcp/internal/ctxkey"
	"github.com/youngsinc/youngs-mcp/internal/domain/customer"
	"github.com/youngsinc/youngs-mcp/internal/port/outbound"
)

const instrumentationName = "github.com/youngsinc/youngs-mcp/internal/service"

// CustomerService looks up the configured customer and renders the record
// as indented JSON text.
type CustomerService struct {
	client     outbound.CustomerClient
	customerID string
	logger     *slog.Logger

	tracer trace.Tracer
	calls  metric.Int64Counter
}

// NewCustomerService creates a CustomerService for one fixed customer ID.
// An empty customerID selects customer.DefaultCustomerID.
func NewCustomerService(client outbound.CustomerClient, customerID string, logger *slog.Logger) *CustomerService {
	if customerID == "" {
		customerID = customer.DefaultCustomerID
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &CustomerService{
		client:     client,
		customerID: customerID,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"customer.lookups",
		metric.WithDescription("Customer lookups by result"),
	)
	if err != nil {
		otel.Handle(err)
	} else {
		s.calls = counter
	}
	return s
}

// CustomerID returns the customer this service looks up.
func (s *CustomerService) CustomerID() string {
	return s.customerID
}

// Lookup fetches the customer record and returns it indented with two spaces.
// Failures are returned as *customer.UpstreamError.
func (s *CustomerService) Lookup(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "customer.lookup",
		trace.WithAttributes(attribute.String("customer.id", s.customerID)),
	)
	defer span.End()

	logger := s.loggerFrom(ctx)

	text, err := s.lookup(ctx)
	s.count(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, customer.FetchFailedMessage)
		var ue *customer.UpstreamError
		if errors.As(err, &ue) {
			logger.Warn("customer lookup failed",
				"customer_id", s.customerID,
				"status", ue.StatusCode,
				"error", ue.Detail(),
			)
		} else {
			logger.Warn("customer lookup failed", "customer_id", s.customerID, "error", err)
		}
		return "", err
	}

	logger.Debug("customer lookup succeeded", "customer_id", s.customerID, "bytes", len(text))
	return text, nil
}

func (s *CustomerService) lookup(ctx context.Context) (string, error) {
	rec, err := s.client.FetchCustomer(ctx, s.customerID)
	if err != nil {
		var ue *customer.UpstreamError
		if errors.As(err, &ue) {
			return "", ue
		}
		// Adapters must classify their failures; anything else is still a failed fetch.
		return "", customer.NewTransportError(err)
	}

	text, err := rec.Indent()
	if err != nil {
		return "", customer.NewTransportError(fmt.Errorf("failed to indent record: %w", err))
	}
	return text, nil
}

func (s *CustomerService) count(ctx context.Context, err error) {
	if s.calls == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (s *CustomerService) loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return s.logger
}
