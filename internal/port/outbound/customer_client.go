// Package outbound defines the outbound port interfaces for reaching the
// customer-data service.
package outbound

import (
	"context"

	"github.com/youngsinc/youngs-mcp/internal/domain/customer"
)

// CustomerClient is the outbound port for looking up customer records.
// Adapters implement this over a concrete transport (HTTPS today).
type CustomerClient interface {
	// FetchCustomer retrieves the record for the given customer ID.
	// Every failure is reported as a *customer.UpstreamError.
	FetchCustomer(ctx context.Context, customerID string) (customer.Record, error)
}
