package adapter

import (
	"context"
	"fmt"

	"digital-checkout/internal/domain/model"
)

// GatewayError carries the provider's message verbatim so the UI can show it
// without interpretation. The checkout step does not advance on one.
type GatewayError struct {
	Provider   string
	StatusCode int // HTTP status from the provider, 0 for transport errors
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// PaymentGateway is the hex port for payment providers. Request construction
// requires a fully-resolved price id and buyer email/name; a missing field is
// a caller-side defect, not a runtime error to recover from.
type PaymentGateway interface {
	Name() string
	Kind() model.ProviderKind

	// CreateSession initiates a payment with the provider. A non-2xx response
	// or transport error surfaces as *GatewayError.
	CreateSession(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error)
}

// StatusSource fetches the current provider-side status of a transaction.
// The poller treats fetch errors as transient and retries on the next tick.
type StatusSource interface {
	FetchStatus(ctx context.Context, transactionID string) (model.TransactionStatus, error)
}
