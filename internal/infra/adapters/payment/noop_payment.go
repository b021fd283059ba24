// File: internal/infra/adapters/payment/noop_payment.go
package payment

import (
	"context"
	"fmt"
	"sync"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)
var _ adapter.StatusSource = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for dev mode and tests.
// Sessions confirm after a configurable number of status polls.
type NoopPaymentGateway struct {
	mu            sync.Mutex
	seq           int64
	pollsToSettle int
	polls         map[string]int
}

func NewNoopPaymentGateway(pollsToSettle int) *NoopPaymentGateway {
	if pollsToSettle < 1 {
		pollsToSettle = 1
	}
	return &NoopPaymentGateway{
		pollsToSettle: pollsToSettle,
		polls:         make(map[string]int),
	}
}

func (g *NoopPaymentGateway) Name() string             { return "noop" }
func (g *NoopPaymentGateway) Kind() model.ProviderKind { return model.ProviderKindCard }

func (g *NoopPaymentGateway) CreateSession(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.polls[id] = 0
	return model.ProviderResult{
		Kind:          model.ProviderKindCard,
		TransactionID: id,
		CheckoutURL:   "https://example.test/pay/" + id,
	}, nil
}

func (g *NoopPaymentGateway) FetchStatus(ctx context.Context, transactionID string) (model.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.polls[transactionID]
	if !ok {
		return "", domain.ErrNotFound
	}
	n++
	g.polls[transactionID] = n
	if n >= g.pollsToSettle {
		return model.TransactionStatusConfirmed, nil
	}
	return model.TransactionStatusPending, nil
}
