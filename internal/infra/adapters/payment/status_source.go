// File: internal/infra/adapters/payment/status_source.go
package payment

import (
	"context"
	"fmt"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
)

var _ adapter.StatusSource = (*RoutingStatusSource)(nil)

// RoutingStatusSource resolves which provider a transaction belongs to from
// its persisted row, then delegates the status fetch to that provider's
// source. The poller only ever sees one StatusSource.
type RoutingStatusSource struct {
	txRepo  repository.TransactionRepository
	sources map[string]adapter.StatusSource // keyed by gateway Name()
}

func NewRoutingStatusSource(txRepo repository.TransactionRepository, sources map[string]adapter.StatusSource) *RoutingStatusSource {
	return &RoutingStatusSource{txRepo: txRepo, sources: sources}
}

func (r *RoutingStatusSource) FetchStatus(ctx context.Context, transactionID string) (model.TransactionStatus, error) {
	tx, err := r.txRepo.FindByID(ctx, nil, transactionID)
	if err != nil {
		return "", err
	}
	src, ok := r.sources[tx.Provider]
	if !ok {
		return "", fmt.Errorf("%w: no status source for provider %q", domain.ErrInvalidArgument, tx.Provider)
	}
	return src.FetchStatus(ctx, transactionID)
}
