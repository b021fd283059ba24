// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase settles a transaction whose poll loop is gone: ceiling
// breach, navigate-away, or a process restart. It finishes everything the
// loop would have done, including provisioning the entitlement on a
// pending-to-confirmed transition, so a buyer who paid late still gets what
// they paid for.
type ReconcileUseCase interface {
	Reconcile(ctx context.Context, transactionID string) (*model.Transaction, error)
}

type reconcileUC struct {
	txRepo      repository.TransactionRepository
	source      adapter.StatusSource
	provisioner ProvisioningUseCase
	log         *zerolog.Logger
}

func NewReconcileUseCase(
	txRepo repository.TransactionRepository,
	source adapter.StatusSource,
	provisioner ProvisioningUseCase,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{txRepo: txRepo, source: source, provisioner: provisioner, log: logger}
}

func (u *reconcileUC) Reconcile(ctx context.Context, transactionID string) (*model.Transaction, error) {
	tx, err := u.txRepo.FindByID(ctx, nil, transactionID)
	if err != nil {
		return nil, err
	}
	// Terminal rows are settled for good; no provider round-trip.
	if tx.Status.Terminal() {
		return tx, nil
	}

	status, err := u.source.FetchStatus(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if !status.Terminal() {
		return tx, nil
	}

	var confirmedAt *time.Time
	if status == model.TransactionStatusConfirmed {
		now := time.Now()
		confirmedAt = &now
	}
	updated, err := u.txRepo.UpdateStatusIfPending(ctx, nil, transactionID, status, confirmedAt)
	if err != nil {
		return nil, err
	}

	// The sticky update is the provisioning gate: only the writer that won
	// the pending-to-confirmed transition provisions, so a racing poller,
	// refresh, and sweep produce exactly one entitlement.
	if updated && status == model.TransactionStatusConfirmed {
		out, err := u.provisioner.Provision(ctx, ProvisionInput{
			Email:   tx.Email,
			PriceID: tx.PriceID,
			Source:  "checkout",
		})
		if err != nil {
			u.log.Error().Err(err).Str("tx_id", transactionID).Msg("provisioning after late confirmation failed")
			return nil, err
		}
		u.log.Info().
			Str("tx_id", transactionID).
			Str("customer_id", out.CustomerID).
			Str("subscription_id", out.SubscriptionID).
			Msg("late confirmation reconciled and provisioned")
	}

	return u.txRepo.FindByID(ctx, nil, transactionID)
}
