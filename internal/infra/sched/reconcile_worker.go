// File: internal/infra/sched/reconcile_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"digital-checkout/internal/domain/ports/repository"
	"digital-checkout/internal/usecase"
)

// ReconcileWorker periodically scans for stale pending transactions and tries
// to settle them through the reconcile use case. This covers confirmations
// the poll loop missed: ceiling breach, navigate-away, or a process crash
// between payment and confirmation.
type ReconcileWorker struct {
	uc         usecase.ReconcileUseCase
	txs        repository.TransactionRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending transaction must be to retry
	log        *zerolog.Logger
}

func NewReconcileWorker(uc usecase.ReconcileUseCase, txs repository.TransactionRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &ReconcileWorker{uc: uc, txs: txs, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *ReconcileWorker) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.txs.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Warn().Err(err).Msg("reconcile sweep: list pending failed")
		return
	}
	for _, tx := range pending {
		settled, err := w.uc.Reconcile(ctx, tx.ID)
		if err != nil {
			// Failures are isolated; the next sweep retries anything still pending.
			w.log.Warn().Err(err).Str("tx_id", tx.ID).Msg("reconcile sweep: transaction not settled")
			continue
		}
		if settled.Status.Terminal() {
			w.log.Info().Str("tx_id", tx.ID).Str("status", string(settled.Status)).Msg("reconcile sweep: transaction settled")
		}
	}
}
