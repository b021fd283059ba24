// File: internal/infra/sched/status_poller.go
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
	"digital-checkout/internal/infra/metrics"
)

// StatusPoller reconciles a transaction against its provider by polling at a
// fixed interval until the status turns terminal or the absolute ceiling is
// breached. Ceiling breach is a degraded-but-safe outcome: the loop stops
// quietly and the last-known status (possibly still pending) is retained.
//
// At most one loop runs at a time; starting a loop for a new transaction id
// stops the previous one first, so no interleaved ticks for the old id can
// occur. Polls are strictly serialized: each tick waits for the prior fetch
// to return before the next one can fire.
type StatusPoller struct {
	source   adapter.StatusSource
	txRepo   repository.TransactionRepository
	interval time.Duration
	ceiling  time.Duration
	log      *zerolog.Logger

	mu       sync.Mutex
	activeID string
	cancel   context.CancelFunc
	done     chan struct{}
}

// OnStatus receives every observed status, terminal or not. It runs on the
// poller goroutine; keep it short.
type OnStatus func(id string, status model.TransactionStatus)

func NewStatusPoller(source adapter.StatusSource, txRepo repository.TransactionRepository, interval, ceiling time.Duration, logger *zerolog.Logger) *StatusPoller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 30 * time.Minute
	}
	return &StatusPoller{
		source:   source,
		txRepo:   txRepo,
		interval: interval,
		ceiling:  ceiling,
		log:      logger,
	}
}

// Start begins polling for the given transaction id, replacing any active
// loop. The elapsed-time origin resets for each new id.
func (p *StatusPoller) Start(ctx context.Context, transactionID string, onStatus func(id string, status model.TransactionStatus)) {
	p.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.activeID = transactionID
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	metrics.IncActivePollLoops()
	go p.loop(loopCtx, transactionID, onStatus, done)
}

// Stop cancels the active loop, if any, and waits for it to finish. It is
// idempotent and reachable from every exit path: reset, navigate-away, and
// replacement by a new transaction id.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done, p.activeID = nil, nil, ""
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ActiveID returns the transaction id currently being polled, or "".
func (p *StatusPoller) ActiveID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeID
}

func (p *StatusPoller) loop(ctx context.Context, id string, onStatus OnStatus, done chan struct{}) {
	defer close(done)
	defer metrics.DecActivePollLoops()

	start := time.Now()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	l := p.log.With().Str("tx_id", id).Logger()
	l.Debug().Dur("interval", p.interval).Dur("ceiling", p.ceiling).Msg("status polling started")

	// First poll fires immediately; subsequent ones ride the ticker.
	if stop := p.tick(ctx, id, onStatus, &l); stop {
		return
	}

	for {
		select {
		case <-ctx.Done():
			metrics.IncPollOutcome("cancelled")
			l.Debug().Msg("status polling cancelled")
			return
		case <-ticker.C:
			if time.Since(start) >= p.ceiling {
				metrics.IncPollOutcome("ceiling")
				l.Warn().Dur("elapsed", time.Since(start)).Msg("status polling ceiling reached; keeping last-known status")
				return
			}
			if stop := p.tick(ctx, id, onStatus, &l); stop {
				return
			}
		}
	}
}

// tick performs one synchronous poll. It returns true when the loop should
// stop (terminal status observed). Fetch failures are transient: recorded and
// retried on the next tick.
func (p *StatusPoller) tick(ctx context.Context, id string, onStatus OnStatus, l *zerolog.Logger) bool {
	metrics.IncPollTick()

	status, err := p.source.FetchStatus(ctx, id)
	if err != nil {
		metrics.IncPollError()
		l.Warn().Err(err).Msg("status poll failed; retrying next tick")
		return false
	}

	if !status.Terminal() {
		if onStatus != nil {
			onStatus(id, status)
		}
		return false
	}

	// Persist stickily: a terminal row is never overwritten. The sticky write
	// also gates the terminal callback, so when another settler (refresh or
	// the reconcile sweep) won the transition, this loop does not re-trigger
	// its side effects. A failed write leaves the row pending for the sweep.
	var confirmedAt *time.Time
	if status == model.TransactionStatusConfirmed {
		now := time.Now()
		confirmedAt = &now
	}
	updated, err := p.txRepo.UpdateStatusIfPending(ctx, nil, id, status, confirmedAt)
	if err != nil {
		l.Error().Err(err).Str("status", string(status)).Msg("failed to persist terminal status")
	}
	if updated {
		if onStatus != nil {
			onStatus(id, status)
		}
		if status == model.TransactionStatusConfirmed {
			if tx, err := p.txRepo.FindByID(ctx, nil, id); err == nil {
				metrics.AddCheckoutRevenue(tx.Currency, tx.Amount)
			}
		}
	}

	metrics.IncPollOutcome(string(status))
	l.Info().Str("status", string(status)).Msg("status polling finished")
	return true
}
