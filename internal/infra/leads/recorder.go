// File: internal/infra/leads/recorder.go
package leads

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/infra/metrics"
	"digital-checkout/internal/infra/worker"
)

// Recorder persists partial checkout data right after the identity step so an
// abandoned purchase can be re-engaged. It is strictly fire-and-forget: the
// task is detached onto the worker pool, failures are logged and swallowed,
// and the checkout flow never waits on the result.
type Recorder struct {
	sink adapter.LeadSink
	pool *worker.Pool
	log  *zerolog.Logger
}

func NewRecorder(sink adapter.LeadSink, pool *worker.Pool, logger *zerolog.Logger) *Recorder {
	return &Recorder{sink: sink, pool: pool, log: logger}
}

// Record schedules lead creation for the session. The call is skipped (not
// attempted with partial data) unless both a product and a price are already
// selected. onLeadID, when non-nil, receives the created id so the caller can
// merge it back into the session.
func (r *Recorder) Record(s *model.CheckoutSession, onLeadID func(leadID string)) {
	if s == nil || s.Product.IsZero() || s.SelectedPrice.IsZero() {
		metrics.IncLead("skipped")
		return
	}

	lead := &model.Lead{
		ID:            ulid.Make().String(),
		Email:         s.Email,
		Name:          s.Name,
		Phone:         s.Phone,
		ProductID:     s.Product.ID,
		PriceID:       s.SelectedPrice.ID,
		AffiliateCode: s.AffiliateCode,
		CreatedAt:     time.Now(),
	}
	if s.PartnerOffer != nil {
		lead.Partner = s.PartnerOffer.Partner
	}

	sessionID := s.ID
	err := r.pool.Submit(func(ctx context.Context) error {
		taskCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		id, err := r.sink.CreateLead(taskCtx, lead)
		if err != nil {
			metrics.IncLead("failed")
			r.log.Warn().Err(err).Str("session_id", sessionID).Msg("lead recording failed; continuing checkout")
			return nil // swallowed: never propagate into the pool's error path as a checkout failure
		}
		metrics.IncLead("recorded")
		if onLeadID != nil {
			onLeadID(id)
		}
		return nil
	})
	if err != nil {
		// Queue saturation is treated like any other lead failure: log and move on.
		metrics.IncLead("failed")
		r.log.Warn().Err(err).Str("session_id", sessionID).Msg("lead task not scheduled")
	}
}
