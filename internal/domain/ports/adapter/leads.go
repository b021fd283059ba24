package adapter

import (
	"context"

	"digital-checkout/internal/domain/model"
)

// LeadSink accepts partial checkout data for later re-engagement. Callers
// treat it as best-effort: failures are logged and swallowed, never
// propagated into the checkout flow.
type LeadSink interface {
	CreateLead(ctx context.Context, lead *model.Lead) (leadID string, err error)
}
