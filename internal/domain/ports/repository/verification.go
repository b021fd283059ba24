package repository

import (
	"context"

	"digital-checkout/internal/domain/model"
)

// -----------------------------
// Manual verification records
// -----------------------------

type VerificationRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.ManualVerificationRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ManualVerificationRecord, error)
	// ListPendingAutoGenerated returns records eligible for bulk approval:
	// still pending AND flagged auto-generated.
	ListPendingAutoGenerated(ctx context.Context, tx Tx, limit int) ([]*model.ManualVerificationRecord, error)
	ListByStatus(ctx context.Context, tx Tx, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error)
}
