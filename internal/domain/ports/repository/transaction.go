package repository

import (
	"context"
	"time"

	"digital-checkout/internal/domain/model"
)

// -----------------------------
// Transactions
// -----------------------------

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	// UpdateStatusIfPending applies the new status only while the current
	// status is still pending, keeping terminal states sticky. Returns
	// whether a row was updated.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.TransactionStatus, confirmedAt *time.Time) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Transaction, error)
}
