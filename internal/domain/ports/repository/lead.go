package repository

import (
	"context"

	"digital-checkout/internal/domain/model"
)

type LeadRepository interface {
	Save(ctx context.Context, tx Tx, lead *model.Lead) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Lead, error)
	ListByEmail(ctx context.Context, tx Tx, email string) ([]*model.Lead, error)
}
