package repository

import (
	"context"

	"digital-checkout/internal/domain/model"
)

// -----------------------------
// Customers & subscriptions
// -----------------------------

type CustomerRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Customer) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Customer, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Customer, error)
	UpdatePassword(ctx context.Context, tx Tx, id, passwordHash string) error
}

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	ListByCustomer(ctx context.Context, tx Tx, customerID string) ([]*model.Subscription, error)
}
