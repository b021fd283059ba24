package repository

import (
	"context"

	"digital-checkout/internal/domain/model"
)

// SessionStore keeps checkout session snapshots so an in-progress purchase
// can be resumed. It is a side channel: store unavailability must never
// block progression through the checkout.
type SessionStore interface {
	Put(ctx context.Context, s *model.CheckoutSession) error
	Get(ctx context.Context, id string) (*model.CheckoutSession, error)
	Delete(ctx context.Context, id string) error
}
