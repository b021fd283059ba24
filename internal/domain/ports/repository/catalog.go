package repository

import (
	"context"

	"digital-checkout/internal/domain/model"
)

// CatalogRepository resolves a price id to the price and its owning product.
// The catalog itself is managed elsewhere; checkout only reads it.
type CatalogRepository interface {
	ResolvePrice(ctx context.Context, tx Tx, priceID string) (*model.Product, *model.Price, error)
	ListPrices(ctx context.Context, tx Tx, productID string) ([]*model.Price, error)
}
