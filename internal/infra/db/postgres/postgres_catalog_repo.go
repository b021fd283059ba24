// File: internal/infra/db/postgres/postgres_catalog_repo.go
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

type catalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) ResolvePrice(ctx context.Context, tx repository.Tx, priceID string) (*model.Product, *model.Price, error) {
	const q = `
SELECT p.id, p.product_id, p.amount, p.currency, p.interval, p.created_at,
       pr.id, pr.name, pr.active, pr.created_at
  FROM prices p
  JOIN products pr ON pr.id = p.product_id
 WHERE p.id = $1 AND pr.active;`

	row, err := pickRow(ctx, r.pool, tx, q, priceID)
	if err != nil {
		return nil, nil, err
	}

	price := &model.Price{}
	product := &model.Product{}
	if err := row.Scan(&price.ID, &price.ProductID, &price.Amount, &price.Currency, &price.Interval, &price.CreatedAt,
		&product.ID, &product.Name, &product.Active, &product.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, domain.ErrReadDatabaseRow
	}
	return product, price, nil
}

func (r *catalogRepo) ListPrices(ctx context.Context, tx repository.Tx, productID string) ([]*model.Price, error) {
	const q = `SELECT id, product_id, amount, currency, interval, created_at FROM prices WHERE product_id=$1 ORDER BY amount ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, productID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Price
	for rows.Next() {
		p := new(model.Price)
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Amount, &p.Currency, &p.Interval, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
