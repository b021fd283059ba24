// File: internal/infra/db/postgres/postgres_lead_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
)

var _ repository.LeadRepository = (*leadRepo)(nil)

type leadRepo struct{ pool *pgxpool.Pool }

func NewLeadRepo(pool *pgxpool.Pool) *leadRepo {
	return &leadRepo{pool: pool}
}

const leadColumns = `id, email, name, phone, product_id, price_id, affiliate_code, partner, utm, consent, created_at`

func (r *leadRepo) Save(ctx context.Context, tx repository.Tx, lead *model.Lead) error {
	utm, err := json.Marshal(lead.UTM)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO leads (id, email, name, phone, product_id, price_id, affiliate_code, partner, utm, consent, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO NOTHING;`

	_, err = execSQL(ctx, r.pool, tx, q, lead.ID, lead.Email, lead.Name, lead.Phone, lead.ProductID, lead.PriceID, lead.AffiliateCode, lead.Partner, utm, lead.Consent, lead.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *leadRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanLead(row)
}

func (r *leadRepo) ListByEmail(ctx context.Context, tx repository.Tx, email string) ([]*model.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE LOWER(email)=LOWER($1) ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, email)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*model.Lead, error) {
	lead := &model.Lead{}
	var utm []byte
	if err := row.Scan(&lead.ID, &lead.Email, &lead.Name, &lead.Phone, &lead.ProductID, &lead.PriceID, &lead.AffiliateCode, &lead.Partner, &utm, &lead.Consent, &lead.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(utm) > 0 {
		if err := json.Unmarshal(utm, &lead.UTM); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return lead, nil
}
