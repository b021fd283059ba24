// File: internal/infra/db/postgres/postgres_verification_repo.go
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

var _ repository.VerificationRepository = (*verificationRepo)(nil)

type verificationRepo struct{ pool *pgxpool.Pool }

func NewVerificationRepo(pool *pgxpool.Pool) *verificationRepo {
	return &verificationRepo{pool: pool}
}

const verColumns = `id, email, name, phone, partner, proof_url, price_id, status, auto_generated, reviewer_notes, customer_id, subscription_id, created_at, resolved_at`

func (r *verificationRepo) Save(ctx context.Context, tx repository.Tx, rec *model.ManualVerificationRecord) error {
	const q = `
INSERT INTO verification_records (
  id, email, name, phone, partner, proof_url, price_id, status, auto_generated, reviewer_notes, customer_id, subscription_id, created_at, resolved_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  status=$8, reviewer_notes=$10, customer_id=$11, subscription_id=$12, resolved_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.Email, rec.Name, rec.Phone, rec.Partner, rec.ProofURL, rec.PriceID, rec.Status, rec.AutoGenerated, rec.ReviewerNotes, rec.CustomerID, rec.SubscriptionID, rec.CreatedAt, rec.ResolvedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *verificationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ManualVerificationRecord, error) {
	q := `SELECT ` + verColumns + ` FROM verification_records WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		// Bulk approval runs records concurrently; the row lock serializes a
		// double resolution race on the same record.
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanVerification(row)
}

func (r *verificationRepo) ListPendingAutoGenerated(ctx context.Context, tx repository.Tx, limit int) ([]*model.ManualVerificationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + verColumns + ` FROM verification_records WHERE status='pending' AND auto_generated ORDER BY created_at ASC LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	return collectVerifications(rows)
}

func (r *verificationRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + verColumns + ` FROM verification_records WHERE status=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, status, offset, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	return collectVerifications(rows)
}

func scanVerification(row pgx.Row) (*model.ManualVerificationRecord, error) {
	rec := &model.ManualVerificationRecord{}
	err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.Phone, &rec.Partner, &rec.ProofURL, &rec.PriceID, &rec.Status, &rec.AutoGenerated, &rec.ReviewerNotes, &rec.CustomerID, &rec.SubscriptionID, &rec.CreatedAt, &rec.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rec, nil
}

func collectVerifications(rows pgx.Rows) ([]*model.ManualVerificationRecord, error) {
	var out []*model.ManualVerificationRecord
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
