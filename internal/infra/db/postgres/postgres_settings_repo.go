// File: internal/infra/db/postgres/postgres_settings_repo.go
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

var _ repository.SettingsRepository = (*settingsRepo)(nil)

// settingsRepo stores the manual-override gate in a single-row table. Fetch
// always hits the database: the authorization contract forbids caching.
type settingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) FetchOverrideSettings(ctx context.Context, tx repository.Tx) (model.OverrideSettings, error) {
	const q = `SELECT enabled, override_token, allowed_admin_emails FROM override_settings WHERE id=1;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return model.OverrideSettings{}, err
	}

	var s model.OverrideSettings
	if err := row.Scan(&s.Enabled, &s.OverrideToken, &s.AllowedAdminEmails); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absent row means the override was never configured: disabled.
			return model.OverrideSettings{}, nil
		}
		return model.OverrideSettings{}, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *settingsRepo) SaveOverrideSettings(ctx context.Context, tx repository.Tx, s model.OverrideSettings) error {
	const q = `
INSERT INTO override_settings (id, enabled, override_token, allowed_admin_emails, updated_at)
VALUES (1, $1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE SET
  enabled=$1, override_token=$2, allowed_admin_emails=$3, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, s.Enabled, s.OverrideToken, s.AllowedAdminEmails)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
