package repository

import (
	"context"

	"digital-checkout/internal/domain/model"
)

// SettingsRepository stores the manual-override gate. Fetch is called on
// every validation so stale authorization is impossible by construction.
type SettingsRepository interface {
	FetchOverrideSettings(ctx context.Context, tx Tx) (model.OverrideSettings, error)
	SaveOverrideSettings(ctx context.Context, tx Tx, s model.OverrideSettings) error
}
