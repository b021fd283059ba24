// File: internal/infra/adapters/payment/manual_gateway.go
package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
	"digital-checkout/internal/infra/metrics"
	"digital-checkout/internal/usecase"
)

var _ adapter.PaymentGateway = (*ManualGateway)(nil)

// ManualGateway is the admin-only override path: no provider round trip, the
// entitlement is provisioned directly. Authorization re-reads the settings
// row on every call, so disabling the override takes effect immediately.
type ManualGateway struct {
	settings    repository.SettingsRepository
	provisioner usecase.ProvisioningUseCase
	log         *zerolog.Logger
}

func NewManualGateway(settings repository.SettingsRepository, provisioner usecase.ProvisioningUseCase, logger *zerolog.Logger) *ManualGateway {
	return &ManualGateway{settings: settings, provisioner: provisioner, log: logger}
}

func (g *ManualGateway) Name() string             { return "manual_override" }
func (g *ManualGateway) Kind() model.ProviderKind { return model.ProviderKindManual }

// CreateSession without credentials is always refused. The admin surface goes
// through CreateSessionAs; keeping this fail-closed means a miswired public
// route can never reach the override path.
func (g *ManualGateway) CreateSession(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error) {
	return model.ProviderResult{}, domain.ErrOverrideNotAuthorized
}

// CreateSessionAs validates the override token and admin identity against the
// current settings, then provisions the entitlement with no money movement.
func (g *ManualGateway) CreateSessionAs(ctx context.Context, req model.PaymentRequest, overrideToken, adminEmail string) (model.ProviderResult, error) {
	settings, err := g.settings.FetchOverrideSettings(ctx, nil)
	if err != nil {
		// Fail closed: if the gate can't be read, nobody passes.
		g.log.Error().Err(err).Msg("override settings unavailable")
		return model.ProviderResult{}, domain.ErrOverrideNotAuthorized
	}
	if !settings.Authorizes(overrideToken, adminEmail) {
		metrics.IncGatewaySession(g.Name(), "failed")
		g.log.Warn().Str("admin_email", adminEmail).Msg("manual override refused")
		return model.ProviderResult{}, domain.ErrOverrideNotAuthorized
	}

	out, err := g.provisioner.Provision(ctx, usecase.ProvisionInput{
		Email:   req.Email,
		Name:    req.Name,
		PriceID: req.PriceID,
		Source:  "manual_override",
	})
	if err != nil {
		metrics.IncGatewaySession(g.Name(), "failed")
		return model.ProviderResult{}, err
	}

	metrics.IncGatewaySession(g.Name(), "created")
	g.log.Info().
		Str("admin_email", adminEmail).
		Str("customer_id", out.CustomerID).
		Str("subscription_id", out.SubscriptionID).
		Msg("manual override checkout completed")

	// Manual results are terminal immediately; there is nothing to poll.
	return model.ProviderResult{
		Kind:           model.ProviderKindManual,
		TransactionID:  "manual-" + uuid.NewString(),
		CustomerID:     out.CustomerID,
		SubscriptionID: out.SubscriptionID,
	}, nil
}
