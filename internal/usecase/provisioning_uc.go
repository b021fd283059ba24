// File: internal/usecase/provisioning_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ ProvisioningUseCase = (*provisioningUC)(nil)

type ProvisionInput struct {
	Email   string
	Name    string
	PriceID string
	Source  string // "checkout" | "manual_verification" | "manual_override"
}

type ProvisionOutput struct {
	CustomerID     string
	SubscriptionID string
	// PlainPassword is set only when a new customer identity was created;
	// it is handed to the caller once for credential delivery and never stored.
	PlainPassword string
	NewCustomer   bool
}

// ProvisioningUseCase is the single side-effect boundary where a confirmed
// payment or approved claim becomes a real entitlement: customer identity
// plus subscription, created atomically.
type ProvisioningUseCase interface {
	Provision(ctx context.Context, in ProvisionInput) (ProvisionOutput, error)
}

type provisioningUC struct {
	customers repository.CustomerRepository
	subs      repository.SubscriptionRepository
	catalog   repository.CatalogRepository
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewProvisioningUseCase(
	customers repository.CustomerRepository,
	subs repository.SubscriptionRepository,
	catalog repository.CatalogRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *provisioningUC {
	return &provisioningUC{customers: customers, subs: subs, catalog: catalog, tm: tm, log: logger}
}

func (u *provisioningUC) Provision(ctx context.Context, in ProvisionInput) (ProvisionOutput, error) {
	if in.Email == "" || in.PriceID == "" {
		return ProvisionOutput{}, domain.ErrInvalidArgument
	}

	_, price, err := u.catalog.ResolvePrice(ctx, nil, in.PriceID)
	if err != nil {
		return ProvisionOutput{}, err
	}

	var out ProvisionOutput
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		customer, err := u.customers.FindByEmail(ctx, tx, in.Email)
		switch {
		case err == nil:
			out.CustomerID = customer.ID
		case errors.Is(err, domain.ErrNotFound):
			plain, err := generatePassword()
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			customer, err = model.NewCustomer(uuid.NewString(), in.Email, in.Name, string(hash))
			if err != nil {
				return err
			}
			if err := u.customers.Save(ctx, tx, customer); err != nil {
				return err
			}
			out.CustomerID = customer.ID
			out.PlainPassword = plain
			out.NewCustomer = true
		default:
			return err
		}

		now := time.Now()
		sub := &model.Subscription{
			ID:         uuid.NewString(),
			CustomerID: out.CustomerID,
			PriceID:    in.PriceID,
			Source:     in.Source,
			Status:     model.SubscriptionStatusActive,
			StartAt:    now,
			ExpiresAt:  expiryFor(price.Interval, now),
			CreatedAt:  now,
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		out.SubscriptionID = sub.ID
		return nil
	})
	if err != nil {
		return ProvisionOutput{}, err
	}

	u.log.Info().
		Str("customer_id", out.CustomerID).
		Str("subscription_id", out.SubscriptionID).
		Str("source", in.Source).
		Bool("new_customer", out.NewCustomer).
		Msg("entitlement provisioned")
	return out, nil
}

// expiryFor maps a billing interval to a subscription horizon. One-time
// purchases grant lifetime access (nil expiry).
func expiryFor(interval model.BillingInterval, from time.Time) *time.Time {
	var d time.Duration
	switch interval {
	case model.IntervalMonthly:
		d = 30 * 24 * time.Hour
	case model.IntervalYearly:
		d = 365 * 24 * time.Hour
	default:
		return nil
	}
	ex := from.Add(d)
	return &ex
}
