// File: internal/usecase/admin_uc.go
package usecase

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

// CredentialResult carries a freshly issued plain-text credential. It is
// returned once and never persisted.
type CredentialResult struct {
	CustomerID    string `json:"customer_id"`
	Email         string `json:"email"`
	PlainPassword string `json:"plain_password"`
}

type AdminUseCase interface {
	// RegenerateCredential issues a new credential for an existing customer,
	// replacing the stored hash.
	RegenerateCredential(ctx context.Context, email string) (CredentialResult, error)
	// ExtendSubscription pushes a subscription's expiry out by days.
	// Lifetime subscriptions are left untouched.
	ExtendSubscription(ctx context.Context, subscriptionID string, days int) (*model.Subscription, error)
	GetOverrideSettings(ctx context.Context) (model.OverrideSettings, error)
	UpdateOverrideSettings(ctx context.Context, s model.OverrideSettings) error
}

type adminUC struct {
	customers repository.CustomerRepository
	subs      repository.SubscriptionRepository
	settings  repository.SettingsRepository
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewAdminUseCase(
	customers repository.CustomerRepository,
	subs repository.SubscriptionRepository,
	settings repository.SettingsRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *adminUC {
	return &adminUC{customers: customers, subs: subs, settings: settings, tm: tm, log: logger}
}

func (u *adminUC) RegenerateCredential(ctx context.Context, email string) (CredentialResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return CredentialResult{}, domain.ErrInvalidArgument
	}

	var result CredentialResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		customer, err := u.customers.FindByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		plain, err := generatePassword()
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := u.customers.UpdatePassword(ctx, tx, customer.ID, string(hash)); err != nil {
			return err
		}
		result = CredentialResult{CustomerID: customer.ID, Email: customer.Email, PlainPassword: plain}
		return nil
	})
	if err != nil {
		return CredentialResult{}, err
	}
	u.log.Info().Str("customer_id", result.CustomerID).Msg("credential regenerated")
	return result, nil
}

func (u *adminUC) ExtendSubscription(ctx context.Context, subscriptionID string, days int) (*model.Subscription, error) {
	if subscriptionID == "" || days <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var extended *model.Subscription
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if err := sub.Extend(days); err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		extended = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("subscription_id", subscriptionID).Int("days", days).Msg("subscription extended")
	return extended, nil
}

func (u *adminUC) GetOverrideSettings(ctx context.Context) (model.OverrideSettings, error) {
	return u.settings.FetchOverrideSettings(ctx, nil)
}

func (u *adminUC) UpdateOverrideSettings(ctx context.Context, s model.OverrideSettings) error {
	if s.Enabled && s.OverrideToken == "" {
		return domain.ErrInvalidArgument
	}
	if err := u.settings.SaveOverrideSettings(ctx, nil, s); err != nil {
		return err
	}
	u.log.Info().Bool("enabled", s.Enabled).Int("allowed_admins", len(s.AllowedAdminEmails)).Msg("override settings updated")
	return nil
}
