//go:build !integration

// File: internal/usecase/provisioning_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
)

func newProvisioningFixture() (*provisioningUC, *mockCustomerRepo, *mockSubscriptionRepo) {
	customers := newMockCustomerRepo()
	subs := newMockSubscriptionRepo()
	uc := NewProvisioningUseCase(customers, subs, testCatalog(), &mockTxManager{}, newTestLogger())
	return uc, customers, subs
}

func TestProvisioningUC_Provision(t *testing.T) {
	ctx := context.Background()

	t.Run("new customer gets identity plus subscription", func(t *testing.T) {
		uc, customers, subs := newProvisioningFixture()

		out, err := uc.Provision(ctx, ProvisionInput{Email: "new@example.com", Name: "New Buyer", PriceID: "price-1", Source: "checkout"})
		if err != nil {
			t.Fatalf("Provision: %v", err)
		}
		if !out.NewCustomer || out.PlainPassword == "" {
			t.Error("new identity must come with a one-time credential")
		}
		c, err := customers.FindByEmail(ctx, nil, "new@example.com")
		if err != nil {
			t.Fatalf("customer not persisted: %v", err)
		}
		if c.PasswordHash == out.PlainPassword {
			t.Error("plain credential must never be stored")
		}
		sub, err := subs.FindByID(ctx, nil, out.SubscriptionID)
		if err != nil {
			t.Fatalf("subscription not persisted: %v", err)
		}
		if sub.CustomerID != c.ID || sub.Status != model.SubscriptionStatusActive {
			t.Errorf("subscription wiring wrong: %+v", sub)
		}
		// price-1 is monthly, so the entitlement has a horizon.
		if sub.ExpiresAt == nil {
			t.Error("monthly price must produce an expiring subscription")
		}
	})

	t.Run("existing customer is reused without a new credential", func(t *testing.T) {
		uc, customers, _ := newProvisioningFixture()
		c, _ := model.NewCustomer("cust-1", "old@example.com", "Old Buyer", "hash")
		_ = customers.Save(ctx, nil, c)

		out, err := uc.Provision(ctx, ProvisionInput{Email: "old@example.com", PriceID: "price-1", Source: "manual_verification"})
		if err != nil {
			t.Fatalf("Provision: %v", err)
		}
		if out.NewCustomer || out.PlainPassword != "" {
			t.Error("existing identity must not be reissued")
		}
		if out.CustomerID != "cust-1" {
			t.Errorf("customer id = %s, want cust-1", out.CustomerID)
		}
	})

	t.Run("unknown price", func(t *testing.T) {
		uc, _, _ := newProvisioningFixture()
		_, err := uc.Provision(ctx, ProvisionInput{Email: "a@example.com", PriceID: "price-missing", Source: "checkout"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		uc, _, _ := newProvisioningFixture()
		_, err := uc.Provision(ctx, ProvisionInput{PriceID: "price-1"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
