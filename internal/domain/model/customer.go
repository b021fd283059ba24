package model

import (
	"time"

	"digital-checkout/internal/domain"
)

// Customer is the provisioned buyer identity created when a payment confirms
// or a manual claim is approved.
type Customer struct {
	ID           string // UUID
	Email        string
	Name         string
	PasswordHash string // credential issued at provisioning time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewCustomer(id, email, name, passwordHash string) (*Customer, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Customer{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the entitlement granted by provisioning.
type Subscription struct {
	ID         string // UUID
	CustomerID string
	PriceID    string
	Source     string // "stripe" | "btcpay" | "manual_verification" | "manual_override"
	Status     SubscriptionStatus
	StartAt    time.Time
	ExpiresAt  *time.Time // nil for lifetime access
	CreatedAt  time.Time
}

// Extend pushes the expiry out by the given number of days. Lifetime
// subscriptions (nil expiry) are left untouched.
func (s *Subscription) Extend(days int) error {
	if days <= 0 {
		return domain.ErrInvalidArgument
	}
	if s.ExpiresAt == nil {
		return nil
	}
	ex := s.ExpiresAt.Add(time.Duration(days) * 24 * time.Hour)
	s.ExpiresAt = &ex
	if ex.After(time.Now()) {
		s.Status = SubscriptionStatusActive
	}
	return nil
}
