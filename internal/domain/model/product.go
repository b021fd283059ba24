package model

import (
	"time"

	"digital-checkout/internal/domain"
)

// Product is a sellable digital product from the catalog.
type Product struct {
	ID        string // UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }

// BillingInterval describes how a price recurs.
type BillingInterval string

const (
	IntervalOneTime BillingInterval = "one_time"
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

// Price is one purchasable price point of a product. Amount is stored in
// minor units (cents/centavos) to avoid float errors.
type Price struct {
	ID        string // provider price id, e.g. "price_1N..."
	ProductID string
	Amount    int64
	Currency  string // ISO code, e.g. "BRL", "USD"
	Interval  BillingInterval
	CreatedAt time.Time
}

func (p *Price) IsZero() bool { return p == nil || p.ID == "" }

// NewPrice validates and constructs a price.
func NewPrice(id, productID string, amount int64, currency string, interval BillingInterval) (*Price, error) {
	if id == "" || productID == "" || amount <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if interval == "" {
		interval = IntervalOneTime
	}
	return &Price{
		ID:        id,
		ProductID: productID,
		Amount:    amount,
		Currency:  currency,
		Interval:  interval,
		CreatedAt: time.Now(),
	}, nil
}
