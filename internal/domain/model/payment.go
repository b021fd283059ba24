package model

import (
	"time"

	"digital-checkout/internal/domain"
)

// PaymentRequest is an immutable snapshot built from a completed session at
// the moment payment is initiated. It is never mutated after construction.
type PaymentRequest struct {
	PriceID       string
	ProductID     string
	Amount        int64
	Currency      string
	Email         string
	Name          string
	Phone         string
	AffiliateCode string
	LeadID        string
	PartnerOffer  *PartnerOffer
}

// NewPaymentRequest snapshots a session. An incomplete session is a
// caller-side defect surfaced as ErrSessionIncomplete.
func NewPaymentRequest(s *CheckoutSession) (PaymentRequest, error) {
	if s == nil || !s.IsComplete() {
		return PaymentRequest{}, domain.ErrSessionIncomplete
	}
	req := PaymentRequest{
		PriceID:       s.SelectedPrice.ID,
		ProductID:     s.Product.ID,
		Amount:        s.SelectedPrice.Amount,
		Currency:      s.SelectedPrice.Currency,
		Email:         s.Email,
		Name:          s.Name,
		Phone:         s.Phone,
		AffiliateCode: s.AffiliateCode,
		LeadID:        s.LeadID,
	}
	if s.PartnerOffer != nil {
		po := *s.PartnerOffer
		req.PartnerOffer = &po
	}
	return req, nil
}

// ProviderKind tags which gateway variant produced a result.
type ProviderKind string

const (
	ProviderKindCard   ProviderKind = "card"
	ProviderKindCrypto ProviderKind = "crypto"
	ProviderKindManual ProviderKind = "manual"
)

// ProviderResult is the tagged outcome of a gateway session creation.
// Card results carry CheckoutURL, crypto results carry InvoiceID+PaymentURL,
// manual results carry the provisioned identifiers and skip polling.
type ProviderResult struct {
	Kind          ProviderKind
	TransactionID string

	CheckoutURL string // card: provider-hosted redirect

	InvoiceID  string // crypto: long-lived invoice reference
	PaymentURL string // crypto: where the buyer pays the invoice

	CustomerID     string // manual: provisioned identity
	SubscriptionID string // manual: provisioned entitlement
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether the status is sticky: once confirmed or failed a
// transaction never reverts.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusConfirmed || s == TransactionStatusFailed
}

// Transaction records an external payment intent keyed by the provider's
// transaction id.
type Transaction struct {
	ID          string // provider transaction / invoice id
	Provider    string // e.g. "stripe", "btcpay"
	PriceID     string
	Email       string
	Amount      int64
	Currency    string
	Status      TransactionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time // set when confirmed
}
