package model

import (
	"time"

	"digital-checkout/internal/domain"
)

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Terminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

// ManualVerificationRecord is a buyer's proof-of-purchase claim awaiting
// admin review. Approval is irreversible and provisions the entitlement;
// rejection stores the reviewer's reasoning and provisions nothing.
type ManualVerificationRecord struct {
	ID       string // ULID
	Email    string
	Name     string
	Phone    string
	Partner  string
	ProofURL string
	PriceID  string

	Status        VerificationStatus
	AutoGenerated bool // created by the checkout flow itself, eligible for bulk approval
	ReviewerNotes string

	// Set on approval, linking the claim to the provisioned entitlement.
	CustomerID     *string
	SubscriptionID *string

	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// NewManualVerificationRecord validates and constructs a pending record.
func NewManualVerificationRecord(id, email, name, partner, proofURL, priceID string, autoGenerated bool) (*ManualVerificationRecord, error) {
	if id == "" || email == "" || partner == "" || proofURL == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ManualVerificationRecord{
		ID:            id,
		Email:         email,
		Name:          name,
		Partner:       partner,
		ProofURL:      proofURL,
		PriceID:       priceID,
		Status:        VerificationStatusPending,
		AutoGenerated: autoGenerated,
		CreatedAt:     time.Now(),
	}, nil
}
