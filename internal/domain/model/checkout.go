package model

import (
	"time"

	"digital-checkout/internal/domain"
)

// CheckoutVariant selects which ordered steps a session walks through.
type CheckoutVariant string

const (
	VariantStandard     CheckoutVariant = "standard"
	VariantPartnerOffer CheckoutVariant = "partner_offer"
)

// Step is an ordered position inside a checkout flow.
type Step int

const (
	StepProduct Step = iota
	StepIdentity
	StepPartnerVerification // partner-offer variant only
	StepManualNotice        // partner-offer variant only
	StepPayment
)

// Steps returns the ordered step sequence for the variant.
func (v CheckoutVariant) Steps() []Step {
	if v == VariantPartnerOffer {
		return []Step{StepProduct, StepIdentity, StepPartnerVerification, StepManualNotice, StepPayment}
	}
	return []Step{StepProduct, StepIdentity, StepPayment}
}

// PartnerOffer is the partner-verification payload attached to a session.
type PartnerOffer struct {
	Partner  string `json:"partner"`
	ProofURL string `json:"proof_url"`
}

// CheckoutSession is the mutable in-progress record of one buyer's purchase
// attempt. It is owned by exactly one checkout instance and mutated only
// through the setters below.
type CheckoutSession struct {
	ID      string          `json:"id"` // UUID
	Variant CheckoutVariant `json:"variant"`
	StepIdx int             `json:"step_idx"` // index into Variant.Steps()

	Product       *Product `json:"product,omitempty"`
	SelectedPrice *Price   `json:"selected_price,omitempty"`

	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`

	AffiliateCode string        `json:"affiliate_code,omitempty"`
	LeadID        string        `json:"lead_id,omitempty"`
	PartnerOffer  *PartnerOffer `json:"partner_offer,omitempty"`

	AgreedToManualVerification bool `json:"agreed_to_manual_verification"`

	TransactionID string    `json:"transaction_id,omitempty"` // set once payment is initiated
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewCheckoutSession creates an empty session positioned at the first step.
func NewCheckoutSession(id string, variant CheckoutVariant) *CheckoutSession {
	if variant == "" {
		variant = VariantStandard
	}
	now := time.Now()
	return &CheckoutSession{
		ID:        id,
		Variant:   variant,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentStep resolves the session's position to a Step.
func (s *CheckoutSession) CurrentStep() Step {
	steps := s.Variant.Steps()
	if s.StepIdx < 0 {
		return steps[0]
	}
	if s.StepIdx >= len(steps) {
		return steps[len(steps)-1]
	}
	return steps[s.StepIdx]
}

// NextStep advances unconditionally; per-step validation lives in the submit
// path, not in the machine.
func (s *CheckoutSession) NextStep() {
	if s.StepIdx < len(s.Variant.Steps())-1 {
		s.StepIdx++
	}
	s.touch()
}

// PrevStep moves back one step, floored at the first step.
func (s *CheckoutSession) PrevStep() {
	if s.StepIdx > 0 {
		s.StepIdx--
	}
	s.touch()
}

// Reset returns the session to step 0 and variant defaults. The affiliate
// code survives a reset: attribution is first-touch for the whole visit.
func (s *CheckoutSession) Reset() {
	affiliate := s.AffiliateCode
	now := time.Now()
	*s = CheckoutSession{
		ID:            s.ID,
		Variant:       s.Variant,
		AffiliateCode: affiliate,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     now,
	}
}

// SelectPrice commits product and price atomically. A price belonging to a
// different product is a contract violation surfaced as ErrPriceMismatch.
func (s *CheckoutSession) SelectPrice(product *Product, price *Price) error {
	if product.IsZero() || price.IsZero() {
		return domain.ErrInvalidArgument
	}
	if price.ProductID != product.ID {
		return domain.ErrPriceMismatch
	}
	s.Product = product
	s.SelectedPrice = price
	s.touch()
	return nil
}

// SetIdentity records the buyer's contact fields.
func (s *CheckoutSession) SetIdentity(email, name, phone string) error {
	if email == "" || name == "" {
		return domain.ErrInvalidArgument
	}
	s.Email = email
	s.Name = name
	s.Phone = phone
	s.touch()
	return nil
}

// SetAffiliateCode applies first-touch attribution: once a non-empty code is
// set it is never overwritten, and empty writes are ignored.
func (s *CheckoutSession) SetAffiliateCode(code string) {
	if s.AffiliateCode != "" || code == "" {
		return
	}
	s.AffiliateCode = code
	s.touch()
}

// SetLeadID merges the asynchronously created lead back into the session.
func (s *CheckoutSession) SetLeadID(id string) {
	if id == "" {
		return
	}
	s.LeadID = id
	s.touch()
}

// SetPartnerOffer attaches the partner-verification payload.
func (s *CheckoutSession) SetPartnerOffer(partner, proofURL string) error {
	if partner == "" || proofURL == "" {
		return domain.ErrInvalidArgument
	}
	s.PartnerOffer = &PartnerOffer{Partner: partner, ProofURL: proofURL}
	s.touch()
	return nil
}

// AgreeToManualVerification must be called before the partner variant's
// final step can initiate payment.
func (s *CheckoutSession) AgreeToManualVerification() {
	s.AgreedToManualVerification = true
	s.touch()
}

// IsComplete reports whether every field required by the active variant is
// set. It holds immediately once the last required field lands, regardless
// of the order the setters ran in.
func (s *CheckoutSession) IsComplete() bool {
	if s.Product.IsZero() || s.SelectedPrice.IsZero() || s.Email == "" || s.Name == "" {
		return false
	}
	if s.Variant == VariantPartnerOffer {
		if s.PartnerOffer == nil || s.PartnerOffer.Partner == "" || s.PartnerOffer.ProofURL == "" {
			return false
		}
		if !s.AgreedToManualVerification {
			return false
		}
	}
	return true
}

// Clone returns a detached copy safe to read, serialize, or snapshot outside
// the owning checkout's lock. Pointer fields are copied so later mutation of
// the live session cannot reach through.
func (s *CheckoutSession) Clone() *CheckoutSession {
	cp := *s
	if s.Product != nil {
		p := *s.Product
		cp.Product = &p
	}
	if s.SelectedPrice != nil {
		p := *s.SelectedPrice
		cp.SelectedPrice = &p
	}
	if s.PartnerOffer != nil {
		p := *s.PartnerOffer
		cp.PartnerOffer = &p
	}
	return &cp
}

func (s *CheckoutSession) touch() { s.UpdatedAt = time.Now() }
