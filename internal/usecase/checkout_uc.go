// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// LeadRecorder is the minimal surface the checkout needs from the
// abandonment side channel. Record must never block or fail the caller.
type LeadRecorder interface {
	Record(s *model.CheckoutSession, onLeadID func(leadID string))
}

// StatusPoller is the minimal surface the checkout needs from the
// transaction reconciler.
type StatusPoller interface {
	Start(ctx context.Context, transactionID string, onStatus func(id string, status model.TransactionStatus))
	Stop()
}

type CheckoutUseCase interface {
	// StartSession creates an empty session for the variant. A non-empty
	// affiliate code is applied first-touch.
	StartSession(ctx context.Context, variant model.CheckoutVariant, affiliateCode string) (*model.CheckoutSession, error)
	// ResumeSession rehydrates a snapshot from the session store.
	ResumeSession(ctx context.Context, id string) (*model.CheckoutSession, error)
	Get(id string) (*model.CheckoutSession, error)

	SelectPrice(ctx context.Context, sessionID, priceID string) error
	// CompleteIdentity records buyer contact fields and fires the abandonment
	// recorder (skipped when product/price are not selected yet).
	CompleteIdentity(ctx context.Context, sessionID, email, name, phone string) error
	SubmitPartnerProof(ctx context.Context, sessionID, partner, proofURL string) error
	AcceptManualNotice(ctx context.Context, sessionID string) error

	NextStep(ctx context.Context, sessionID string) error
	PrevStep(ctx context.Context, sessionID string) error
	// Reset returns the session to step 0 and stops any active poll loop.
	Reset(ctx context.Context, sessionID string) error
	// Abandon tears the session down entirely (navigate-away path).
	Abandon(ctx context.Context, sessionID string) error

	// InitiatePayment dispatches a complete session to the card or crypto
	// gateway, persists the pending transaction, and starts the reconciler.
	InitiatePayment(ctx context.Context, sessionID string, kind model.ProviderKind) (model.ProviderResult, error)
	// SubmitForVerification is the partner-offer terminal action: instead of
	// paying, the session becomes a pending manual verification claim.
	SubmitForVerification(ctx context.Context, sessionID string) (*model.ManualVerificationRecord, error)
}

type checkoutUC struct {
	catalog     repository.CatalogRepository
	txRepo      repository.TransactionRepository
	verRepo     repository.VerificationRepository
	store       repository.SessionStore
	gateways    map[model.ProviderKind]adapter.PaymentGateway
	recorder    LeadRecorder
	poller      StatusPoller
	provisioner ProvisioningUseCase
	log         *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*model.CheckoutSession
}

func NewCheckoutUseCase(
	catalog repository.CatalogRepository,
	txRepo repository.TransactionRepository,
	verRepo repository.VerificationRepository,
	store repository.SessionStore,
	gateways map[model.ProviderKind]adapter.PaymentGateway,
	recorder LeadRecorder,
	poller StatusPoller,
	provisioner ProvisioningUseCase,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		catalog:     catalog,
		txRepo:      txRepo,
		verRepo:     verRepo,
		store:       store,
		gateways:    gateways,
		recorder:    recorder,
		poller:      poller,
		provisioner: provisioner,
		log:         logger,
		sessions:    make(map[string]*model.CheckoutSession),
	}
}

func (u *checkoutUC) StartSession(ctx context.Context, variant model.CheckoutVariant, affiliateCode string) (*model.CheckoutSession, error) {
	s := model.NewCheckoutSession(uuid.NewString(), variant)
	s.SetAffiliateCode(affiliateCode)

	u.mu.Lock()
	u.sessions[s.ID] = s
	cp := s.Clone()
	u.mu.Unlock()

	u.snapshot(ctx, s)
	return cp, nil
}

func (u *checkoutUC) ResumeSession(ctx context.Context, id string) (*model.CheckoutSession, error) {
	u.mu.Lock()
	if s, ok := u.sessions[id]; ok {
		cp := s.Clone()
		u.mu.Unlock()
		return cp, nil
	}
	u.mu.Unlock()

	s, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.sessions[id] = s
	cp := s.Clone()
	u.mu.Unlock()
	return cp, nil
}

// Get returns a detached copy: callers serialize views concurrently with
// request goroutines mutating the live session under u.mu.
func (u *checkoutUC) Get(id string) (*model.CheckoutSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

// live returns the owned mutable session; every mutation of it must hold u.mu.
func (u *checkoutUC) live(id string) (*model.CheckoutSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (u *checkoutUC) SelectPrice(ctx context.Context, sessionID, priceID string) error {
	s, err := u.live(sessionID)
	if err != nil {
		return err
	}
	product, price, err := u.catalog.ResolvePrice(ctx, nil, priceID)
	if err != nil {
		return err
	}

	u.mu.Lock()
	err = s.SelectPrice(product, price)
	u.mu.Unlock()
	if err != nil {
		return err
	}
	u.snapshot(ctx, s)
	return nil
}

func (u *checkoutUC) CompleteIdentity(ctx context.Context, sessionID, email, name, phone string) error {
	s, err := u.live(sessionID)
	if err != nil {
		return err
	}

	u.mu.Lock()
	err = s.SetIdentity(email, name, phone)
	rec := s.Clone()
	u.mu.Unlock()
	if err != nil {
		return err
	}

	// Best-effort side channel: the recorder serializes on its own goroutine,
	// so it gets a detached copy. The lead id lands asynchronously, and its
	// absence never blocks progression.
	u.recorder.Record(rec, func(leadID string) {
		u.mu.Lock()
		s.SetLeadID(leadID)
		u.mu.Unlock()
		u.snapshot(context.Background(), s)
	})

	u.snapshot(ctx, s)
	return nil
}

func (u *checkoutUC) SubmitPartnerProof(ctx context.Context, sessionID, partner, proofURL string) error {
	s, err := u.live(sessionID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	err = s.SetPartnerOffer(partner, proofURL)
	u.mu.Unlock()
	if err != nil {
		return err
	}
	u.snapshot(ctx, s)
	return nil
}

func (u *checkoutUC) AcceptManualNotice(ctx context.Context, sessionID string) error {
	s, err := u.live(sessionID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	s.AgreeToManualVerification()
	u.mu.Unlock()
	u.snapshot(ctx, s)
	return nil
}

func (u *checkoutUC) NextStep(ctx context.Context, sessionID string) error {
	return u.step(ctx, sessionID, func(s *model.CheckoutSession) { s.NextStep() })
}

func (u *checkoutUC) PrevStep(ctx context.Context, sessionID string) error {
	return u.step(ctx, sessionID, func(s *model.CheckoutSession) { s.PrevStep() })
}

func (u *checkoutUC) step(ctx context.Context, sessionID string, fn func(*model.CheckoutSession)) error {
	s, err := u.live(sessionID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	fn(s)
	u.mu.Unlock()
	u.snapshot(ctx, s)
	return nil
}

func (u *checkoutUC) Reset(ctx context.Context, sessionID string) error {
	s, err := u.live(sessionID)
	if err != nil {
		return err
	}
	// Stop polling before mutating: no further session mutation from the
	// reconciler may land after reset.
	u.poller.Stop()

	u.mu.Lock()
	s.Reset()
	u.mu.Unlock()
	u.snapshot(ctx, s)
	return nil
}

func (u *checkoutUC) Abandon(ctx context.Context, sessionID string) error {
	u.poller.Stop()

	u.mu.Lock()
	delete(u.sessions, sessionID)
	u.mu.Unlock()

	if err := u.store.Delete(ctx, sessionID); err != nil {
		u.log.Warn().Err(err).Str("session_id", sessionID).Msg("session snapshot delete failed")
	}
	return nil
}

func (u *checkoutUC) InitiatePayment(ctx context.Context, sessionID string, kind model.ProviderKind) (model.ProviderResult, error) {
	s, err := u.live(sessionID)
	if err != nil {
		return model.ProviderResult{}, err
	}

	u.mu.Lock()
	req, err := model.NewPaymentRequest(s)
	u.mu.Unlock()
	if err != nil {
		// Caller-side defect: the payment step is only renderable once the
		// session is complete.
		return model.ProviderResult{}, err
	}

	gw, ok := u.gateways[kind]
	if !ok {
		return model.ProviderResult{}, fmt.Errorf("%w: no gateway for kind %q", domain.ErrInvalidArgument, kind)
	}

	res, err := gw.CreateSession(ctx, req)
	if err != nil {
		// Surfaced verbatim to the caller; the UI step does not advance.
		return model.ProviderResult{}, err
	}

	now := time.Now()
	tx := &model.Transaction{
		ID:        res.TransactionID,
		Provider:  gw.Name(),
		PriceID:   req.PriceID,
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    model.TransactionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.txRepo.Save(ctx, nil, tx); err != nil {
		return model.ProviderResult{}, err
	}

	u.mu.Lock()
	s.TransactionID = res.TransactionID
	u.mu.Unlock()
	u.snapshot(ctx, s)

	u.poller.Start(ctx, res.TransactionID, u.onStatus(req))
	return res, nil
}

// onStatus builds the reconciler callback: confirmed transactions provision
// the entitlement, the same side effect the manual workflow uses.
func (u *checkoutUC) onStatus(req model.PaymentRequest) func(id string, status model.TransactionStatus) {
	return func(id string, status model.TransactionStatus) {
		if status != model.TransactionStatusConfirmed {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		out, err := u.provisioner.Provision(ctx, ProvisionInput{
			Email:   req.Email,
			Name:    req.Name,
			PriceID: req.PriceID,
			Source:  "checkout",
		})
		if err != nil {
			u.log.Error().Err(err).Str("tx_id", id).Msg("provisioning after confirmation failed")
			return
		}
		u.log.Info().
			Str("tx_id", id).
			Str("customer_id", out.CustomerID).
			Str("subscription_id", out.SubscriptionID).
			Msg("transaction confirmed and provisioned")
	}
}

func (u *checkoutUC) SubmitForVerification(ctx context.Context, sessionID string) (*model.ManualVerificationRecord, error) {
	s, err := u.live(sessionID)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	complete := s.IsComplete() && s.Variant == model.VariantPartnerOffer
	var rec *model.ManualVerificationRecord
	if complete {
		rec, err = model.NewManualVerificationRecord(
			ulid.Make().String(),
			s.Email, s.Name,
			s.PartnerOffer.Partner, s.PartnerOffer.ProofURL,
			s.SelectedPrice.ID,
			true, // created by the flow itself, eligible for bulk approval
		)
		if rec != nil {
			rec.Phone = s.Phone
		}
	}
	u.mu.Unlock()

	if !complete {
		return nil, domain.ErrSessionIncomplete
	}
	if err != nil {
		return nil, err
	}
	if err := u.verRepo.Save(ctx, nil, rec); err != nil {
		return nil, err
	}
	u.log.Info().Str("record_id", rec.ID).Str("partner", rec.Partner).Msg("manual verification claim submitted")
	return rec, nil
}

// snapshot persists a copy of the session to the store; the copy is taken
// under u.mu so the store never sees a half-applied mutation. Unavailability
// is logged and swallowed so the checkout never blocks on it.
func (u *checkoutUC) snapshot(ctx context.Context, s *model.CheckoutSession) {
	u.mu.Lock()
	cp := s.Clone()
	u.mu.Unlock()
	if err := u.store.Put(ctx, cp); err != nil {
		u.log.Warn().Err(err).Str("session_id", cp.ID).Msg("session snapshot failed")
	}
}
