//go:build !integration

// File: internal/infra/web/mock_test.go
package web

import (
	"context"
	"time"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
	"digital-checkout/internal/usecase"
)

var _ usecase.CheckoutUseCase = (*mockCheckoutUC)(nil)

type mockCheckoutUC struct {
	StartSessionFunc          func(ctx context.Context, variant model.CheckoutVariant, affiliateCode string) (*model.CheckoutSession, error)
	ResumeSessionFunc         func(ctx context.Context, id string) (*model.CheckoutSession, error)
	GetFunc                   func(id string) (*model.CheckoutSession, error)
	SelectPriceFunc           func(ctx context.Context, sessionID, priceID string) error
	CompleteIdentityFunc      func(ctx context.Context, sessionID, email, name, phone string) error
	SubmitPartnerProofFunc    func(ctx context.Context, sessionID, partner, proofURL string) error
	AcceptManualNoticeFunc    func(ctx context.Context, sessionID string) error
	NextStepFunc              func(ctx context.Context, sessionID string) error
	PrevStepFunc              func(ctx context.Context, sessionID string) error
	ResetFunc                 func(ctx context.Context, sessionID string) error
	AbandonFunc               func(ctx context.Context, sessionID string) error
	InitiatePaymentFunc       func(ctx context.Context, sessionID string, kind model.ProviderKind) (model.ProviderResult, error)
	SubmitForVerificationFunc func(ctx context.Context, sessionID string) (*model.ManualVerificationRecord, error)
}

func (m *mockCheckoutUC) StartSession(ctx context.Context, variant model.CheckoutVariant, affiliateCode string) (*model.CheckoutSession, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, variant, affiliateCode)
	}
	return model.NewCheckoutSession("sess-1", variant), nil
}

func (m *mockCheckoutUC) ResumeSession(ctx context.Context, id string) (*model.CheckoutSession, error) {
	if m.ResumeSessionFunc != nil {
		return m.ResumeSessionFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCheckoutUC) Get(id string) (*model.CheckoutSession, error) {
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	return model.NewCheckoutSession(id, model.VariantStandard), nil
}

func (m *mockCheckoutUC) SelectPrice(ctx context.Context, sessionID, priceID string) error {
	if m.SelectPriceFunc != nil {
		return m.SelectPriceFunc(ctx, sessionID, priceID)
	}
	return nil
}

func (m *mockCheckoutUC) CompleteIdentity(ctx context.Context, sessionID, email, name, phone string) error {
	if m.CompleteIdentityFunc != nil {
		return m.CompleteIdentityFunc(ctx, sessionID, email, name, phone)
	}
	return nil
}

func (m *mockCheckoutUC) SubmitPartnerProof(ctx context.Context, sessionID, partner, proofURL string) error {
	if m.SubmitPartnerProofFunc != nil {
		return m.SubmitPartnerProofFunc(ctx, sessionID, partner, proofURL)
	}
	return nil
}

func (m *mockCheckoutUC) AcceptManualNotice(ctx context.Context, sessionID string) error {
	if m.AcceptManualNoticeFunc != nil {
		return m.AcceptManualNoticeFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockCheckoutUC) NextStep(ctx context.Context, sessionID string) error {
	if m.NextStepFunc != nil {
		return m.NextStepFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockCheckoutUC) PrevStep(ctx context.Context, sessionID string) error {
	if m.PrevStepFunc != nil {
		return m.PrevStepFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockCheckoutUC) Reset(ctx context.Context, sessionID string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockCheckoutUC) Abandon(ctx context.Context, sessionID string) error {
	if m.AbandonFunc != nil {
		return m.AbandonFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockCheckoutUC) InitiatePayment(ctx context.Context, sessionID string, kind model.ProviderKind) (model.ProviderResult, error) {
	if m.InitiatePaymentFunc != nil {
		return m.InitiatePaymentFunc(ctx, sessionID, kind)
	}
	return model.ProviderResult{}, domain.ErrSessionIncomplete
}

func (m *mockCheckoutUC) SubmitForVerification(ctx context.Context, sessionID string) (*model.ManualVerificationRecord, error) {
	if m.SubmitForVerificationFunc != nil {
		return m.SubmitForVerificationFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionIncomplete
}

type mockTxReader struct {
	FindByIDFunc              func(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error)
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, confirmedAt *time.Time) (bool, error)
}

func (m *mockTxReader) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	return nil
}

func (m *mockTxReader) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTxReader) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, confirmedAt *time.Time) (bool, error) {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, status, confirmedAt)
	}
	return true, nil
}

func (m *mockTxReader) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	return nil, nil
}

type mockReconciler struct {
	ReconcileFunc func(ctx context.Context, transactionID string) (*model.Transaction, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, transactionID string) (*model.Transaction, error) {
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx, transactionID)
	}
	return nil, domain.ErrNotFound
}

var _ usecase.ReconcileUseCase = (*mockReconciler)(nil)

type mockLeadSink struct {
	CreateLeadFunc func(ctx context.Context, lead *model.Lead) (string, error)
}

func (m *mockLeadSink) CreateLead(ctx context.Context, lead *model.Lead) (string, error) {
	if m.CreateLeadFunc != nil {
		return m.CreateLeadFunc(ctx, lead)
	}
	return lead.ID, nil
}
