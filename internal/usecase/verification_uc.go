// File: internal/usecase/verification_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

// Locker serializes bulk approval runs. Satisfied by the redis locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// BulkFailure identifies one record that could not be approved during a
// bulk run.
type BulkFailure struct {
	RecordID string `json:"record_id"`
	Email    string `json:"email"`
	Error    string `json:"error"`
}

// BulkResult aggregates a bulk approval run. Individual failures are
// isolated: one record's failure never aborts the batch.
type BulkResult struct {
	SuccessCount int           `json:"success_count"`
	FailCount    int           `json:"fail_count"`
	Failures     []BulkFailure `json:"failures,omitempty"`
}

// ApproveOutcome reports what approval provisioned.
type ApproveOutcome struct {
	RecordID       string `json:"record_id"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
	// PlainPassword is present only when a new customer identity was issued.
	PlainPassword string `json:"plain_password,omitempty"`
}

type VerificationUseCase interface {
	// Approve resolves a pending record and provisions the entitlement.
	// Approval is irreversible.
	Approve(ctx context.Context, recordID, notes string) (ApproveOutcome, error)
	// Reject resolves a pending record with reviewer notes; nothing is
	// provisioned. Rejecting an already-resolved record reports its terminal
	// state instead of silently succeeding.
	Reject(ctx context.Context, recordID, notes string) error
	// BulkApprove approves every record that is both pending and flagged
	// auto-generated, isolating per-record failures.
	BulkApprove(ctx context.Context) (BulkResult, error)
	Get(ctx context.Context, recordID string) (*model.ManualVerificationRecord, error)
	ListByStatus(ctx context.Context, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error)
}

type verificationUC struct {
	records     repository.VerificationRepository
	provisioner ProvisioningUseCase
	tm          repository.TransactionManager
	locker      Locker
	log         *zerolog.Logger
}

const bulkApproveLockKey = "lock:verification:bulk_approve"

func NewVerificationUseCase(
	records repository.VerificationRepository,
	provisioner ProvisioningUseCase,
	tm repository.TransactionManager,
	locker Locker,
	logger *zerolog.Logger,
) *verificationUC {
	return &verificationUC{records: records, provisioner: provisioner, tm: tm, locker: locker, log: logger}
}

func (u *verificationUC) Get(ctx context.Context, recordID string) (*model.ManualVerificationRecord, error) {
	return u.records.FindByID(ctx, nil, recordID)
}

func (u *verificationUC) ListByStatus(ctx context.Context, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error) {
	return u.records.ListByStatus(ctx, nil, status, offset, limit)
}

func (u *verificationUC) Approve(ctx context.Context, recordID, notes string) (ApproveOutcome, error) {
	var outcome ApproveOutcome
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.records.FindByID(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if rec.Status.Terminal() {
			return fmt.Errorf("%w: record %s is %s", domain.ErrRecordAlreadyResolved, rec.ID, rec.Status)
		}

		out, err := u.provisioner.Provision(ctx, ProvisionInput{
			Email:   rec.Email,
			Name:    rec.Name,
			PriceID: rec.PriceID,
			Source:  "manual_verification",
		})
		if err != nil {
			return err
		}

		now := time.Now()
		rec.Status = model.VerificationStatusApproved
		rec.ReviewerNotes = notes
		rec.CustomerID = &out.CustomerID
		rec.SubscriptionID = &out.SubscriptionID
		rec.ResolvedAt = &now
		if err := u.records.Save(ctx, tx, rec); err != nil {
			return err
		}

		outcome = ApproveOutcome{
			RecordID:       rec.ID,
			CustomerID:     out.CustomerID,
			SubscriptionID: out.SubscriptionID,
			PlainPassword:  out.PlainPassword,
		}
		return nil
	})
	if err != nil {
		return ApproveOutcome{}, err
	}
	u.log.Info().Str("record_id", outcome.RecordID).Str("subscription_id", outcome.SubscriptionID).Msg("verification approved")
	return outcome, nil
}

func (u *verificationUC) Reject(ctx context.Context, recordID, notes string) error {
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.records.FindByID(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if rec.Status.Terminal() {
			return fmt.Errorf("%w: record %s is %s", domain.ErrRecordAlreadyResolved, rec.ID, rec.Status)
		}

		now := time.Now()
		rec.Status = model.VerificationStatusRejected
		rec.ReviewerNotes = notes
		rec.ResolvedAt = &now
		return u.records.Save(ctx, tx, rec)
	})
	if err != nil {
		return err
	}
	u.log.Info().Str("record_id", recordID).Msg("verification rejected")
	return nil
}

func (u *verificationUC) BulkApprove(ctx context.Context) (BulkResult, error) {
	token, err := u.locker.TryLock(ctx, bulkApproveLockKey, 5*time.Minute)
	if err != nil {
		// Only a held lock means "already running"; a locker outage is an
		// infrastructure failure and must not masquerade as a conflict.
		if errors.Is(err, domain.ErrBulkApproveRunning) {
			return BulkResult{}, err
		}
		return BulkResult{}, fmt.Errorf("acquire bulk approval lock: %w", err)
	}
	defer func() { _ = u.locker.Unlock(ctx, bulkApproveLockKey, token) }()

	pending, err := u.records.ListPendingAutoGenerated(ctx, nil, 500)
	if err != nil {
		return BulkResult{}, err
	}

	var (
		mu     sync.Mutex
		result BulkResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, rec := range pending {
		rec := rec
		g.Go(func() error {
			if _, err := u.Approve(gctx, rec.ID, "bulk approval"); err != nil {
				mu.Lock()
				result.FailCount++
				result.Failures = append(result.Failures, BulkFailure{
					RecordID: rec.ID,
					Email:    rec.Email,
					Error:    err.Error(),
				})
				mu.Unlock()
				// Failures are isolated: never fail the group.
				return nil
			}
			mu.Lock()
			result.SuccessCount++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	u.log.Info().
		Int("approved", result.SuccessCount).
		Int("failed", result.FailCount).
		Msg("bulk approval finished")
	return result, nil
}
