//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"digital-checkout/internal/domain/model"
)

func TestVerificationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewVerificationRepo(testPool)

	seed := func(t *testing.T, auto bool, status model.VerificationStatus) *model.ManualVerificationRecord {
		t.Helper()
		rec, err := model.NewManualVerificationRecord(ulid.Make().String(), "buyer@example.com", "Buyer", "acme-bank", "https://proof.example/r.pdf", "price-1", auto)
		if err != nil {
			t.Fatalf("NewManualVerificationRecord: %v", err)
		}
		rec.Status = status
		if err := repo.Save(ctx, nil, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
		return rec
	}

	t.Run("bulk listing filters on pending and auto-generated", func(t *testing.T) {
		cleanup(t)
		eligible := seed(t, true, model.VerificationStatusPending)
		seed(t, false, model.VerificationStatusPending)
		seed(t, true, model.VerificationStatusApproved)

		got, err := repo.ListPendingAutoGenerated(ctx, nil, 10)
		if err != nil {
			t.Fatalf("ListPendingAutoGenerated: %v", err)
		}
		if len(got) != 1 || got[0].ID != eligible.ID {
			t.Errorf("got %d rows, want only the eligible record", len(got))
		}
	})

	t.Run("resolution fields round trip", func(t *testing.T) {
		cleanup(t)
		rec := seed(t, true, model.VerificationStatusPending)

		custID, subID := "cust-1", "sub-1"
		now := time.Now().UTC().Truncate(time.Millisecond)
		rec.Status = model.VerificationStatusApproved
		rec.ReviewerNotes = "ok"
		rec.CustomerID = &custID
		rec.SubscriptionID = &subID
		rec.ResolvedAt = &now
		if err := repo.Save(ctx, nil, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, rec.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Status != model.VerificationStatusApproved || got.ReviewerNotes != "ok" {
			t.Errorf("resolution not persisted: %+v", got)
		}
		if got.CustomerID == nil || *got.CustomerID != custID {
			t.Error("customer link not persisted")
		}
		if got.ResolvedAt == nil {
			t.Error("resolved_at not persisted")
		}
	})
}
