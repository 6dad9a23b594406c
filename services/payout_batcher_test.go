package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/models"
)

func payableEntry(store *memStore, partnerID primitive.ObjectID, amount, monthRef string) primitive.ObjectID {
	entry := models.CommissionEntry{
		ID:                   primitive.NewObjectID(),
		SourceEventID:        "evt-" + primitive.NewObjectID().Hex(),
		BeneficiaryPartnerID: partnerID,
		Role:                 models.RoleDirect,
		Amount:               models.NewMoney(decimal.RequireFromString(amount)),
		Currency:             "EUR",
		MonthRef:             monthRef,
		Status:               models.EntryPayable,
		CreatedAt:            time.Now().Add(-45 * 24 * time.Hour),
	}
	store.entries[entry.ID] = &entry
	return entry.ID
}

func TestBatcherRun(t *testing.T) {
	ctx := context.Background()

	t.Run("batches partner over the minimum", func(t *testing.T) {
		store := newMemStore()
		partnerID := primitive.NewObjectID()
		payableEntry(store, partnerID, "60.00", "2025-05")
		payableEntry(store, partnerID, "55.00", "2025-06")

		batcher := NewPayoutBatcher(store, testConfig())
		result, err := batcher.Run(ctx, "2025-06")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.BatchesCreated != 1 {
			t.Fatalf("batches created = %d, want 1", result.BatchesCreated)
		}

		var batch *models.PayoutBatch
		for _, b := range store.batches {
			batch = b
		}
		if got := batch.TotalAmount.StringFixed(2); got != "115.00" {
			t.Errorf("batch total = %s, want 115.00", got)
		}
		if batch.Status != models.BatchPending {
			t.Errorf("batch status = %s, want pending", batch.Status)
		}
		if len(batch.EntryIDs) != 2 {
			t.Errorf("batch entries = %d, want 2", len(batch.EntryIDs))
		}
	})

	t.Run("below minimum is skipped", func(t *testing.T) {
		store := newMemStore()
		partnerID := primitive.NewObjectID()
		payableEntry(store, partnerID, "99.99", "2025-06")

		batcher := NewPayoutBatcher(store, testConfig())
		result, err := batcher.Run(ctx, "2025-06")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.BatchesCreated != 0 || result.PartnersSkipped != 1 {
			t.Errorf("created=%d skipped=%d, want 0 and 1", result.BatchesCreated, result.PartnersSkipped)
		}
	})

	t.Run("second run for the same period is a no-op", func(t *testing.T) {
		store := newMemStore()
		partnerID := primitive.NewObjectID()
		payableEntry(store, partnerID, "150.00", "2025-06")

		batcher := NewPayoutBatcher(store, testConfig())
		if _, err := batcher.Run(ctx, "2025-06"); err != nil {
			t.Fatalf("first run: %v", err)
		}
		result, err := batcher.Run(ctx, "2025-06")
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if result.BatchesCreated != 0 {
			t.Errorf("second run created %d batches, want 0", result.BatchesCreated)
		}
		if len(store.batches) != 1 {
			t.Errorf("store holds %d batches, want 1", len(store.batches))
		}
	})

	t.Run("matures pending entries past the clawback window", func(t *testing.T) {
		store := newMemStore()
		partnerID := primitive.NewObjectID()

		old := models.CommissionEntry{
			ID:                   primitive.NewObjectID(),
			BeneficiaryPartnerID: partnerID,
			Amount:               models.NewMoney(decimal.RequireFromString("120.00")),
			Currency:             "EUR",
			MonthRef:             "2025-05",
			Status:               models.EntryPending,
			CreatedAt:            time.Now().Add(-40 * 24 * time.Hour),
		}
		fresh := models.CommissionEntry{
			ID:                   primitive.NewObjectID(),
			BeneficiaryPartnerID: partnerID,
			Amount:               models.NewMoney(decimal.RequireFromString("300.00")),
			Currency:             "EUR",
			MonthRef:             "2025-06",
			Status:               models.EntryPending,
			CreatedAt:            time.Now().Add(-2 * 24 * time.Hour),
		}
		store.entries[old.ID] = &old
		store.entries[fresh.ID] = &fresh

		batcher := NewPayoutBatcher(store, testConfig())
		result, err := batcher.Run(ctx, "2025-06")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.EntriesMatured != 1 {
			t.Errorf("matured = %d, want 1 (fresh entry stays inside the clawback window)", result.EntriesMatured)
		}
		if result.BatchesCreated != 1 {
			t.Fatalf("batches created = %d, want 1", result.BatchesCreated)
		}
		for _, batch := range store.batches {
			if got := batch.TotalAmount.StringFixed(2); got != "120.00" {
				t.Errorf("batch total = %s, want 120.00 (pending entry excluded)", got)
			}
		}
	})
}

func TestBatchTransitions(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*PayoutBatcher, *memStore, primitive.ObjectID) {
		t.Helper()
		store := newMemStore()
		partnerID := primitive.NewObjectID()
		payableEntry(store, partnerID, "150.00", "2025-06")

		batcher := NewPayoutBatcher(store, testConfig())
		if _, err := batcher.Run(ctx, "2025-06"); err != nil {
			t.Fatalf("Run: %v", err)
		}
		var batchID primitive.ObjectID
		for id := range store.batches {
			batchID = id
		}
		return batcher, store, batchID
	}

	t.Run("completed settles entries", func(t *testing.T) {
		batcher, store, batchID := setup(t)

		if _, err := batcher.Transition(ctx, batchID, models.BatchProcessing); err != nil {
			t.Fatalf("to processing: %v", err)
		}
		batch, err := batcher.Transition(ctx, batchID, models.BatchCompleted)
		if err != nil {
			t.Fatalf("to completed: %v", err)
		}
		if batch.SettledAt == nil {
			t.Error("completed batch has no settledAt")
		}
		for _, entry := range store.entries {
			if entry.Status != models.EntryPaid {
				t.Errorf("entry status = %s, want paid", entry.Status)
			}
			if entry.PaidAt == nil {
				t.Error("paid entry has no paidAt")
			}
		}
	})

	t.Run("failed releases entries for retry", func(t *testing.T) {
		batcher, store, batchID := setup(t)

		if _, err := batcher.Transition(ctx, batchID, models.BatchProcessing); err != nil {
			t.Fatalf("to processing: %v", err)
		}
		if _, err := batcher.Transition(ctx, batchID, models.BatchFailed); err != nil {
			t.Fatalf("to failed: %v", err)
		}
		for _, entry := range store.entries {
			if entry.Status != models.EntryPayable || entry.BatchID != nil {
				t.Errorf("entry not released: status=%s batchId=%v", entry.Status, entry.BatchID)
			}
		}

		// Next tick picks the released entries up again.
		result, err := batcher.Run(ctx, "2025-07")
		if err != nil {
			t.Fatalf("retry run: %v", err)
		}
		if result.BatchesCreated != 1 {
			t.Errorf("retry created %d batches, want 1", result.BatchesCreated)
		}
	})

	t.Run("pending can cancel but not complete", func(t *testing.T) {
		batcher, _, batchID := setup(t)

		if _, err := batcher.Transition(ctx, batchID, models.BatchCompleted); !errors.Is(err, models.ErrBadTransition) {
			t.Errorf("pending -> completed: err = %v, want ErrBadTransition", err)
		}
		if _, err := batcher.Transition(ctx, batchID, models.BatchCancelled); err != nil {
			t.Errorf("pending -> cancelled: %v", err)
		}
	})

	t.Run("terminal states are frozen", func(t *testing.T) {
		batcher, _, batchID := setup(t)

		if _, err := batcher.Transition(ctx, batchID, models.BatchProcessing); err != nil {
			t.Fatalf("to processing: %v", err)
		}
		if _, err := batcher.Transition(ctx, batchID, models.BatchCompleted); err != nil {
			t.Fatalf("to completed: %v", err)
		}
		if _, err := batcher.Transition(ctx, batchID, models.BatchFailed); !errors.Is(err, models.ErrBadTransition) {
			t.Errorf("completed -> failed: err = %v, want ErrBadTransition", err)
		}
	})
}
