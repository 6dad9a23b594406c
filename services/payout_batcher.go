// services/payout_batcher.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// BatchRunResult summarizes one batcher tick
type BatchRunResult struct {
	Period          string
	EntriesMatured  int64
	BatchesCreated  int
	PartnersSkipped int
}

// PayoutBatcher aggregates unbatched payable entries into per-partner
// payout batches once the minimum threshold is met. Duplicate-run safety
// comes from the (partnerId, period) uniqueness the store enforces, not
// from any lock; two concurrent runs just race to the same insert and
// one of them loses harmlessly.
type PayoutBatcher struct {
	store LedgerStore
	cfg   config.EngineConfig
	now   func() time.Time
}

// NewPayoutBatcher creates a batcher over the ledger store
func NewPayoutBatcher(store LedgerStore, cfg config.EngineConfig) *PayoutBatcher {
	return &PayoutBatcher{store: store, cfg: cfg, now: time.Now}
}

// Run executes one batching tick for the given period. Pending entries
// older than the clawback window mature to payable first, then every
// partner whose unbatched payable total reaches the minimum gets one
// pending batch for the period.
func (b *PayoutBatcher) Run(ctx context.Context, period string) (*BatchRunResult, error) {
	result := &BatchRunResult{Period: period}

	cutoff := b.now().Add(-time.Duration(b.cfg.ClawbackDays) * 24 * time.Hour)
	matured, err := b.store.MaturePending(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	result.EntriesMatured = matured

	partnerIDs, err := b.store.PartnersWithPayable(ctx, period)
	if err != nil {
		return nil, err
	}

	for _, partnerID := range partnerIDs {
		entries, err := b.store.PayableEntries(ctx, partnerID, period)
		if err != nil {
			log.Printf("Error loading payable entries for partner %s: %v", partnerID.Hex(), err)
			continue
		}

		total := decimal.Zero
		entryIDs := make([]primitive.ObjectID, 0, len(entries))
		for _, entry := range entries {
			total = total.Add(entry.Amount.Decimal)
			entryIDs = append(entryIDs, entry.ID)
		}

		if total.LessThan(b.cfg.PayoutMin) {
			result.PartnersSkipped++
			continue
		}

		batch := &models.PayoutBatch{
			BatchRef:    uuid.NewString(),
			PartnerID:   partnerID,
			Period:      period,
			TotalAmount: models.NewMoney(total),
			Currency:    b.cfg.PayoutCurrency,
			Status:      models.BatchPending,
			EntryIDs:    entryIDs,
			CreatedAt:   b.now(),
		}

		if err := b.store.CreateBatch(ctx, batch); err != nil {
			if errors.Is(err, models.ErrDuplicateBatch) {
				log.Printf("Batch for partner %s period %s already exists, skipping", partnerID.Hex(), period)
				continue
			}
			return result, err
		}
		result.BatchesCreated++
	}

	return result, nil
}

// Transition moves a batch through its state machine on behalf of the
// payout-execution collaborator
func (b *PayoutBatcher) Transition(ctx context.Context, batchID primitive.ObjectID, next models.BatchStatus) (*models.PayoutBatch, error) {
	return b.store.TransitionBatch(ctx, batchID, next)
}
