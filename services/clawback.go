// services/clawback.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// ReversalResult is the outcome of applying a refund or cancellation
type ReversalResult struct {
	Duplicate bool
	// PolicySkipped is true when the configuration says this event kind
	// does not claw back (cancellations by default).
	PolicySkipped bool
	Records       []models.ClawbackRecord
}

// ClawbackProcessor reverses previously posted commission entries when a
// refund or cancellation arrives. Reversals are bounded by the clawback
// window; anything older is recorded as a window_expired skip so the
// audit trail shows the attempt instead of silently dropping it.
type ClawbackProcessor struct {
	store LedgerStore
	cfg   config.EngineConfig
	now   func() time.Time
}

// NewClawbackProcessor creates a processor over the ledger store
func NewClawbackProcessor(store LedgerStore, cfg config.EngineConfig) *ClawbackProcessor {
	return &ClawbackProcessor{store: store, cfg: cfg, now: time.Now}
}

// Reverse applies one refund or cancellation event. The refund's event id
// goes through the same uniqueness gate as ingestion, so redelivered
// refunds are a no-op. A refund whose original transaction is not in the
// ledger yet (out-of-order delivery) is rejected for review without
// consuming the event id, so a later redelivery can still succeed.
func (p *ClawbackProcessor) Reverse(ctx context.Context, event *models.PaymentEvent) (*ReversalResult, error) {
	reason, err := reasonFor(event.Kind)
	if err != nil {
		return nil, err
	}

	if !p.clawbackEnabled(event.Kind) {
		// Still consume the event id: the decision not to claw back is
		// itself final for this event.
		if err := p.store.RecordEvent(ctx, event, nil); err != nil {
			if errors.Is(err, models.ErrDuplicateEvent) {
				return &ReversalResult{Duplicate: true}, nil
			}
			return nil, err
		}
		log.Printf("Event %s: %s received, clawback disabled by policy", event.EventID, event.Kind)
		return &ReversalResult{PolicySkipped: true}, nil
	}

	original, err := p.store.EventByTransaction(ctx, event.ReversedTransactionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: no ledger event for reversed transaction %q", models.ErrNotFound, event.ReversedTransactionID)
		}
		return nil, err
	}

	if err := p.store.RecordEvent(ctx, event, nil); err != nil {
		if errors.Is(err, models.ErrDuplicateEvent) {
			return &ReversalResult{Duplicate: true}, nil
		}
		return nil, err
	}

	entries, err := p.store.EntriesBySourceEvent(ctx, original.EventID)
	if err != nil {
		return nil, err
	}

	refundedAt := event.ReceivedAt
	if refundedAt.IsZero() {
		refundedAt = p.now()
	}
	window := time.Duration(p.cfg.ClawbackDays) * 24 * time.Hour

	result := &ReversalResult{}
	for _, entry := range entries {
		switch entry.Status {
		case models.EntryClawedBack:
			// At most one clawback per entry.
			continue
		case models.EntryPaid:
			log.Printf("Event %s: entry %s already settled, skipping reversal", event.EventID, entry.ID.Hex())
			continue
		}

		record := models.ClawbackRecord{
			ClawbackID:      uuid.NewString(),
			OriginalEntryID: entry.ID,
			SourceEventID:   event.EventID,
			Reason:          reason,
			Amount:          entry.Amount,
			Currency:        entry.Currency,
			CreatedAt:       p.now(),
		}

		if refundedAt.Sub(entry.CreatedAt) > window {
			record.Status = models.ClawbackWindowExpired
			log.Printf("Event %s: entry %s outside %d-day clawback window, recorded as skipped", event.EventID, entry.ID.Hex(), p.cfg.ClawbackDays)
		} else {
			record.Status = models.ClawbackApplied
		}

		if err := p.store.ApplyClawback(ctx, record); err != nil {
			return nil, err
		}
		result.Records = append(result.Records, record)
	}

	return result, nil
}

func (p *ClawbackProcessor) clawbackEnabled(kind models.EventKind) bool {
	switch kind {
	case models.EventRefund:
		return p.cfg.AutoClawbackRefund
	case models.EventCancellation:
		return p.cfg.AutoClawbackCancel
	}
	return false
}

func reasonFor(kind models.EventKind) (models.ClawbackReason, error) {
	switch kind {
	case models.EventRefund:
		return models.ClawbackRefund, nil
	case models.EventCancellation:
		return models.ClawbackCancellation, nil
	}
	return "", fmt.Errorf("clawback processor cannot handle event kind %q", kind)
}
