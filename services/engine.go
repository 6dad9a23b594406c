// services/engine.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// ApplyResult reports what one event did to the ledger
type ApplyResult struct {
	// Duplicate means the event id was seen before; nothing changed.
	Duplicate bool
	// PolicySkipped means a cancellation arrived while cancellation
	// clawback is disabled.
	PolicySkipped bool
	Entries       []models.CommissionEntry
	Clawbacks     []models.ClawbackRecord
}

// Engine is the event-application front door: it dispatches each payment
// event to the commission calculator or the clawback processor and
// commits the outcome through the ledger's idempotency gate. One bad
// event is rejected and queued for review; it never stops the others.
type Engine struct {
	store      LedgerStore
	partners   PartnerStore
	calculator *CommissionCalculator
	clawbacks  *ClawbackProcessor
	now        func() time.Time
}

// NewEngine wires the full calculation pipeline over the given stores
func NewEngine(store LedgerStore, partners PartnerStore, metrics MetricsStore, cfg config.EngineConfig) *Engine {
	return &Engine{
		store:      store,
		partners:   partners,
		calculator: NewCommissionCalculator(partners, metrics, cfg),
		clawbacks:  NewClawbackProcessor(store, cfg),
		now:        time.Now,
	}
}

// Apply processes one payment event end to end. Referential integrity
// failures (unknown company or partner, a cycle in the upline chain, an
// unknown tier) are stored in the review queue and returned as typed
// errors; duplicates come back as a successful no-op.
func (e *Engine) Apply(ctx context.Context, event *models.PaymentEvent) (*ApplyResult, error) {
	if !event.Kind.Valid() {
		return nil, fmt.Errorf("unsupported event kind %q", event.Kind)
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = e.now()
	}

	switch event.Kind {
	case models.EventRefund, models.EventCancellation:
		return e.applyReversal(ctx, event)
	default:
		return e.applyCommission(ctx, event)
	}
}

func (e *Engine) applyCommission(ctx context.Context, event *models.PaymentEvent) (*ApplyResult, error) {
	var company *models.Company
	if event.Kind == models.EventRecurringPayment || event.Kind == models.EventCompanySignup {
		var err error
		company, err = e.partners.CompanyByID(ctx, event.CompanyID)
		if err != nil {
			return nil, e.reject(ctx, event, err)
		}
	}

	entries, err := e.calculator.Entries(ctx, event, company)
	if err != nil {
		if isIntegrityFault(err) {
			return nil, e.reject(ctx, event, err)
		}
		return nil, err
	}

	if err := e.store.RecordEvent(ctx, event, entries); err != nil {
		if errors.Is(err, models.ErrDuplicateEvent) {
			log.Printf("Event %s already applied, skipping", event.EventID)
			return &ApplyResult{Duplicate: true}, nil
		}
		return nil, err
	}

	return &ApplyResult{Entries: entries}, nil
}

func (e *Engine) applyReversal(ctx context.Context, event *models.PaymentEvent) (*ApplyResult, error) {
	reversal, err := e.clawbacks.Reverse(ctx, event)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, e.reject(ctx, event, err)
		}
		return nil, err
	}
	return &ApplyResult{
		Duplicate:     reversal.Duplicate,
		PolicySkipped: reversal.PolicySkipped,
		Clawbacks:     reversal.Records,
	}, nil
}

// reject queues the event for operator review and hands the original
// fault back to the caller
func (e *Engine) reject(ctx context.Context, event *models.PaymentEvent, cause error) error {
	log.Printf("Error applying event %s: %v", event.EventID, cause)

	rejected := models.RejectedEvent{
		EventID:    event.EventID,
		Kind:       event.Kind,
		Reason:     cause.Error(),
		Payload:    *event,
		RejectedAt: e.now(),
	}
	if err := e.store.RecordRejected(ctx, rejected); err != nil {
		log.Printf("Error recording rejected event %s: %v", event.EventID, err)
	}
	return cause
}

func isIntegrityFault(err error) bool {
	return errors.Is(err, models.ErrUnknownPartner) ||
		errors.Is(err, models.ErrUnknownCompany) ||
		errors.Is(err, models.ErrCycleDetected) ||
		errors.Is(err, models.ErrUnknownTier) ||
		errors.Is(err, models.ErrNotFound)
}
