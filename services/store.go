// services/store.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/models"
)

// PartnerStore reads partners and companies. Traversal never mutates.
type PartnerStore interface {
	PartnerByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	CompanyByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error)
}

// MetricsStore reads the out-of-band partner metrics snapshots
type MetricsStore interface {
	SnapshotByPartner(ctx context.Context, partnerID primitive.ObjectID) (*models.PartnerMetricsSnapshot, error)
}

// LedgerStore is the append-only commission ledger. RecordEvent must be
// atomic "insert if absent" on the event id; that single constraint is
// what makes concurrent at-least-once ingestion safe.
type LedgerStore interface {
	// RecordEvent commits an event and its computed entries, returning
	// models.ErrDuplicateEvent if the event id was already applied.
	RecordEvent(ctx context.Context, event *models.PaymentEvent, entries []models.CommissionEntry) error

	// EventByTransaction resolves the original payment event a refund or
	// cancellation reverses, by its gateway transaction id.
	EventByTransaction(ctx context.Context, transactionID string) (*models.PaymentEvent, error)

	// EntriesBySourceEvent returns all entries posted for an event.
	EntriesBySourceEvent(ctx context.Context, eventID string) ([]models.CommissionEntry, error)

	// ApplyClawback inserts the record and, when it is an applied
	// reversal, flips the original entry to clawed_back.
	ApplyClawback(ctx context.Context, record models.ClawbackRecord) error

	// RecordRejected queues a referentially-broken event for review.
	RecordRejected(ctx context.Context, rejected models.RejectedEvent) error

	// MaturePending promotes pending entries created before the cutoff
	// to payable, returning how many were promoted.
	MaturePending(ctx context.Context, before time.Time) (int64, error)

	// PayableEntries returns a partner's unbatched payable entries up to
	// and including the given period.
	PayableEntries(ctx context.Context, partnerID primitive.ObjectID, upToPeriod string) ([]models.CommissionEntry, error)

	// PartnersWithPayable lists partners holding at least one unbatched
	// payable entry up to the given period.
	PartnersWithPayable(ctx context.Context, upToPeriod string) ([]primitive.ObjectID, error)

	// CreateBatch inserts a payout batch and stamps its entries with the
	// batch id, returning models.ErrDuplicateBatch if a batch already
	// exists for the (partner, period) pair.
	CreateBatch(ctx context.Context, batch *models.PayoutBatch) error

	// TransitionBatch moves a batch through its state machine. completed
	// marks member entries paid; failed and cancelled release them for
	// the next tick.
	TransitionBatch(ctx context.Context, batchID primitive.ObjectID, next models.BatchStatus) (*models.PayoutBatch, error)
}
