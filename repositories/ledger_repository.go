// repositories/ledger_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// LedgerRepository is the MongoDB-backed commission ledger. The unique
// index on ledger_events.eventId does the idempotency work; everything
// here is computed before the insert and discarded on conflict.
type LedgerRepository struct {
	events    *mongo.Collection
	entries   *mongo.Collection
	clawbacks *mongo.Collection
	batches   *mongo.Collection
	rejected  *mongo.Collection
}

// NewLedgerRepository creates a ledger repository over the client
func NewLedgerRepository(client *mongo.Client) *LedgerRepository {
	db := client.Database(config.DatabaseName())
	return &LedgerRepository{
		events:    db.Collection("ledger_events"),
		entries:   db.Collection("commission_entries"),
		clawbacks: db.Collection("clawback_records"),
		batches:   db.Collection("payout_batches"),
		rejected:  db.Collection("rejected_events"),
	}
}

// RecordEvent commits the event and its entries. The event insert is the
// atomic gate: a duplicate key on eventId means the event was already
// applied and the computed entries are discarded.
func (r *LedgerRepository) RecordEvent(ctx context.Context, event *models.PaymentEvent, entries []models.CommissionEntry) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	if _, err := r.events.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to record event %s: %w", event.EventID, err)
	}

	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(entries))
	for i := range entries {
		if entries[i].ID.IsZero() {
			entries[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, entries[i])
	}
	if _, err := r.entries.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert entries for event %s: %w", event.EventID, err)
	}
	return nil
}

// EventByTransaction resolves the original (non-reversal) event for a
// gateway transaction id
func (r *LedgerRepository) EventByTransaction(ctx context.Context, transactionID string) (*models.PaymentEvent, error) {
	filter := bson.M{
		"transactionId": transactionID,
		"kind":          bson.M{"$nin": []models.EventKind{models.EventRefund, models.EventCancellation}},
	}
	var event models.PaymentEvent
	err := r.events.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// EntriesBySourceEvent returns every entry posted for the given event id
func (r *LedgerRepository) EntriesBySourceEvent(ctx context.Context, eventID string) ([]models.CommissionEntry, error) {
	cursor, err := r.entries.Find(ctx, bson.M{"sourceEventId": eventID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ApplyClawback inserts the record and flips the original entry when the
// reversal applied. The status guard keeps an entry from being clawed
// back twice even under concurrent refund replays.
func (r *LedgerRepository) ApplyClawback(ctx context.Context, record models.ClawbackRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if _, err := r.clawbacks.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert clawback record: %w", err)
	}

	if record.Status != models.ClawbackApplied {
		return nil
	}

	filter := bson.M{
		"_id":    record.OriginalEntryID,
		"status": bson.M{"$in": []models.EntryStatus{models.EntryPending, models.EntryPayable}},
	}
	update := bson.M{"$set": bson.M{"status": models.EntryClawedBack}}
	if _, err := r.entries.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark entry %s clawed back: %w", record.OriginalEntryID.Hex(), err)
	}
	return nil
}

// RecordRejected queues an event for operator review
func (r *LedgerRepository) RecordRejected(ctx context.Context, rejected models.RejectedEvent) error {
	if rejected.ID.IsZero() {
		rejected.ID = primitive.NewObjectID()
	}
	_, err := r.rejected.InsertOne(ctx, rejected)
	return err
}

// RejectedEvents lists the review queue, newest first
func (r *LedgerRepository) RejectedEvents(ctx context.Context, limit int64) ([]models.RejectedEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rejectedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.rejected.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.RejectedEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// MaturePending promotes pending entries older than the cutoff to payable
func (r *LedgerRepository) MaturePending(ctx context.Context, before time.Time) (int64, error) {
	filter := bson.M{
		"status":    models.EntryPending,
		"createdAt": bson.M{"$lte": before},
	}
	update := bson.M{"$set": bson.M{"status": models.EntryPayable}}
	res, err := r.entries.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func payableFilter(upToPeriod string) bson.M {
	return bson.M{
		"status":   models.EntryPayable,
		"batchId":  nil,
		"monthRef": bson.M{"$lte": upToPeriod},
	}
}

// PayableEntries returns a partner's unbatched payable entries up to the
// given period
func (r *LedgerRepository) PayableEntries(ctx context.Context, partnerID primitive.ObjectID, upToPeriod string) ([]models.CommissionEntry, error) {
	filter := payableFilter(upToPeriod)
	filter["beneficiaryPartnerId"] = partnerID

	cursor, err := r.entries.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PartnersWithPayable lists partners holding unbatched payable entries
func (r *LedgerRepository) PartnersWithPayable(ctx context.Context, upToPeriod string) ([]primitive.ObjectID, error) {
	raw, err := r.entries.Distinct(ctx, "beneficiaryPartnerId", payableFilter(upToPeriod))
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CreateBatch inserts the batch and stamps its entries. The unique index
// on (partnerId, period) turns a concurrent duplicate run into a clean
// ErrDuplicateBatch.
func (r *LedgerRepository) CreateBatch(ctx context.Context, batch *models.PayoutBatch) error {
	if batch.ID.IsZero() {
		batch.ID = primitive.NewObjectID()
	}
	if _, err := r.batches.InsertOne(ctx, batch); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateBatch
		}
		return fmt.Errorf("failed to create payout batch: %w", err)
	}

	filter := bson.M{"_id": bson.M{"$in": batch.EntryIDs}}
	update := bson.M{"$set": bson.M{"batchId": batch.ID}}
	if _, err := r.entries.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to stamp entries for batch %s: %w", batch.ID.Hex(), err)
	}
	return nil
}

// TransitionBatch drives the batch state machine. The compare-and-set on
// the current status keeps two collaborator callbacks from racing past
// each other.
func (r *LedgerRepository) TransitionBatch(ctx context.Context, batchID primitive.ObjectID, next models.BatchStatus) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch
	if err := r.batches.FindOne(ctx, bson.M{"_id": batchID}).Decode(&batch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	if !batch.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrBadTransition, batch.Status, next)
	}

	now := time.Now()
	set := bson.M{"status": next}
	if next == models.BatchCompleted {
		set["settledAt"] = now
	}

	res, err := r.batches.UpdateOne(ctx,
		bson.M{"_id": batchID, "status": batch.Status},
		bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, fmt.Errorf("%w: batch %s changed concurrently", models.ErrBadTransition, batchID.Hex())
	}

	entryFilter := bson.M{"_id": bson.M{"$in": batch.EntryIDs}}
	switch next {
	case models.BatchCompleted:
		// Settlement is all-or-nothing: every member entry goes to paid.
		update := bson.M{"$set": bson.M{"status": models.EntryPaid, "paidAt": now}}
		if _, err := r.entries.UpdateMany(ctx, entryFilter, update); err != nil {
			return nil, fmt.Errorf("failed to mark batch %s entries paid: %w", batchID.Hex(), err)
		}
		batch.SettledAt = &now
	case models.BatchFailed, models.BatchCancelled:
		// Entries stay payable and become eligible for the next tick.
		update := bson.M{"$set": bson.M{"batchId": nil}}
		if _, err := r.entries.UpdateMany(ctx, entryFilter, update); err != nil {
			return nil, fmt.Errorf("failed to release batch %s entries: %w", batchID.Hex(), err)
		}
	}

	batch.Status = next
	return &batch, nil
}

// BatchByID loads one payout batch
func (r *LedgerRepository) BatchByID(ctx context.Context, batchID primitive.ObjectID) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch
	if err := r.batches.FindOne(ctx, bson.M{"_id": batchID}).Decode(&batch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// ListBatches lists payout batches, optionally by status, newest first
func (r *LedgerRepository) ListBatches(ctx context.Context, status models.BatchStatus) ([]models.PayoutBatch, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.batches.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var batches []models.PayoutBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// EntriesByPartner returns all of a partner's entries, newest first
func (r *LedgerRepository) EntriesByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]models.CommissionEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.entries.Find(ctx, bson.M{"beneficiaryPartnerId": partnerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PartnerBalance sums a partner's entries per status. Sums are computed
// in decimal on the way out of Decimal128, never in floating point.
func (r *LedgerRepository) PartnerBalance(ctx context.Context, partnerID primitive.ObjectID) (*models.PartnerBalance, error) {
	entries, err := r.EntriesByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	balance := &models.PartnerBalance{PartnerID: partnerID}
	for _, entry := range entries {
		switch entry.Status {
		case models.EntryPending:
			balance.Pending = models.NewMoney(balance.Pending.Decimal.Add(entry.Amount.Decimal))
		case models.EntryPayable:
			balance.Payable = models.NewMoney(balance.Payable.Decimal.Add(entry.Amount.Decimal))
		case models.EntryPaid:
			balance.Paid = models.NewMoney(balance.Paid.Decimal.Add(entry.Amount.Decimal))
		case models.EntryClawedBack:
			balance.ClawedBack = models.NewMoney(balance.ClawedBack.Decimal.Add(entry.Amount.Decimal))
		}
	}
	return balance, nil
}
