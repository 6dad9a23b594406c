package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ledgerworks/partner_ledger/models"
)

// memStore is an in-memory stand-in for the Mongo repositories. It
// mirrors the storage-level guarantees the engine leans on: unique event
// ids, unique (partner, period) batches, and status-guarded mutations.
type memStore struct {
	mu         sync.Mutex
	partners   map[primitive.ObjectID]models.Partner
	companies  map[primitive.ObjectID]models.Company
	snapshots  map[primitive.ObjectID]models.PartnerMetricsSnapshot
	events     map[string]models.PaymentEvent
	eventsByTx map[string]string
	entries    map[primitive.ObjectID]*models.CommissionEntry
	clawbacks  []models.ClawbackRecord
	rejected   []models.RejectedEvent
	batches    map[primitive.ObjectID]*models.PayoutBatch
}

func newMemStore() *memStore {
	return &memStore{
		partners:   make(map[primitive.ObjectID]models.Partner),
		companies:  make(map[primitive.ObjectID]models.Company),
		snapshots:  make(map[primitive.ObjectID]models.PartnerMetricsSnapshot),
		events:     make(map[string]models.PaymentEvent),
		eventsByTx: make(map[string]string),
		entries:    make(map[primitive.ObjectID]*models.CommissionEntry),
		batches:    make(map[primitive.ObjectID]*models.PayoutBatch),
	}
}

func (s *memStore) addPartner(p models.Partner) models.Partner {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Tier == "" {
		p.Tier = models.TierStandard
	}
	s.mu.Lock()
	s.partners[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *memStore) addCompany(c models.Company) models.Company {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.companies[c.ID] = c
	s.mu.Unlock()
	return c
}

func (s *memStore) addSnapshot(snap models.PartnerMetricsSnapshot) {
	s.mu.Lock()
	s.snapshots[snap.PartnerID] = snap
	s.mu.Unlock()
}

func (s *memStore) PartnerByID(_ context.Context, id primitive.ObjectID) (*models.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownPartner, id.Hex())
	}
	return &p, nil
}

func (s *memStore) CompanyByID(_ context.Context, id primitive.ObjectID) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownCompany, id.Hex())
	}
	return &c, nil
}

func (s *memStore) SnapshotByPartner(_ context.Context, partnerID primitive.ObjectID) (*models.PartnerMetricsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[partnerID]
	if !ok {
		return nil, fmt.Errorf("%w: no metrics snapshot for partner %s", models.ErrNotFound, partnerID.Hex())
	}
	return &snap, nil
}

func (s *memStore) RecordEvent(_ context.Context, event *models.PaymentEvent, entries []models.CommissionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.EventID]; exists {
		return models.ErrDuplicateEvent
	}
	s.events[event.EventID] = *event
	switch event.Kind {
	case models.EventRefund, models.EventCancellation:
	default:
		if event.TransactionID != "" {
			s.eventsByTx[event.TransactionID] = event.EventID
		}
	}

	for i := range entries {
		if entries[i].ID.IsZero() {
			entries[i].ID = primitive.NewObjectID()
		}
		entry := entries[i]
		s.entries[entry.ID] = &entry
	}
	return nil
}

func (s *memStore) EventByTransaction(_ context.Context, transactionID string) (*models.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID, ok := s.eventsByTx[transactionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	event := s.events[eventID]
	return &event, nil
}

func (s *memStore) EntriesBySourceEvent(_ context.Context, eventID string) ([]models.CommissionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.CommissionEntry
	for _, entry := range s.entries {
		if entry.SourceEventID == eventID {
			result = append(result, *entry)
		}
	}
	return result, nil
}

func (s *memStore) ApplyClawback(_ context.Context, record models.ClawbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	s.clawbacks = append(s.clawbacks, record)

	if record.Status != models.ClawbackApplied {
		return nil
	}
	entry, ok := s.entries[record.OriginalEntryID]
	if ok && (entry.Status == models.EntryPending || entry.Status == models.EntryPayable) {
		entry.Status = models.EntryClawedBack
	}
	return nil
}

func (s *memStore) RecordRejected(_ context.Context, rejected models.RejectedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, rejected)
	return nil
}

func (s *memStore) MaturePending(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, entry := range s.entries {
		if entry.Status == models.EntryPending && !entry.CreatedAt.After(before) {
			entry.Status = models.EntryPayable
			n++
		}
	}
	return n, nil
}

func (s *memStore) PayableEntries(_ context.Context, partnerID primitive.ObjectID, upToPeriod string) ([]models.CommissionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.CommissionEntry
	for _, entry := range s.entries {
		if entry.BeneficiaryPartnerID == partnerID && entry.Status == models.EntryPayable &&
			entry.BatchID == nil && entry.MonthRef <= upToPeriod {
			result = append(result, *entry)
		}
	}
	return result, nil
}

func (s *memStore) PartnersWithPayable(_ context.Context, upToPeriod string) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, entry := range s.entries {
		if entry.Status == models.EntryPayable && entry.BatchID == nil &&
			entry.MonthRef <= upToPeriod && !seen[entry.BeneficiaryPartnerID] {
			seen[entry.BeneficiaryPartnerID] = true
			ids = append(ids, entry.BeneficiaryPartnerID)
		}
	}
	return ids, nil
}

func (s *memStore) CreateBatch(_ context.Context, batch *models.PayoutBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.batches {
		if existing.PartnerID == batch.PartnerID && existing.Period == batch.Period {
			return models.ErrDuplicateBatch
		}
	}

	if batch.ID.IsZero() {
		batch.ID = primitive.NewObjectID()
	}
	stored := *batch
	s.batches[batch.ID] = &stored

	for _, entryID := range batch.EntryIDs {
		if entry, ok := s.entries[entryID]; ok {
			id := batch.ID
			entry.BatchID = &id
		}
	}
	return nil
}

func (s *memStore) TransitionBatch(_ context.Context, batchID primitive.ObjectID, next models.BatchStatus) (*models.PayoutBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[batchID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !batch.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrBadTransition, batch.Status, next)
	}

	now := time.Now()
	batch.Status = next
	switch next {
	case models.BatchCompleted:
		batch.SettledAt = &now
		for _, entryID := range batch.EntryIDs {
			if entry, ok := s.entries[entryID]; ok {
				entry.Status = models.EntryPaid
				paidAt := now
				entry.PaidAt = &paidAt
			}
		}
	case models.BatchFailed, models.BatchCancelled:
		for _, entryID := range batch.EntryIDs {
			if entry, ok := s.entries[entryID]; ok {
				entry.BatchID = nil
			}
		}
	}

	result := *batch
	return &result, nil
}

// entriesForPartner is a test helper summing all non-clawed entries that
// could still pay out (pending or payable)
func (s *memStore) payableTotal(partnerID primitive.ObjectID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := models.Money{}
	for _, entry := range s.entries {
		if entry.BeneficiaryPartnerID == partnerID &&
			(entry.Status == models.EntryPending || entry.Status == models.EntryPayable) {
			total = models.NewMoney(total.Decimal.Add(entry.Amount.Decimal))
		}
	}
	return total.Decimal.StringFixed(2)
}
