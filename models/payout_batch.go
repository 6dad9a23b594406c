// models/payout_batch.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BatchStatus is the payout batch state machine:
// pending -> processing -> completed | failed, with cancelled reachable
// from pending and processing.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchCancelled  BatchStatus = "cancelled"
)

// CanTransition reports whether the state machine permits moving from s
// to next
func (s BatchStatus) CanTransition(next BatchStatus) bool {
	switch s {
	case BatchPending:
		return next == BatchProcessing || next == BatchCancelled
	case BatchProcessing:
		return next == BatchCompleted || next == BatchFailed || next == BatchCancelled
	}
	return false
}

// PayoutBatch aggregates a partner's payable entries for one settlement
// period. The (partnerId, period) pair is unique at the storage layer,
// which is what keeps concurrent batcher runs from double-batching.
type PayoutBatch struct {
	ID          primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	BatchRef    string               `json:"batchRef" bson:"batchRef"`
	PartnerID   primitive.ObjectID   `json:"partnerId" bson:"partnerId"`
	Period      string               `json:"period" bson:"period"`
	TotalAmount Money                `json:"totalAmount" bson:"totalAmount"`
	Currency    string               `json:"currency" bson:"currency"`
	Status      BatchStatus          `json:"status" bson:"status"`
	EntryIDs    []primitive.ObjectID `json:"entryIds" bson:"entryIds"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	SettledAt   *time.Time           `json:"settledAt,omitempty" bson:"settledAt,omitempty"`
}
