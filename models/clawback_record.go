// models/clawback_record.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClawbackReason is why a commission was reversed
type ClawbackReason string

const (
	ClawbackRefund       ClawbackReason = "refund"
	ClawbackCancellation ClawbackReason = "cancellation"
)

// ClawbackStatus distinguishes an applied reversal from an audit-only
// record of a reversal skipped because the window had closed
type ClawbackStatus string

const (
	ClawbackApplied       ClawbackStatus = "applied"
	ClawbackWindowExpired ClawbackStatus = "window_expired"
)

// ClawbackRecord documents the reversal (or attempted reversal) of one
// commission entry. At most one applied record exists per entry.
type ClawbackRecord struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ClawbackID      string             `json:"clawbackId" bson:"clawbackId"`
	OriginalEntryID primitive.ObjectID `json:"originalEntryId" bson:"originalEntryId"`
	SourceEventID   string             `json:"sourceEventId" bson:"sourceEventId"`
	Reason          ClawbackReason     `json:"reason" bson:"reason"`
	Status          ClawbackStatus     `json:"status" bson:"status"`
	Amount          Money              `json:"amount" bson:"amount"`
	Currency        string             `json:"currency" bson:"currency"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}
