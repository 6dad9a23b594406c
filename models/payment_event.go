// models/payment_event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventKind classifies an incoming payment event
type EventKind string

const (
	EventRecurringPayment  EventKind = "recurring_payment"
	EventRefund            EventKind = "refund"
	EventCancellation      EventKind = "cancellation"
	EventCompanySignup     EventKind = "company_signup"
	EventPartnerActivation EventKind = "partner_activation"
)

// Valid reports whether the kind is one the engine knows how to apply
func (k EventKind) Valid() bool {
	switch k {
	case EventRecurringPayment, EventRefund, EventCancellation,
		EventCompanySignup, EventPartnerActivation:
		return true
	}
	return false
}

// PaymentEvent is the immutable input from the webhook ingestion layer.
// EventID is the idempotency key: the ledger applies each event at most
// once no matter how many times the gateway redelivers it.
type PaymentEvent struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EventID   string             `json:"eventId" bson:"eventId" validate:"required"`
	CompanyID primitive.ObjectID `json:"companyId" bson:"companyId"`
	// PartnerID is set for partner_activation events, which are not tied
	// to a company.
	PartnerID             *primitive.ObjectID `json:"partnerId,omitempty" bson:"partnerId,omitempty"`
	Amount                Money               `json:"amount" bson:"amount"`
	Currency              string              `json:"currency" bson:"currency"`
	MonthRef              string              `json:"monthRef" bson:"monthRef"`
	TransactionID         string              `json:"transactionId" bson:"transactionId"`
	Kind                  EventKind           `json:"kind" bson:"kind" validate:"required"`
	ReversedTransactionID string              `json:"reversedTransactionId,omitempty" bson:"reversedTransactionId,omitempty"`
	ReceivedAt            time.Time           `json:"receivedAt" bson:"receivedAt"`
}

// RejectedEvent is an event that failed referential integrity and was
// queued for operator review instead of being silently dropped
type RejectedEvent struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EventID    string             `json:"eventId" bson:"eventId"`
	Kind       EventKind          `json:"kind" bson:"kind"`
	Reason     string             `json:"reason" bson:"reason"`
	Payload    PaymentEvent       `json:"payload" bson:"payload"`
	RejectedAt time.Time          `json:"rejectedAt" bson:"rejectedAt"`
}
