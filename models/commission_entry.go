// models/commission_entry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryRole says which relationship in the referral chain earned the entry
type EntryRole string

const (
	RoleDirect   EntryRole = "direct"
	RoleUpline   EntryRole = "upline"
	RoleSalesRep EntryRole = "sales_rep"
)

// EntryStatus is the lifecycle of a commission entry
type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryPayable    EntryStatus = "payable"
	EntryPaid       EntryStatus = "paid"
	EntryClawedBack EntryStatus = "clawed_back"
)

// CommissionEntry is one posted commission amount. Entries are append-only:
// after creation the only mutations are a single clawback status flip or a
// single payout inclusion. An entry never reaches paid after clawed_back.
type CommissionEntry struct {
	ID                   primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	SourceEventID        string              `json:"sourceEventId" bson:"sourceEventId"`
	BeneficiaryPartnerID primitive.ObjectID  `json:"beneficiaryPartnerId" bson:"beneficiaryPartnerId"`
	Role                 EntryRole           `json:"role" bson:"role"`
	Amount               Money               `json:"amount" bson:"amount"`
	Currency             string              `json:"currency" bson:"currency"`
	MonthRef             string              `json:"monthRef" bson:"monthRef"`
	Status               EntryStatus         `json:"status" bson:"status"`
	BatchID              *primitive.ObjectID `json:"batchId,omitempty" bson:"batchId,omitempty"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
	PaidAt               *time.Time          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}
