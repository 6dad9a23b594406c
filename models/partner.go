package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartnerTier determines the direct commission rate a partner earns
type PartnerTier string

const (
	TierStandard PartnerTier = "standard"
	TierPlus     PartnerTier = "plus"
)

// Partner is an accountant participating in the referral program.
// UplinePartnerID is a weak back-reference by id, never a live pointer;
// the referral tree must stay acyclic and is verified at traversal time.
type Partner struct {
	ID              primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	FullName        string              `json:"fullName" bson:"fullName"`
	Email           string              `json:"email" bson:"email"`
	UplinePartnerID *primitive.ObjectID `json:"uplinePartnerId,omitempty" bson:"uplinePartnerId,omitempty"`
	SalesRepID      *primitive.ObjectID `json:"salesRepId,omitempty" bson:"salesRepId,omitempty"`
	Tier            PartnerTier         `json:"tier" bson:"tier"`
	KYCVerified     bool                `json:"kycVerified" bson:"kycVerified"`
	ReferralCode    string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ActivatedAt     *time.Time          `json:"activatedAt,omitempty" bson:"activatedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// PartnerBalance summarizes a partner's ledger position for reporting
type PartnerBalance struct {
	PartnerID  primitive.ObjectID `json:"partnerId" bson:"partnerId"`
	Pending    Money              `json:"pending" bson:"pending"`
	Payable    Money              `json:"payable" bson:"payable"`
	Paid       Money              `json:"paid" bson:"paid"`
	ClawedBack Money              `json:"clawedBack" bson:"clawedBack"`
}
