// models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company is a subscribed customer, optionally attributed to the partner
// who referred it. Attribution never changes after signup.
type Company struct {
	ID                 primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BusinessName       string              `json:"businessName" bson:"businessName"`
	Email              string              `json:"email" bson:"email"`
	ReferringPartnerID *primitive.ObjectID `json:"referringPartnerId,omitempty" bson:"referringPartnerId,omitempty"`
	SubscriptionTier   string              `json:"subscriptionTier" bson:"subscriptionTier"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}
