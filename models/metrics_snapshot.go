// models/metrics_snapshot.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartnerMetricsSnapshot is the out-of-band aggregate the eligibility
// evaluator reads. It is refreshed by the metrics collaborator, never
// written by the engine itself.
type PartnerMetricsSnapshot struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PartnerID          primitive.ObjectID `json:"partnerId" bson:"partnerId"`
	ActiveCompanyCount int                `json:"activeCompanyCount" bson:"activeCompanyCount"`
	TrailingMRR        Money              `json:"trailingMrr" bson:"trailingMrr"`
	MonthsSinceSignup  int                `json:"monthsSinceSignup" bson:"monthsSinceSignup"`
	ComputedAt         time.Time          `json:"computedAt" bson:"computedAt"`
}
