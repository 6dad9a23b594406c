// services/eligibility.go
package services

import (
	"time"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// EligibilityEvaluator decides partner tier and bounty eligibility from
// metrics snapshots. It is a pure decision function: it never writes
// Partner.Tier, the caller persists the result after evaluating.
type EligibilityEvaluator struct {
	cfg config.EngineConfig
}

// NewEligibilityEvaluator creates an evaluator over the given thresholds
func NewEligibilityEvaluator(cfg config.EngineConfig) *EligibilityEvaluator {
	return &EligibilityEvaluator{cfg: cfg}
}

// TierFor returns plus only when all three thresholds hold: company
// count, trailing MRR and account age
func (e *EligibilityEvaluator) TierFor(snapshot models.PartnerMetricsSnapshot) models.PartnerTier {
	if snapshot.ActiveCompanyCount >= e.cfg.PlusTierMinCompanies &&
		snapshot.TrailingMRR.Decimal.GreaterThanOrEqual(e.cfg.PlusTierMinMRR) &&
		snapshot.MonthsSinceSignup >= e.cfg.PlusTierMinMonths {
		return models.TierPlus
	}
	return models.TierStandard
}

// BountyEligible reports whether the activation bounty is due: either the
// company count or the account age threshold suffices, and KYC must be
// verified when the configuration requires it. Account age is measured in
// days from partner creation, which is why this takes a reference time.
func (e *EligibilityEvaluator) BountyEligible(partner models.Partner, snapshot models.PartnerMetricsSnapshot, now time.Time) bool {
	if e.cfg.BountyRequiresKYC && !partner.KYCVerified {
		return false
	}

	daysSinceSignup := int(now.Sub(partner.CreatedAt).Hours() / 24)
	return snapshot.ActiveCompanyCount >= e.cfg.BountyMinCompanies ||
		daysSinceSignup >= e.cfg.BountyMinDays
}
