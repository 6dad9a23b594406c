// services/rate_table.go
package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// Rates holds the commission fractions applied to one payment event.
// Every fraction applies to the subscription amount itself: the upline
// rate is additive to the direct rate, not a split of it, so the summed
// payout can exceed the direct share alone. That mirrors the configured
// business policy and is intentional.
type Rates struct {
	Direct   decimal.Decimal
	Upline   decimal.Decimal
	SalesRep decimal.Decimal
}

// RateTable is a pure lookup over an injected, immutable configuration.
// Construct one per test with whatever rates the scenario needs; nothing
// here reads the environment.
type RateTable struct {
	cfg config.EngineConfig
}

// NewRateTable creates a rate table over the given configuration
func NewRateTable(cfg config.EngineConfig) *RateTable {
	return &RateTable{cfg: cfg}
}

// RatesFor returns the rates for a partner tier. The upline rate is zero
// unless multi-level commissions are enabled.
func (t *RateTable) RatesFor(tier models.PartnerTier, multiLevel bool) (Rates, error) {
	var direct decimal.Decimal
	switch tier {
	case models.TierStandard:
		direct = t.cfg.DirectRate
	case models.TierPlus:
		direct = t.cfg.DirectRatePlus
	default:
		return Rates{}, fmt.Errorf("%w: %q", models.ErrUnknownTier, tier)
	}

	rates := Rates{
		Direct:   direct,
		SalesRep: t.cfg.SalesRepRate,
	}
	if multiLevel {
		rates.Upline = t.cfg.UplineRate
	}
	return rates, nil
}

// CompanyBounty is the flat one-time amount for a referred company signup
func (t *RateTable) CompanyBounty() decimal.Decimal {
	return t.cfg.CompanyBounty
}

// PartnerBounty is the flat one-time amount for an activated partner,
// gated by eligibility
func (t *RateTable) PartnerBounty() decimal.Decimal {
	return t.cfg.PartnerBounty
}
