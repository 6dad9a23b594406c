package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/models"
)

// testConfig returns the documented default configuration, the same
// numbers LoadEngineConfig falls back to without environment overrides
func testConfig() config.EngineConfig {
	return config.EngineConfig{
		DirectRate:     decimal.RequireFromString("0.20"),
		DirectRatePlus: decimal.RequireFromString("0.22"),
		UplineRate:     decimal.RequireFromString("0.20"),
		SalesRepRate:   decimal.RequireFromString("0.05"),

		MultiLevelEnabled: true,
		UplineMaxHops:     2,

		PartnerBounty: decimal.RequireFromString("50.00"),
		CompanyBounty: decimal.RequireFromString("25.00"),

		BountyMinCompanies: 3,
		BountyMinDays:      30,
		BountyRequiresKYC:  true,

		PlusTierMinCompanies: 10,
		PlusTierMinMRR:       decimal.RequireFromString("500.00"),
		PlusTierMinMonths:    3,

		ClawbackDays:       30,
		AutoClawbackRefund: true,
		AutoClawbackCancel: false,

		PayoutMin:      decimal.RequireFromString("100.00"),
		PayoutDay:      1,
		PayoutTime:     "03:00",
		PayoutCurrency: "EUR",
	}
}

func TestRatesFor(t *testing.T) {
	table := NewRateTable(testConfig())

	t.Run("standard tier", func(t *testing.T) {
		rates, err := table.RatesFor(models.TierStandard, true)
		if err != nil {
			t.Fatalf("RatesFor: %v", err)
		}
		if got := rates.Direct.String(); got != "0.2" {
			t.Errorf("direct rate = %s, want 0.2", got)
		}
		if got := rates.Upline.String(); got != "0.2" {
			t.Errorf("upline rate = %s, want 0.2", got)
		}
		if got := rates.SalesRep.String(); got != "0.05" {
			t.Errorf("sales rep rate = %s, want 0.05", got)
		}
	})

	t.Run("plus tier direct rate", func(t *testing.T) {
		rates, err := table.RatesFor(models.TierPlus, true)
		if err != nil {
			t.Fatalf("RatesFor: %v", err)
		}
		if got := rates.Direct.String(); got != "0.22" {
			t.Errorf("direct rate = %s, want 0.22", got)
		}
	})

	t.Run("multi-level disabled zeroes upline", func(t *testing.T) {
		rates, err := table.RatesFor(models.TierStandard, false)
		if err != nil {
			t.Fatalf("RatesFor: %v", err)
		}
		if !rates.Upline.IsZero() {
			t.Errorf("upline rate = %s, want 0", rates.Upline)
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := table.RatesFor(models.PartnerTier("gold"), true)
		if !errors.Is(err, models.ErrUnknownTier) {
			t.Errorf("err = %v, want ErrUnknownTier", err)
		}
	})
}

func TestBountyAmounts(t *testing.T) {
	table := NewRateTable(testConfig())
	if got := table.CompanyBounty().StringFixed(2); got != "25.00" {
		t.Errorf("company bounty = %s, want 25.00", got)
	}
	if got := table.PartnerBounty().StringFixed(2); got != "50.00" {
		t.Errorf("partner bounty = %s, want 50.00", got)
	}
}
