// config/engine.go
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// EngineConfig is the full commission configuration surface. It is read
// from the environment once at startup and passed into the services by
// value; nothing mutates it afterwards, so tests can construct arbitrary
// tables without touching the environment.
type EngineConfig struct {
	// Percentage rates, expressed as fractions of the subscription amount.
	DirectRate     decimal.Decimal
	DirectRatePlus decimal.Decimal
	// UplineRate applies to the subscription amount itself, additive to
	// the direct share. It is not a split of the direct commission; the
	// summed payout can exceed the direct rate alone. Deliberate policy,
	// see DESIGN.md.
	UplineRate   decimal.Decimal
	SalesRepRate decimal.Decimal

	MultiLevelEnabled bool
	UplineMaxHops     int

	// One-time bounties.
	PartnerBounty decimal.Decimal
	CompanyBounty decimal.Decimal

	// Bounty eligibility: (companies >= min OR days >= min) AND kyc when
	// required.
	BountyMinCompanies int
	BountyMinDays      int
	BountyRequiresKYC  bool

	// Plus tier thresholds, all three required.
	PlusTierMinCompanies int
	PlusTierMinMRR       decimal.Decimal
	PlusTierMinMonths    int

	// Clawback policy.
	ClawbackDays       int
	AutoClawbackRefund bool
	AutoClawbackCancel bool

	// Payout batching.
	PayoutMin      decimal.Decimal
	PayoutDay      int
	PayoutTime     string
	PayoutCurrency string
}

// LoadEngineConfig reads the commission configuration from environment
// variables, falling back to the documented defaults
func LoadEngineConfig() EngineConfig {
	return EngineConfig{
		DirectRate:     getEnvDecimal("DIRECT_RATE", "0.20"),
		DirectRatePlus: getEnvDecimal("DIRECT_RATE_PLUS", "0.22"),
		UplineRate:     getEnvDecimal("UPLINE_RATE", "0.20"),
		SalesRepRate:   getEnvDecimal("SALES_REP_RATE", "0.05"),

		MultiLevelEnabled: getEnvBool("MULTI_LEVEL_ENABLED", true),
		UplineMaxHops:     getEnvInt("UPLINE_MAX_HOPS", 2),

		PartnerBounty: getEnvDecimal("PARTNER_BOUNTY", "50.00"),
		CompanyBounty: getEnvDecimal("COMPANY_BOUNTY", "25.00"),

		BountyMinCompanies: getEnvInt("BOUNTY_MIN_COMPANIES", 3),
		BountyMinDays:      getEnvInt("BOUNTY_MIN_DAYS", 30),
		BountyRequiresKYC:  getEnvBool("BOUNTY_REQUIRES_KYC", true),

		PlusTierMinCompanies: getEnvInt("PLUS_TIER_MIN_COMPANIES", 10),
		PlusTierMinMRR:       getEnvDecimal("PLUS_TIER_MIN_MRR", "500.00"),
		PlusTierMinMonths:    getEnvInt("PLUS_TIER_MIN_MONTHS", 3),

		ClawbackDays:       getEnvInt("CLAWBACK_DAYS", 30),
		AutoClawbackRefund: getEnvBool("AUTO_CLAWBACK_REFUND", true),
		AutoClawbackCancel: getEnvBool("AUTO_CLAWBACK_CANCEL", false),

		PayoutMin:      getEnvDecimal("PAYOUT_MIN", "100.00"),
		PayoutDay:      getEnvInt("PAYOUT_DAY", 1),
		PayoutTime:     getEnv("PAYOUT_TIME", "03:00"),
		PayoutCurrency: getEnv("PAYOUT_CURRENCY", "EUR"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default %t", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default %s", key, v, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
