// utils/money.go
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnits maps ISO 4217 currency codes to their number of minor-unit
// digits. Anything unlisted uses two.
var minorUnits = map[string]int32{
	"BHD": 3,
	"JOD": 3,
	"KWD": 3,
	"TND": 3,
	"JPY": 0,
	"KRW": 0,
	"ISK": 0,
}

// MinorUnitDigits returns the minor-unit digit count for a currency code
func MinorUnitDigits(currency string) int32 {
	if d, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return d
	}
	return 2
}

// RoundMinor rounds an amount to the currency's minor unit using
// round-half-even. Rounding happens exactly once per commission entry;
// intermediate products are never rounded, so the direct, upline and
// sales-rep shares do not compound rounding error.
func RoundMinor(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.RoundBank(MinorUnitDigits(currency))
}
