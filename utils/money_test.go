package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundMinor(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"no rounding needed", "20.00", "EUR", "20"},
		{"half rounds to even down", "0.625", "EUR", "0.62"},
		{"half rounds to even up", "0.635", "EUR", "0.64"},
		{"above half rounds up", "1.6665", "EUR", "1.67"},
		{"below half rounds down", "1.664", "EUR", "1.66"},
		{"zero-digit currency", "104.5", "JPY", "104"},
		{"three-digit currency", "1.0625", "KWD", "1.062"},
		{"lowercase currency code", "0.625", "eur", "0.62"},
		{"unknown currency defaults to two digits", "0.625", "XXX", "0.62"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundMinor(decimal.RequireFromString(tt.amount), tt.currency)
			if got.String() != tt.want {
				t.Errorf("RoundMinor(%s, %s) = %s, want %s", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestMinorUnitDigits(t *testing.T) {
	if got := MinorUnitDigits("JPY"); got != 0 {
		t.Errorf("JPY digits = %d, want 0", got)
	}
	if got := MinorUnitDigits("BHD"); got != 3 {
		t.Errorf("BHD digits = %d, want 3", got)
	}
	if got := MinorUnitDigits("USD"); got != 2 {
		t.Errorf("USD digits = %d, want 2", got)
	}
}
