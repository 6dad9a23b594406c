package utils

import (
	"testing"
	"time"
)

func TestValidMonthRef(t *testing.T) {
	valid := []string{"2025-01", "2025-12", "1999-06"}
	for _, s := range valid {
		if !ValidMonthRef(s) {
			t.Errorf("ValidMonthRef(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "2025", "2025-13", "2025-00", "2025-1", "06-2025", "2025-06-01"}
	for _, s := range invalid {
		if ValidMonthRef(s) {
			t.Errorf("ValidMonthRef(%q) = true, want false", s)
		}
	}
}

func TestPeriodOf(t *testing.T) {
	ts := time.Date(2025, time.June, 17, 23, 59, 0, 0, time.UTC)
	if got := PeriodOf(ts); got != "2025-06" {
		t.Errorf("PeriodOf = %q, want 2025-06", got)
	}
}

func TestMonthRefTime(t *testing.T) {
	ts, err := MonthRefTime("2025-06")
	if err != nil {
		t.Fatalf("MonthRefTime: %v", err)
	}
	want := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("MonthRefTime = %v, want %v", ts, want)
	}
	if _, err := MonthRefTime("bogus"); err == nil {
		t.Error("MonthRefTime accepted a malformed ref")
	}
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := GeneratePartnerReferralCode()
	if err != nil {
		t.Fatalf("GeneratePartnerReferralCode: %v", err)
	}
	if len(code) != 10 || code[:4] != "PTR-" {
		t.Errorf("code = %q, want PTR- prefix and 10 chars", code)
	}
}
