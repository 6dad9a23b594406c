// utils/period.go
package utils

import (
	"fmt"
	"time"
)

// ValidMonthRef reports whether s is a well-formed "YYYY-MM" period.
// Periods compare correctly as plain strings, which the payable queries
// rely on.
func ValidMonthRef(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// PeriodOf formats a time as its "YYYY-MM" period
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}

// MonthRefTime parses a "YYYY-MM" period into the first instant of that
// month in UTC
func MonthRefTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month ref %q: %w", s, err)
	}
	return t, nil
}
