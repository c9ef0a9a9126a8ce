// Package dateutils holds the date layouts used by statement formats.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

const (
	LayoutISO      = "2006-01-02"
	LayoutMT940    = "060102"
	LayoutMT940Day = "0102"
	LayoutDateTime = "2006-01-02T15:04:05"
)

// ParseMT940Date parses a YYMMDD date. Two-digit years follow time.Parse rules.
func ParseMT940Date(s string) (time.Time, error) {
	t, err := time.Parse(LayoutMT940, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid MT940 date '%s': %w", s, err)
	}
	return t, nil
}

// FormatMT940Date renders t as YYMMDD.
func FormatMT940Date(t time.Time) string {
	return t.Format(LayoutMT940)
}

// ResolveEntryDate places an MMDD entry date in the year closest to the value
// date, so a December booking with a January value date lands in the previous
// year.
func ResolveEntryDate(valueDate time.Time, mmdd string) (time.Time, error) {
	md, err := time.Parse(LayoutMT940Day, mmdd)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid MT940 entry date '%s': %w", mmdd, err)
	}
	best := time.Time{}
	for _, year := range []int{valueDate.Year() - 1, valueDate.Year(), valueDate.Year() + 1} {
		candidate := time.Date(year, md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
		if candidate.Month() != md.Month() {
			// Feb 29 outside a leap year.
			continue
		}
		if best.IsZero() || absDuration(candidate.Sub(valueDate)) < absDuration(best.Sub(valueDate)) {
			best = candidate
		}
	}
	if best.IsZero() {
		return time.Time{}, fmt.Errorf("entry date '%s' does not exist near %s", mmdd, valueDate.Format(LayoutISO))
	}
	return best, nil
}

// ParseISODate accepts "2006-01-02" and date-times starting with it, as found in
// CAMT.053 BookgDt/ValDt elements.
func ParseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(LayoutISO) {
		return time.Time{}, fmt.Errorf("invalid ISO date '%s'", s)
	}
	t, err := time.Parse(LayoutISO, s[:len(LayoutISO)])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO date '%s': %w", s, err)
	}
	return t, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
