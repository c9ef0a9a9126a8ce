// Package currencyutils converts between statement amount notations and decimals.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var mt940Amount = regexp.MustCompile(`^\d{1,15},\d*$`)

// ParseMT940Amount parses the comma-decimal unsigned amount of an MT940 field,
// e.g. "1234,5" or "100,".
func ParseMT940Amount(s string) (decimal.Decimal, error) {
	if !mt940Amount.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid MT940 amount '%s'", s)
	}
	normalized := strings.Replace(s, ",", ".", 1)
	if strings.HasSuffix(normalized, ".") {
		normalized += "0"
	}
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid MT940 amount '%s': %w", s, err)
	}
	return amount, nil
}

// FormatMT940Amount renders the absolute value of amount with two decimals and
// a comma separator.
func FormatMT940Amount(amount decimal.Decimal) string {
	return strings.Replace(amount.Abs().StringFixed(2), ".", ",", 1)
}

// ParseAmount parses a dot-decimal amount, tolerating surrounding whitespace and
// apostrophe or space thousand separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("'", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", s, err)
	}
	return amount, nil
}

// FormatAmount renders amount with two decimals followed by the currency code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}
