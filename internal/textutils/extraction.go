// Package textutils provides text extraction helpers for statement narratives
// and invoice filenames.
package textutils

import (
	"regexp"
	"strings"
)

// SEPAFields are the structured sub-fields banks embed in MT940 :86: narratives.
type SEPAFields struct {
	TransactionType string
	Name            string
	Remittance      string
	IBAN            string
	EndToEndRef     string
}

var sepaPatterns = map[string]*regexp.Regexp{
	"TRTP": regexp.MustCompile(`/TRTP/([^/]+)`),
	"NAME": regexp.MustCompile(`/NAME/([^/]+)`),
	"REMI": regexp.MustCompile(`/REMI/([^/]+)`),
	"IBAN": regexp.MustCompile(`/IBAN/([^/]+)`),
	"EREF": regexp.MustCompile(`/EREF/([^/]+)`),
}

// ExtractSEPAFields pulls the /TAG/value pairs out of a narrative. Missing tags
// are left empty.
func ExtractSEPAFields(narrative string) SEPAFields {
	return SEPAFields{
		TransactionType: extractTag(narrative, "TRTP"),
		Name:            extractTag(narrative, "NAME"),
		Remittance:      extractTag(narrative, "REMI"),
		IBAN:            extractTag(narrative, "IBAN"),
		EndToEndRef:     extractTag(narrative, "EREF"),
	}
}

func extractTag(narrative, tag string) string {
	matches := sepaPatterns[tag].FindStringSubmatch(narrative)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// LongestDigitRun returns the longest run of ASCII digits in s. When several
// runs share the maximum length the leftmost one wins.
func LongestDigitRun(s string) string {
	bestStart, bestLen := 0, 0
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && IsASCIIDigit(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start > bestLen {
				bestStart, bestLen = start, i-start
			}
			start = -1
		}
	}
	return s[bestStart : bestStart+bestLen]
}

// IsASCIIDigit reports whether b is '0'..'9'.
func IsASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// IsASCIIDigits reports whether s is non-empty and made of ASCII digits only.
func IsASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsASCIIDigit(s[i]) {
			return false
		}
	}
	return true
}

// Snippet shortens s to at most n runes for error messages.
func Snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// ContainsKeyword reports whether text contains keyword, optionally ignoring case.
func ContainsKeyword(text, keyword string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(text, keyword)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}
