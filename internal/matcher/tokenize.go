package matcher

import (
	"unicode"

	"fjacquet/invoice-recon/internal/textutils"
)

// numberTokens returns the maximal alphanumeric runs of text that consist of
// ASCII digits only. A digit run glued to a letter or another digit is part of
// a larger token and never surfaces on its own, so "123" is not found in
// "41235" or "INV123" but is found in "INV-123".
func numberTokens(text string) []string {
	var tokens []string
	start := -1
	flush := func(end int) {
		if start >= 0 {
			if tok := text[start:end]; textutils.IsASCIIDigits(tok) {
				tokens = append(tokens, tok)
			}
			start = -1
		}
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}
