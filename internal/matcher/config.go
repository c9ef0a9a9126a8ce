package matcher

import (
	"fmt"

	"fjacquet/invoice-recon/internal/parsererror"
)

// Config holds the scoring and classification parameters.
type Config struct {
	// DecisiveThreshold is the minimum score of a Matched top candidate.
	DecisiveThreshold float64 `mapstructure:"decisive_threshold"`
	// TieMargin is the score distance within which two candidates tie.
	TieMargin float64 `mapstructure:"tie_margin"`
	// ExactScore is given when the description token equals the invoice digits.
	ExactScore float64 `mapstructure:"exact_score"`
	// NormalizedScore is given when they are equal only after dropping leading zeros.
	NormalizedScore float64 `mapstructure:"normalized_score"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DecisiveThreshold: 0.9,
		TieMargin:         0.05,
		ExactScore:        1.0,
		NormalizedScore:   0.9,
	}
}

// Validate checks that all values are usable.
func (c Config) Validate() error {
	checks := []struct {
		setting string
		value   float64
		ok      bool
		reason  string
	}{
		{"matching.decisive_threshold", c.DecisiveThreshold, c.DecisiveThreshold > 0 && c.DecisiveThreshold <= 1, "must be in (0, 1]"},
		{"matching.tie_margin", c.TieMargin, c.TieMargin >= 0 && c.TieMargin < 1, "must be in [0, 1)"},
		{"matching.exact_score", c.ExactScore, c.ExactScore > 0 && c.ExactScore <= 1, "must be in (0, 1]"},
		{"matching.normalized_score", c.NormalizedScore, c.NormalizedScore > 0 && c.NormalizedScore <= c.ExactScore, "must be in (0, exact_score]"},
	}
	for _, check := range checks {
		if !check.ok {
			return &parsererror.ConfigurationError{
				Setting: check.setting,
				Value:   fmt.Sprintf("%g", check.value),
				Reason:  check.reason,
			}
		}
	}
	return nil
}
