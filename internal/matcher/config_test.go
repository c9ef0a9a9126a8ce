package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/invoice-recon/internal/parsererror"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.9, cfg.DecisiveThreshold)
	assert.Equal(t, 0.05, cfg.TieMargin)
	assert.Equal(t, 1.0, cfg.ExactScore)
	assert.Equal(t, 0.9, cfg.NormalizedScore)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{name: "zero threshold", mutate: func(c *Config) { c.DecisiveThreshold = 0 }, setting: "matching.decisive_threshold"},
		{name: "threshold above one", mutate: func(c *Config) { c.DecisiveThreshold = 1.5 }, setting: "matching.decisive_threshold"},
		{name: "negative margin", mutate: func(c *Config) { c.TieMargin = -0.1 }, setting: "matching.tie_margin"},
		{name: "margin of one", mutate: func(c *Config) { c.TieMargin = 1 }, setting: "matching.tie_margin"},
		{name: "exact score above one", mutate: func(c *Config) { c.ExactScore = 2 }, setting: "matching.exact_score"},
		{name: "normalized above exact", mutate: func(c *Config) { c.NormalizedScore = 1; c.ExactScore = 0.95 }, setting: "matching.normalized_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *parsererror.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.setting, cfgErr.Setting)

			_, err = NewEngine(cfg, nil)
			assert.True(t, parsererror.IsConfiguration(err))
		})
	}
}
