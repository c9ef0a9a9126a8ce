package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/invoice-recon/internal/config"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	cfg, err := config.InitializeConfig()
	require.NoError(t, err)
	return cfg
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		nilConfig bool
		errorMsg  string
		setting   string
	}{
		{name: "nil config", nilConfig: true, errorMsg: "configuration cannot be nil"},
		{name: "defaults", mutate: func(*config.Config) {}},
		{
			name: "json logging",
			mutate: func(c *config.Config) {
				c.Log.Level = "debug"
				c.Log.Format = "json"
			},
		},
		{
			name:    "zero threshold",
			mutate:  func(c *config.Config) { c.Matching.DecisiveThreshold = 0 },
			setting: "matching.decisive_threshold",
		},
		{
			name:    "normalized above exact",
			mutate:  func(c *config.Config) { c.Matching.ExactScore = 0.8 },
			setting: "matching.normalized_score",
		},
		{
			name:    "unknown report format",
			mutate:  func(c *config.Config) { c.Report.Format = "xlsx" },
			setting: "report.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *config.Config
			if !tt.nilConfig {
				cfg = testConfig(t)
				tt.mutate(cfg)
			}

			c, err := NewContainer(cfg)
			switch {
			case tt.errorMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, c)
			case tt.setting != "":
				var cfgErr *parsererror.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.setting, cfgErr.Setting)
			default:
				require.NoError(t, err)
				require.NotNil(t, c)
				assert.NotNil(t, c.GetLogger())
				assert.NotNil(t, c.GetParser())
				assert.NotNil(t, c.GetLoader())
				assert.NotNil(t, c.GetScanner())
				assert.NotNil(t, c.GetEngine())
				assert.NotNil(t, c.GetReportGenerator())
				assert.NotNil(t, c.GetUploadBuilder())
				assert.Same(t, cfg, c.GetConfig())
				assert.NoError(t, c.Close())
			}
		})
	}
}

func TestMatcherConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Matching.TieMargin = 0.1

	mc := MatcherConfig(cfg)
	assert.Equal(t, 0.9, mc.DecisiveThreshold)
	assert.Equal(t, 0.1, mc.TieMargin)
	assert.Equal(t, 1.0, mc.ExactScore)
	assert.Equal(t, 0.9, mc.NormalizedScore)

	logger := logging.NewMockLogger()
	c, err := NewContainerWithLogger(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, mc, c.GetEngine().Config())
	assert.True(t, logger.HasEntry("DEBUG", "Container initialized"))
}

func TestContainer_NewFilter(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		keywords    []string
		passThrough bool
		wantErr     bool
	}{
		{name: "disabled", enabled: false, keywords: []string{"rent"}, passThrough: true},
		{name: "enabled", enabled: true, keywords: []string{"rent"}},
		{name: "enabled without keywords", enabled: true, passThrough: true},
		{name: "blank keyword", enabled: true, keywords: []string{" "}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Filter.Enabled = tt.enabled
			cfg.Filter.Keywords = tt.keywords
			cfg.Filter.Mode = models.FilterExclude

			c, err := NewContainerWithLogger(cfg, logging.NewMockLogger())
			require.NoError(t, err)

			f, err := c.NewFilter()
			if tt.wantErr {
				assert.True(t, parsererror.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.passThrough, f.IsPassThrough())
		})
	}
}
