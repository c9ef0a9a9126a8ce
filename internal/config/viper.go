// Package config loads the reconciliation settings through viper: defaults,
// an optional config.yaml and RECON_* environment overrides, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
)

// EnvPrefix prefixes every environment override, e.g. RECON_MATCHING_TIE_MARGIN.
const EnvPrefix = "RECON"

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Statements struct {
		Extensions      []string `mapstructure:"extensions" yaml:"extensions"`
		Encoding        string   `mapstructure:"encoding" yaml:"encoding"`
		DefaultCurrency string   `mapstructure:"default_currency" yaml:"default_currency"`
		FailFast        bool     `mapstructure:"fail_fast" yaml:"fail_fast"`
		Dedupe          bool     `mapstructure:"dedupe" yaml:"dedupe"`
	} `mapstructure:"statements" yaml:"statements"`

	Invoices struct {
		Directory  string   `mapstructure:"directory" yaml:"directory"`
		Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	} `mapstructure:"invoices" yaml:"invoices"`

	Filter struct {
		Enabled       bool     `mapstructure:"enabled" yaml:"enabled"`
		Keywords      []string `mapstructure:"keywords" yaml:"keywords"`
		Mode          string   `mapstructure:"mode" yaml:"mode"`
		CaseSensitive bool     `mapstructure:"case_sensitive" yaml:"case_sensitive"`
	} `mapstructure:"filter" yaml:"filter"`

	Matching struct {
		DecisiveThreshold float64 `mapstructure:"decisive_threshold" yaml:"decisive_threshold"`
		TieMargin         float64 `mapstructure:"tie_margin" yaml:"tie_margin"`
		ExactScore        float64 `mapstructure:"exact_score" yaml:"exact_score"`
		NormalizedScore   float64 `mapstructure:"normalized_score" yaml:"normalized_score"`
	} `mapstructure:"matching" yaml:"matching"`

	Report struct {
		Format    string `mapstructure:"format" yaml:"format"`
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"report" yaml:"report"`

	Upload struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
		Workers   int    `mapstructure:"workers" yaml:"workers"`
		Account   string `mapstructure:"account" yaml:"account"`
	} `mapstructure:"upload" yaml:"upload"`
}

// InitializeConfig loads configuration from the default search path.
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration. When configFile is empty, config.yaml is searched in
// $HOME/.invoice-recon, ./.invoice-recon and the working directory; a missing
// file is not an error. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.invoice-recon")
		v.AddConfigPath(".invoice-recon")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, &parsererror.ConfigurationError{
				Setting: "config",
				Value:   configFile,
				Reason:  "cannot read configuration file",
				Err:     err,
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("statements.extensions", []string{".sta", ".mt940", ".940", ".txt", ".xml"})
	v.SetDefault("statements.encoding", "utf-8")
	v.SetDefault("statements.default_currency", "EUR")
	v.SetDefault("statements.fail_fast", false)
	v.SetDefault("statements.dedupe", true)

	v.SetDefault("invoices.directory", "")
	v.SetDefault("invoices.extensions", []string{".pdf"})

	v.SetDefault("filter.enabled", false)
	v.SetDefault("filter.keywords", []string{})
	v.SetDefault("filter.mode", models.FilterInclude)
	v.SetDefault("filter.case_sensitive", false)

	v.SetDefault("matching.decisive_threshold", 0.9)
	v.SetDefault("matching.tie_margin", 0.05)
	v.SetDefault("matching.exact_score", 1.0)
	v.SetDefault("matching.normalized_score", 0.9)

	v.SetDefault("report.format", "text")
	v.SetDefault("report.delimiter", ",")

	v.SetDefault("upload.directory", "")
	v.SetDefault("upload.workers", 4)
	v.SetDefault("upload.account", "")
}

func validateConfig(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return invalid("log.level", cfg.Log.Level, "unknown log level")
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return invalid("log.format", cfg.Log.Format, "must be 'text' or 'json'")
	}
	if len(cfg.Statements.Extensions) == 0 {
		return invalid("statements.extensions", "", "at least one extension is required")
	}
	if len(cfg.Statements.DefaultCurrency) != 3 {
		return invalid("statements.default_currency", cfg.Statements.DefaultCurrency, "must be an ISO 4217 code")
	}
	if len(cfg.Invoices.Extensions) == 0 {
		return invalid("invoices.extensions", "", "at least one extension is required")
	}
	if cfg.Filter.Mode != models.FilterInclude && cfg.Filter.Mode != models.FilterExclude {
		return invalid("filter.mode", cfg.Filter.Mode, "must be 'include' or 'exclude'")
	}
	for _, kw := range cfg.Filter.Keywords {
		if strings.TrimSpace(kw) == "" {
			return invalid("filter.keywords", kw, "keywords must not be blank")
		}
	}
	for key, value := range map[string]float64{
		"matching.decisive_threshold": cfg.Matching.DecisiveThreshold,
		"matching.tie_margin":         cfg.Matching.TieMargin,
		"matching.exact_score":        cfg.Matching.ExactScore,
		"matching.normalized_score":   cfg.Matching.NormalizedScore,
	} {
		if value < 0 || value > 1 {
			return invalid(key, strconv.FormatFloat(value, 'f', -1, 64), "must be between 0.0 and 1.0")
		}
	}
	switch cfg.Report.Format {
	case "text", "csv", "json":
	default:
		return invalid("report.format", cfg.Report.Format, "must be 'text', 'csv' or 'json'")
	}
	if len([]rune(cfg.Report.Delimiter)) != 1 {
		return invalid("report.delimiter", cfg.Report.Delimiter, "must be a single character")
	}
	if cfg.Upload.Workers < 1 || cfg.Upload.Workers > 64 {
		return invalid("upload.workers", strconv.Itoa(cfg.Upload.Workers), "must be between 1 and 64")
	}
	return nil
}

func invalid(setting, value, reason string) error {
	return &parsererror.ConfigurationError{Setting: setting, Value: value, Reason: reason}
}

// FilterCriteria returns the configured keyword filter. A disabled filter yields
// empty criteria, which pass every transaction through.
func (c *Config) FilterCriteria() models.FilterCriteria {
	if !c.Filter.Enabled {
		return models.FilterCriteria{Mode: c.Filter.Mode}
	}
	return models.FilterCriteria{
		Keywords:      append([]string(nil), c.Filter.Keywords...),
		Mode:          c.Filter.Mode,
		CaseSensitive: c.Filter.CaseSensitive,
	}
}

// ReportDelimiter returns the CSV delimiter as a rune.
func (c *Config) ReportDelimiter() rune {
	for _, r := range c.Report.Delimiter {
		return r
	}
	return ','
}
