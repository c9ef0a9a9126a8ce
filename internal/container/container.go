// Package container wires the reconciliation components from configuration.
// Commands ask the container for collaborators instead of constructing them,
// so every component shares one logger and one view of the settings.
package container

import (
	"fmt"

	"fjacquet/invoice-recon/internal/config"
	"fjacquet/invoice-recon/internal/filter"
	"fjacquet/invoice-recon/internal/invoice"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/matcher"
	"fjacquet/invoice-recon/internal/report"
	"fjacquet/invoice-recon/internal/statement"
	"fjacquet/invoice-recon/internal/upload"
)

// Container holds all application dependencies. It is immutable after
// creation; fields are reached through getters only.
type Container struct {
	logger logging.Logger
	config *config.Config

	parser    *statement.Parser
	loader    *statement.Loader
	scanner   *invoice.Scanner
	engine    *matcher.Engine
	generator *report.Generator
	uploader  *upload.Builder
}

// NewContainer creates and wires all application dependencies with a logger
// built from cfg.Log.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, config.NewLogger(cfg))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger = logging.OrDefault(logger)

	parser := statement.NewParser(statement.Options{
		Encoding:        cfg.Statements.Encoding,
		DefaultCurrency: cfg.Statements.DefaultCurrency,
	}, logger)

	loader := statement.NewLoader(parser, statement.LoaderOptions{
		FailFast: cfg.Statements.FailFast,
		Dedupe:   cfg.Statements.Dedupe,
	}, logger)

	engine, err := matcher.NewEngine(MatcherConfig(cfg), logger)
	if err != nil {
		return nil, err
	}

	if err := report.ValidateFormat(cfg.Report.Format); err != nil {
		return nil, err
	}

	writerOpts := statement.DefaultWriterOptions()
	writerOpts.Account = cfg.Upload.Account

	c := &Container{
		logger:    logger,
		config:    cfg,
		parser:    parser,
		loader:    loader,
		scanner:   invoice.NewScanner(cfg.Invoices.Extensions, logger),
		engine:    engine,
		generator: report.NewGenerator(cfg.ReportDelimiter(), logger),
		uploader:  upload.NewBuilder(upload.Options{Workers: cfg.Upload.Workers, Statement: writerOpts}, logger),
	}

	logger.Debug("Container initialized",
		logging.F(logging.FieldFormat, cfg.Report.Format),
		logging.F("decisive_threshold", cfg.Matching.DecisiveThreshold),
		logging.F("tie_margin", cfg.Matching.TieMargin))
	return c, nil
}

// MatcherConfig maps the matching section onto the engine configuration.
func MatcherConfig(cfg *config.Config) matcher.Config {
	return matcher.Config{
		DecisiveThreshold: cfg.Matching.DecisiveThreshold,
		TieMargin:         cfg.Matching.TieMargin,
		ExactScore:        cfg.Matching.ExactScore,
		NormalizedScore:   cfg.Matching.NormalizedScore,
	}
}

// NewFilter builds a keyword filter from the configured criteria.
func (c *Container) NewFilter() (*filter.Filter, error) {
	return filter.NewWithLogger(c.config.FilterCriteria(), c.logger)
}

func (c *Container) GetLogger() logging.Logger { return c.logger }

func (c *Container) GetConfig() *config.Config { return c.config }

func (c *Container) GetParser() *statement.Parser { return c.parser }

func (c *Container) GetLoader() *statement.Loader { return c.loader }

func (c *Container) GetScanner() *invoice.Scanner { return c.scanner }

func (c *Container) GetEngine() *matcher.Engine { return c.engine }

func (c *Container) GetReportGenerator() *report.Generator { return c.generator }

func (c *Container) GetUploadBuilder() *upload.Builder { return c.uploader }

// Close releases container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
