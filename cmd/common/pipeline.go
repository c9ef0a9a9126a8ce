// Package common contains the reconciliation pipeline shared by command handlers.
package common

import (
	"context"
	"errors"
	"io"
	"slices"

	"fjacquet/invoice-recon/internal/container"
	"fjacquet/invoice-recon/internal/filter"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/report"
	"fjacquet/invoice-recon/internal/statement"
	"fjacquet/invoice-recon/internal/upload"
)

// MatchOptions are the per-run inputs of the match command. Empty fields fall
// back to configuration.
type MatchOptions struct {
	Statements []string
	InvoiceDir string
	Format     string
	Output     string
	UploadDir  string

	Keywords   []string
	FilterMode string
	// CaseSensitive overrides filter.case_sensitive when set.
	CaseSensitive *bool
}

// Outcome is everything a match run produced.
type Outcome struct {
	Load    *statement.LoadResult
	Report  *models.Report
	Package *upload.Package
}

// Reconcile loads statements, filters them, scans invoices, matches and writes
// the report to Output, or to stdout when Output is empty. An upload package
// is built when an upload directory is set and at least one match exists.
func Reconcile(ctx context.Context, c *container.Container, opts MatchOptions, stdout io.Writer) (*Outcome, error) {
	cfg := c.GetConfig()
	log := c.GetLogger()

	if len(opts.Statements) == 0 {
		return nil, &parsererror.ConfigurationError{Setting: "statements", Reason: "no statement files given"}
	}
	invoiceDir := firstNonEmpty(opts.InvoiceDir, cfg.Invoices.Directory)
	if invoiceDir == "" {
		return nil, &parsererror.ConfigurationError{Setting: "invoices.directory", Reason: "no invoice directory given"}
	}
	format := firstNonEmpty(opts.Format, cfg.Report.Format)
	if err := report.ValidateFormat(format); err != nil {
		return nil, err
	}

	paths, err := statement.ExpandPaths(opts.Statements, cfg.Statements.Extensions)
	if err != nil {
		return nil, err
	}
	loaded, err := c.GetLoader().LoadFiles(paths)
	if err != nil {
		return nil, err
	}

	f, err := newFilter(c, opts)
	if err != nil {
		return nil, err
	}
	txs := slices.AppendSeq([]models.Transaction{}, f.Seq(slices.Values(loaded.Transactions)))
	if !f.IsPassThrough() {
		log.Info("Filtered transactions",
			logging.F(logging.FieldCount, len(txs)),
			logging.F("dropped", len(loaded.Transactions)-len(txs)))
	}

	invoices, scanWarnings, err := c.GetScanner().Scan(invoiceDir)
	if err != nil {
		return nil, err
	}

	rep, err := c.GetEngine().Match(txs, invoices)
	if err != nil {
		return nil, err
	}
	rep.AddWarnings(loaded.Warnings...)
	rep.AddWarnings(scanWarnings...)

	gen := c.GetReportGenerator()
	if opts.Output == "" {
		err = gen.Write(stdout, rep, format)
	} else {
		err = gen.WriteFile(opts.Output, rep, format)
	}
	if err != nil {
		return nil, err
	}

	out := &Outcome{Load: loaded, Report: rep}
	uploadDir := firstNonEmpty(opts.UploadDir, cfg.Upload.Directory)
	if uploadDir == "" {
		return out, nil
	}
	pkg, err := c.GetUploadBuilder().Build(ctx, rep, uploadDir)
	switch {
	case errors.Is(err, upload.ErrNoMatches):
		log.Warn("No matched transactions, upload package skipped", logging.F(logging.FieldOutputDir, uploadDir))
	case err != nil:
		return nil, err
	default:
		out.Package = pkg
	}
	return out, nil
}

// newFilter prefers keywords given on the command line over the configured filter.
func newFilter(c *container.Container, opts MatchOptions) (*filter.Filter, error) {
	if len(opts.Keywords) == 0 {
		return c.NewFilter()
	}
	caseSensitive := c.GetConfig().Filter.CaseSensitive
	if opts.CaseSensitive != nil {
		caseSensitive = *opts.CaseSensitive
	}
	return filter.NewWithLogger(models.FilterCriteria{
		Keywords:      opts.Keywords,
		Mode:          firstNonEmpty(opts.FilterMode, c.GetConfig().Filter.Mode),
		CaseSensitive: caseSensitive,
	}, c.GetLogger())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
