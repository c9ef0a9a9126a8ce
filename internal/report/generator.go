// Package report serializes a matching run for operators and downstream tools.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"fjacquet/invoice-recon/internal/currencyutils"
	"fjacquet/invoice-recon/internal/dateutils"
	"fjacquet/invoice-recon/internal/fileutils"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// Formats lists the accepted format names.
var Formats = []string{FormatText, FormatCSV, FormatJSON}

// resultRow is one CSV line per transaction.
type resultRow struct {
	Reference   string `csv:"reference"`
	BookingDate string `csv:"booking_date"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Status      string `csv:"status"`
	Invoice     string `csv:"invoice_number"`
	InvoiceFile string `csv:"invoice_file"`
	Score       string `csv:"score"`
	Candidates  string `csv:"candidates"`
	Description string `csv:"description"`
	Source      string `csv:"source"`
}

// Generator renders reports.
type Generator struct {
	delimiter rune
	logger    logging.Logger
}

// NewGenerator creates a Generator. delimiter only affects CSV output; zero
// means a comma.
func NewGenerator(delimiter rune, logger logging.Logger) *Generator {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Generator{delimiter: delimiter, logger: logging.OrDefault(logger).WithField("component", "ReportGenerator")}
}

// ValidateFormat returns a configuration error for unknown formats.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return &parsererror.ConfigurationError{
		Setting: "report.format",
		Value:   format,
		Reason:  "must be one of " + strings.Join(Formats, ", "),
	}
}

// Write renders report to w in the given format.
func (g *Generator) Write(w io.Writer, report *models.Report, format string) error {
	if report == nil {
		return fmt.Errorf("cannot write nil report")
	}
	if err := ValidateFormat(format); err != nil {
		return err
	}
	var err error
	switch strings.ToLower(format) {
	case FormatCSV:
		err = g.writeCSV(w, report)
	case FormatJSON:
		err = g.writeJSON(w, report)
	default:
		err = g.writeText(w, report)
	}
	if err != nil {
		g.logger.WithError(err).Error("Failed to write report", logging.F(logging.FieldFormat, format))
		return fmt.Errorf("failed to write %s report: %w", format, err)
	}
	return nil
}

// WriteFile renders report into path, creating parent directories.
func (g *Generator) WriteFile(path string, report *models.Report, format string) (err error) {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	f, err := fileutils.CreateFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err = g.Write(f, report, format); err != nil {
		return err
	}
	g.logger.Info("Wrote report",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldFormat, format))
	return nil
}

func (g *Generator) writeCSV(w io.Writer, report *models.Report) error {
	rows := make([]resultRow, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, toRow(res))
	}
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = g.delimiter
	return gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter))
}

func toRow(res models.MatchResult) resultRow {
	tx := res.Transaction
	row := resultRow{
		Reference:   tx.Reference,
		BookingDate: tx.BookingDate.Format(dateutils.LayoutISO),
		Amount:      tx.Amount.StringFixed(2),
		Currency:    tx.Currency,
		Status:      string(res.Status),
		Candidates:  FormatCandidates(res.Candidates),
		Description: tx.Description,
		Source:      tx.Source,
	}
	if res.Chosen != nil {
		row.Invoice = res.Chosen.Number
		row.InvoiceFile = res.Chosen.FilePath
	}
	if top, ok := res.Top(); ok {
		row.Score = fmt.Sprintf("%.2f", top.Score)
	}
	return row
}

// FormatCandidates renders candidates as "501@1.00 777@0.90".
func FormatCandidates(cs []models.Candidate) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("%s@%.2f", c.InvoiceNumber, c.Score))
	}
	return strings.Join(parts, " ")
}

func (g *Generator) writeJSON(w io.Writer, report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func (g *Generator) writeText(w io.Writer, report *models.Report) error {
	s := report.Summary
	var b bytes.Buffer

	fmt.Fprintf(&b, "Reconciliation run %s\n", report.RunID)
	fmt.Fprintf(&b, "Transactions: %d (matched %d, ambiguous %d, unmatched %d), match rate %.1f%%\n",
		s.TotalTransactions, s.Matched, s.Ambiguous, s.Unmatched, s.MatchRate)
	fmt.Fprintf(&b, "Matched amount: %s\n", s.MatchedAmount.StringFixed(2))
	fmt.Fprintf(&b, "Invoices: %d (claimed %d, unclaimed %d, of which duplicate %d, unextractable %d)\n",
		s.TotalInvoices, s.ClaimedInvoices, s.UnclaimedInvoices, s.DuplicateInvoices, s.UnextractableInvoices)
	fmt.Fprintf(&b, "Skipped: %d records, %d files\n", s.SkippedRecords, s.SkippedFiles)

	if len(s.AmbiguousResults) > 0 {
		b.WriteString("\nAmbiguous transactions:\n")
		for _, res := range s.AmbiguousResults {
			tx := res.Transaction
			fmt.Fprintf(&b, "  %s %s %s %q\n", tx.Reference, tx.BookingDate.Format(dateutils.LayoutISO),
				currencyutils.FormatAmount(tx.Amount, tx.Currency), tx.Description)
			for _, c := range res.Candidates {
				fmt.Fprintf(&b, "    - %s (%.2f) %s\n", c.InvoiceNumber, c.Score, c.FilePath)
			}
		}
	}

	sections := []struct {
		title string
		state models.ClaimState
	}{
		{"Unclaimed invoices", models.ClaimUnclaimed},
		{"Duplicate invoices", models.ClaimDuplicate},
		{"Invoices without number", models.ClaimUnextractable},
	}
	for _, section := range sections {
		var lines []string
		for _, claim := range s.Invoices {
			if claim.State != section.state {
				continue
			}
			line := fmt.Sprintf("  %s %s", claim.Invoice.Number, claim.Invoice.FilePath)
			if claim.Invoice.Number == "" {
				line = "  " + claim.Invoice.FilePath
			}
			if claim.Invoice.DuplicateOf != "" {
				line += " (duplicate of " + claim.Invoice.DuplicateOf + ")"
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			fmt.Fprintf(&b, "\n%s:\n%s\n", section.title, strings.Join(lines, "\n"))
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, warning := range s.Warnings {
			fmt.Fprintf(&b, "  %s\n", warning)
		}
	}

	_, err := w.Write(b.Bytes())
	return err
}
