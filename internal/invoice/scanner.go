// Package invoice discovers invoice documents on disk and recovers their
// invoice numbers from the filenames.
package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/invoice-recon/internal/fileutils"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/textutils"
)

// DefaultExtensions are the document types scanned when none are configured.
var DefaultExtensions = []string{".pdf"}

// Scanner lists the invoice documents of one directory.
type Scanner struct {
	extensions []string
	logger     logging.Logger
}

// NewScanner creates a Scanner for the given extensions, compared without case.
func NewScanner(extensions []string, logger logging.Logger) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Scanner{
		extensions: extensions,
		logger:     logging.OrDefault(logger).WithField("component", "InvoiceScanner"),
	}
}

// Scan returns one Invoice per eligible file directly inside dir, in lexical
// order. Files without a digit run and files repeating an earlier invoice
// number are kept and reported through the warnings. Only an unusable dir is
// an error.
func (s *Scanner) Scan(dir string) ([]models.Invoice, []models.Warning, error) {
	info, err := os.Stat(dir)
	if err != nil {
		s.logger.WithError(err).WithField(logging.FieldFile, dir).Error("Invoice directory not accessible")
		return nil, nil, &parsererror.ConfigurationError{
			Setting: "invoices.directory",
			Value:   dir,
			Reason:  "directory not accessible",
			Err:     err,
		}
	}
	if !info.IsDir() {
		return nil, nil, &parsererror.ConfigurationError{
			Setting: "invoices.directory",
			Value:   dir,
			Reason:  "not a directory",
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, &parsererror.ConfigurationError{
			Setting: "invoices.directory",
			Value:   dir,
			Reason:  "directory not readable",
			Err:     err,
		}
	}

	invoices := []models.Invoice{}
	warnings := []models.Warning{}
	canonical := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !fileutils.HasExtension(entry.Name(), s.extensions) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		var size int64
		if fi, err := entry.Info(); err == nil {
			size = fi.Size()
		} else {
			s.logger.WithError(err).WithField(logging.FieldFile, path).Warn("Could not stat invoice file")
		}

		inv := models.NewInvoice(ExtractNumber(entry.Name()), path, entry.Name(), size)
		switch {
		case !inv.IsExtractable():
			s.logger.Warn("No invoice number in filename", logging.F(logging.FieldFile, path))
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningUnextractable,
				Source:  path,
				Message: fmt.Sprintf("no digit run in filename %q", entry.Name()),
			})
		case canonical[inv.Normalized] != "":
			inv.DuplicateOf = canonical[inv.Normalized]
			s.logger.Warn("Duplicate invoice number",
				logging.F(logging.FieldFile, path),
				logging.F(logging.FieldInvoice, inv.Number),
				logging.F(logging.FieldCanonical, inv.DuplicateOf))
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningDuplicateInvoice,
				Source:  path,
				Message: fmt.Sprintf("invoice number %s already taken by %s", inv.Number, filepath.Base(inv.DuplicateOf)),
			})
		default:
			canonical[inv.Normalized] = path
		}
		invoices = append(invoices, inv)
	}

	s.logger.Info("Scanned invoice directory",
		logging.F(logging.FieldFile, dir),
		logging.F(logging.FieldCount, len(invoices)),
		logging.F("warnings", len(warnings)))
	return invoices, warnings, nil
}

// ExtractNumber returns the longest digit run of a filename without its
// extension, or "" when there is none.
func ExtractNumber(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return textutils.LongestDigitRun(base)
}
