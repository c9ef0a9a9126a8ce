// Package upload assembles the bundle handed to the accounting system: an
// MT940 statement of the matched transactions, a copy of every chosen invoice
// document and a YAML manifest tying the two together.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gopkg.in/yaml.v3"

	"fjacquet/invoice-recon/internal/dateutils"
	"fjacquet/invoice-recon/internal/fileutils"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/statement"
)

// File and directory names inside a package.
const (
	StatementFileName = "matched_transactions.STA"
	ManifestFileName  = "manifest.yaml"
	DocumentsDirName  = "pdfs"
	dirPrefix         = "upload-"
)

// ErrNoMatches is returned when a report has no matched transaction.
var ErrNoMatches = errors.New("no matched transactions to package")

// Options configure a Builder.
type Options struct {
	// Workers bounds the number of concurrent document copies.
	Workers int
	// Statement configures the generated MT940 file.
	Statement statement.WriterOptions
}

// TransactionLink maps one matched transaction to its invoice.
type TransactionLink struct {
	Reference     string `yaml:"reference"`
	BookingDate   string `yaml:"booking_date"`
	Amount        string `yaml:"amount"`
	Currency      string `yaml:"currency"`
	InvoiceNumber string `yaml:"invoice_number"`
}

// CopyFailure records an invoice document that could not be copied.
type CopyFailure struct {
	InvoiceNumber string `yaml:"invoice_number"`
	Source        string `yaml:"source"`
	Error         string `yaml:"error"`
}

// Package describes a built upload directory. It is also the manifest layout.
type Package struct {
	RunID         string            `yaml:"run_id"`
	CreatedAt     time.Time         `yaml:"created_at"`
	Directory     string            `yaml:"-"`
	StatementFile string            `yaml:"statement_file"`
	TotalMatches  int               `yaml:"total_matches"`
	Transactions  []TransactionLink `yaml:"transactions"`
	Documents     map[string]string `yaml:"documents"`
	Failures      []CopyFailure     `yaml:"failures,omitempty"`
}

// Summary is a short human readable description of the package.
func (p *Package) Summary() string {
	lines := []string{
		"Upload package " + p.RunID,
		"  statement: " + p.StatementFile,
		fmt.Sprintf("  documents: %d", len(p.Documents)),
		fmt.Sprintf("  matches:   %d", p.TotalMatches),
		"  location:  " + p.Directory,
	}
	if len(p.Failures) > 0 {
		lines = append(lines, fmt.Sprintf("  failed copies: %d", len(p.Failures)))
	}
	return strings.Join(lines, "\n")
}

// Builder writes upload packages.
type Builder struct {
	opts   Options
	writer *statement.Writer
	logger logging.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder. Workers below one default to four.
func NewBuilder(opts Options, logger logging.Logger) *Builder {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.Statement.Reference == "" {
		opts.Statement = statement.DefaultWriterOptions()
	}
	logger = logging.OrDefault(logger).WithField("component", "UploadBuilder")
	return &Builder{
		opts:   opts,
		writer: statement.NewWriter(opts.Statement, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Build creates <baseDir>/upload-<runID> from the matched results of report.
// Missing or unreadable invoice documents are recorded in the manifest and do
// not fail the build; any other error removes the partial directory.
func (b *Builder) Build(ctx context.Context, report *models.Report, baseDir string) (pkg *Package, err error) {
	if report == nil {
		return nil, ErrNoMatches
	}
	matched := report.MatchedResults()
	if len(matched) == 0 {
		return nil, ErrNoMatches
	}

	runID := report.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := fileutils.EnsureDirectoryExists(baseDir); err != nil {
		return nil, &parsererror.FileAccessError{FilePath: baseDir, Op: "create", Err: err}
	}
	dir := filepath.Join(baseDir, dirPrefix+runID)
	if err := os.Mkdir(dir, models.PermissionDirectory); err != nil {
		return nil, &parsererror.FileAccessError{FilePath: dir, Op: "create", Err: err}
	}
	defer func() {
		if err != nil {
			b.cleanup(dir)
		}
	}()

	b.logger.Info("Building upload package",
		logging.F(logging.FieldRunID, runID),
		logging.F(logging.FieldOutputDir, dir),
		logging.F(logging.FieldCount, len(matched)))

	txs := make([]models.Transaction, 0, len(matched))
	links := make([]TransactionLink, 0, len(matched))
	for _, res := range matched {
		tx := res.Transaction
		txs = append(txs, tx)
		links = append(links, TransactionLink{
			Reference:     tx.Reference,
			BookingDate:   tx.BookingDate.Format(dateutils.LayoutISO),
			Amount:        tx.Amount.StringFixed(2),
			Currency:      tx.Currency,
			InvoiceNumber: res.Chosen.Number,
		})
	}
	if err = b.writer.WriteFile(filepath.Join(dir, StatementFileName), txs); err != nil {
		return nil, fmt.Errorf("failed to write statement: %w", err)
	}

	documents, failures, err := b.copyDocuments(ctx, matched, filepath.Join(dir, DocumentsDirName))
	if err != nil {
		return nil, err
	}

	pkg = &Package{
		RunID:         runID,
		CreatedAt:     b.now().UTC().Truncate(time.Second),
		Directory:     dir,
		StatementFile: StatementFileName,
		TotalMatches:  len(matched),
		Transactions:  links,
		Documents:     documents,
		Failures:      failures,
	}
	if err = writeManifest(filepath.Join(dir, ManifestFileName), pkg); err != nil {
		return nil, err
	}

	b.logger.Info("Upload package ready",
		logging.F(logging.FieldOutputDir, dir),
		logging.F("documents", len(documents)),
		logging.F("failures", len(failures)))
	return pkg, nil
}

// copyDocuments copies each distinct chosen invoice to dest/<number><ext> on a
// bounded pool. It returns invoice number -> path relative to the package.
func (b *Builder) copyDocuments(ctx context.Context, matched []models.MatchResult, dest string) (map[string]string, []CopyFailure, error) {
	if err := fileutils.EnsureDirectoryExists(dest); err != nil {
		return nil, nil, &parsererror.FileAccessError{FilePath: dest, Op: "create", Err: err}
	}

	seen := make(map[string]bool)
	var invoices []models.Invoice
	for _, res := range matched {
		if !seen[res.Chosen.FilePath] {
			seen[res.Chosen.FilePath] = true
			invoices = append(invoices, *res.Chosen)
		}
	}

	pool, err := ants.NewPool(b.opts.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create copy pool: %w", err)
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		documents = make(map[string]string, len(invoices))
		failures  []CopyFailure
	)
	fail := func(inv models.Invoice, err error) {
		b.logger.WithError(err).Warn("Could not copy invoice document",
			logging.F(logging.FieldInvoice, inv.Number),
			logging.F(logging.FieldFile, inv.FilePath))
		mu.Lock()
		failures = append(failures, CopyFailure{InvoiceNumber: inv.Number, Source: inv.FilePath, Error: err.Error()})
		mu.Unlock()
	}

	for _, inv := range invoices {
		name := inv.Number + strings.ToLower(filepath.Ext(inv.FileName))
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(inv, err)
				return
			}
			if _, err := fileutils.CopyFile(inv.FilePath, filepath.Join(dest, name)); err != nil {
				fail(inv, err)
				return
			}
			mu.Lock()
			documents[inv.Number] = filepath.Join(DocumentsDirName, name)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(inv, submitErr)
		}
	}
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Source < failures[j].Source })
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return documents, failures, nil
}

func writeManifest(path string, pkg *Package) error {
	data, err := yaml.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, models.PermissionReportFile); err != nil {
		return &parsererror.FileAccessError{FilePath: path, Op: "write", Err: err}
	}
	return nil
}

func (b *Builder) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		b.logger.WithError(err).Warn("Failed to remove partial upload package", logging.F(logging.FieldOutputDir, dir))
	}
}
