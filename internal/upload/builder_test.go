package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/statement"
)

func invoiceFile(t *testing.T, dir, name, number string) models.Invoice {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+number), 0600))
	return models.NewInvoice(number, path, name, 13)
}

func matchedResult(t *testing.T, ref, amount string, day int, inv models.Invoice) models.MatchResult {
	t.Helper()
	tx, err := models.NewTransactionBuilder().
		WithAmountFromString(amount, "CHF").
		WithBookingDate(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)).
		WithReference(ref).
		WithDescription("Invoice " + inv.Number).
		AsCredit().
		Build()
	require.NoError(t, err)
	chosen := inv
	return models.MatchResult{
		Transaction: tx,
		Status:      models.StatusMatched,
		Candidates:  []models.Candidate{{InvoiceNumber: inv.Number, Normalized: inv.Normalized, FilePath: inv.FilePath, Score: 1, Exact: true}},
		Chosen:      &chosen,
	}
}

func newTestBuilder(workers int) (*Builder, *logging.MockLogger) {
	logger := logging.NewMockLogger()
	b := NewBuilder(Options{Workers: workers}, logger)
	b.now = func() time.Time { return time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC) }
	return b, logger
}

func TestBuilder_Build(t *testing.T) {
	invDir := t.TempDir()
	inv501 := invoiceFile(t, invDir, "INV-501.PDF", "501")
	inv777 := invoiceFile(t, invDir, "invoice_777.pdf", "777")

	report := &models.Report{
		RunID: "run-1",
		Results: []models.MatchResult{
			matchedResult(t, "TX-1", "100", 10, inv501),
			{Status: models.StatusUnmatched},
			matchedResult(t, "TX-2", "50.5", 11, inv777),
			matchedResult(t, "TX-3", "20", 12, inv501),
		},
	}

	b, logger := newTestBuilder(2)
	out := t.TempDir()
	pkg, err := b.Build(context.Background(), report, out)
	require.NoError(t, err)

	assert.Equal(t, "run-1", pkg.RunID)
	assert.Equal(t, filepath.Join(out, "upload-run-1"), pkg.Directory)
	assert.Equal(t, 3, pkg.TotalMatches)
	assert.Empty(t, pkg.Failures)
	assert.Equal(t, map[string]string{
		"501": filepath.Join("pdfs", "501.pdf"),
		"777": filepath.Join("pdfs", "777.pdf"),
	}, pkg.Documents)
	require.Len(t, pkg.Transactions, 3)
	assert.Equal(t, TransactionLink{
		Reference: "TX-2", BookingDate: "2025-01-11", Amount: "50.50", Currency: "CHF", InvoiceNumber: "777",
	}, pkg.Transactions[1])

	copied, err := os.ReadFile(filepath.Join(pkg.Directory, "pdfs", "501.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 501", string(copied))

	sta, err := os.ReadFile(filepath.Join(pkg.Directory, StatementFileName))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(sta), ":61:"))
	assert.Contains(t, string(sta), ":62F:C250112CHF170,50")

	manifest, err := os.ReadFile(filepath.Join(pkg.Directory, ManifestFileName))
	require.NoError(t, err)
	var loaded Package
	require.NoError(t, yaml.Unmarshal(manifest, &loaded))
	assert.Equal(t, pkg.Transactions, loaded.Transactions)
	assert.Equal(t, pkg.Documents, loaded.Documents)
	assert.True(t, pkg.CreatedAt.Equal(loaded.CreatedAt))
	assert.Empty(t, loaded.Directory, "directory is not persisted")

	assert.True(t, logger.HasEntry("INFO", "Upload package ready"))
	assert.Contains(t, pkg.Summary(), "documents: 2")
}

func TestBuilder_Build_MissingDocumentIsRecorded(t *testing.T) {
	invDir := t.TempDir()
	present := invoiceFile(t, invDir, "INV-1.pdf", "1")
	missing := models.NewInvoice("2", filepath.Join(invDir, "INV-2.pdf"), "INV-2.pdf", 0)

	report := &models.Report{
		RunID: "run-2",
		Results: []models.MatchResult{
			matchedResult(t, "A", "10", 1, present),
			matchedResult(t, "B", "20", 2, missing),
		},
	}

	b, logger := newTestBuilder(0)
	pkg, err := b.Build(context.Background(), report, t.TempDir())
	require.NoError(t, err)

	assert.Len(t, pkg.Documents, 1)
	require.Len(t, pkg.Failures, 1)
	assert.Equal(t, "2", pkg.Failures[0].InvoiceNumber)
	assert.Equal(t, missing.FilePath, pkg.Failures[0].Source)
	assert.NotEmpty(t, pkg.Failures[0].Error)
	assert.Contains(t, pkg.Summary(), "failed copies: 1")
	assert.Len(t, logger.EntriesByLevel("WARN"), 1)
}

func TestBuilder_Build_Refuses(t *testing.T) {
	tests := []struct {
		name   string
		report *models.Report
	}{
		{name: "nil report", report: nil},
		{name: "no results", report: &models.Report{RunID: "x"}},
		{name: "only unmatched", report: &models.Report{RunID: "x", Results: []models.MatchResult{
			{Status: models.StatusUnmatched},
			{Status: models.StatusAmbiguous},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			b, _ := newTestBuilder(1)
			_, err := b.Build(context.Background(), tt.report, out)
			assert.ErrorIs(t, err, ErrNoMatches)

			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestBuilder_Build_CancelledContextRemovesPackage(t *testing.T) {
	inv := invoiceFile(t, t.TempDir(), "INV-9.pdf", "9")
	report := &models.Report{RunID: "run-c", Results: []models.MatchResult{matchedResult(t, "C", "5", 3, inv)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := t.TempDir()
	b, _ := newTestBuilder(1)
	_, err := b.Build(ctx, report, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(out, "upload-run-c"))
}

func TestBuilder_Build_MixedCurrenciesRemovesPackage(t *testing.T) {
	dir := t.TempDir()
	a := invoiceFile(t, dir, "INV-1.pdf", "1")
	b1 := invoiceFile(t, dir, "INV-2.pdf", "2")
	other := matchedResult(t, "EUR-1", "10", 2, b1)
	other.Transaction.Currency = "EUR"

	report := &models.Report{RunID: "run-m", Results: []models.MatchResult{matchedResult(t, "CHF-1", "10", 1, a), other}}
	out := t.TempDir()
	b, _ := newTestBuilder(1)
	_, err := b.Build(context.Background(), report, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot mix currencies")
	assert.NoDirExists(t, filepath.Join(out, "upload-run-m"))
}

func TestBuilder_Build_GeneratesRunID(t *testing.T) {
	inv := invoiceFile(t, t.TempDir(), "INV-3.pdf", "3")
	report := &models.Report{Results: []models.MatchResult{matchedResult(t, "R", "1", 1, inv)}}

	b, _ := newTestBuilder(1)
	pkg, err := b.Build(context.Background(), report, t.TempDir())
	require.NoError(t, err)
	assert.Len(t, pkg.RunID, 36)
	assert.DirExists(t, pkg.Directory)
}

func TestBuilder_Build_ExistingDirectoryFails(t *testing.T) {
	inv := invoiceFile(t, t.TempDir(), "INV-4.pdf", "4")
	report := &models.Report{RunID: "dup", Results: []models.MatchResult{matchedResult(t, "R", "1", 1, inv)}}

	out := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(out, "upload-dup"), 0750))

	b, _ := newTestBuilder(1)
	_, err := b.Build(context.Background(), report, out)
	require.Error(t, err)
	assert.DirExists(t, filepath.Join(out, "upload-dup"))
}

func TestBuilder_CustomStatementOptions(t *testing.T) {
	inv := invoiceFile(t, t.TempDir(), "INV-5.pdf", "5")
	report := &models.Report{RunID: "opt", Results: []models.MatchResult{matchedResult(t, "R", "1", 1, inv)}}

	opts := statement.DefaultWriterOptions()
	opts.Reference = "RECON EXPORT"
	opts.Account = "CH9300762011623852957"
	b := NewBuilder(Options{Workers: 1, Statement: opts}, nil)

	pkg, err := b.Build(context.Background(), report, t.TempDir())
	require.NoError(t, err)
	sta, err := os.ReadFile(filepath.Join(pkg.Directory, StatementFileName))
	require.NoError(t, err)
	assert.Contains(t, string(sta), ":20:RECON EXPORT\n:25:CH9300762011623852957\n")
}
