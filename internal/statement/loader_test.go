package statement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
)

const (
	januaryStatement = `:20:JAN
:25:ACC
:60F:C250101EUR0,00
:61:2501150115C100,00NTRFREF1
:86:first
:61:2501200120C200,00NTRFREF2
:86:second
-
`
	overlappingStatement = `:20:JANFEB
:25:ACC
:60F:C250118EUR100,00
:61:2501200120C200,00NTRFREF2
:86:second again
:61:2502010201C300,00NTRFREF3
:86:third
:61:2502010201C300,00NTRFREF3
:86:third twice in the same file
-
`
)

func newTestLoader(opts LoaderOptions) (*Loader, *logging.MockLogger) {
	logger := logging.NewMockLogger()
	return NewLoader(NewParser(Options{}, logger), opts, logger), logger
}

func references(txs []models.Transaction) []string {
	refs := make([]string, 0, len(txs))
	for _, tx := range txs {
		refs = append(refs, tx.Reference)
	}
	return refs
}

func TestLoader_Dedupe(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.sta", januaryStatement)
	b := writeFile(t, dir, "b.sta", overlappingStatement)

	t.Run("duplicates across files are dropped", func(t *testing.T) {
		loader, logger := newTestLoader(LoaderOptions{Dedupe: true})
		result, err := loader.LoadFiles([]string{a, b})
		require.NoError(t, err)

		assert.Equal(t, []string{"REF1", "REF2", "REF3", "REF3"}, references(result.Transactions))
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, models.WarningDuplicateTransaction, result.Warnings[0].Kind)
		assert.Equal(t, b, result.Warnings[0].Source)
		assert.Equal(t, 4, result.Warnings[0].Line)
		assert.Contains(t, result.Warnings[0].Message, "a.sta")

		require.Len(t, result.Files, 2)
		assert.Equal(t, 2, result.Files[0].Transactions)
		assert.Equal(t, 2, result.Files[1].Transactions)
		assert.Equal(t, 1, result.Files[1].Duplicates)
		assert.Equal(t, FormatMT940, result.Files[1].Format)
		assert.True(t, logger.HasEntry("WARN", "Dropping duplicate transaction from overlapping statement"))
	})

	t.Run("dedupe disabled keeps everything", func(t *testing.T) {
		loader, _ := newTestLoader(LoaderOptions{})
		result, err := loader.LoadFiles([]string{a, b})
		require.NoError(t, err)
		assert.Len(t, result.Transactions, 5)
		assert.Empty(t, result.Warnings)
	})
}

func TestLoader_FileErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.sta", januaryStatement)
	bad := writeFile(t, dir, "bad.sta", ":25:ACC\n:61:2501150115C1,00NTRFX\n")
	missing := filepath.Join(dir, "missing.sta")

	t.Run("skipped without fail fast", func(t *testing.T) {
		loader, logger := newTestLoader(LoaderOptions{})
		result, err := loader.LoadFiles([]string{bad, good, missing})
		require.NoError(t, err)

		assert.Len(t, result.Transactions, 2)
		require.Len(t, result.Warnings, 2)
		assert.Equal(t, models.WarningFile, result.Warnings[0].Kind)
		assert.Equal(t, bad, result.Warnings[0].Source)
		assert.Equal(t, models.WarningFile, result.Warnings[1].Kind)
		assert.Equal(t, missing, result.Warnings[1].Source)

		require.Len(t, result.Files, 3)
		assert.Error(t, result.Files[0].Err)
		assert.NoError(t, result.Files[1].Err)
		assert.Len(t, logger.EntriesByLevel("ERROR"), 2)
	})

	t.Run("fail fast returns the first file error", func(t *testing.T) {
		loader, _ := newTestLoader(LoaderOptions{FailFast: true})
		_, err := loader.LoadFiles([]string{good, bad})
		var formatErr *parsererror.InvalidFormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, bad, formatErr.FilePath)
	})

	t.Run("configuration errors are always fatal", func(t *testing.T) {
		logger := logging.NewMockLogger()
		loader := NewLoader(NewParser(Options{Encoding: "no-such-charset"}, logger), LoaderOptions{}, logger)
		_, err := loader.LoadFiles([]string{good})
		assert.True(t, parsererror.IsConfiguration(err))
	})

	t.Run("nil path list", func(t *testing.T) {
		loader, _ := newTestLoader(LoaderOptions{})
		_, err := loader.LoadFiles(nil)
		assert.True(t, parsererror.IsConfiguration(err))
	})

	t.Run("empty path list", func(t *testing.T) {
		loader, _ := newTestLoader(LoaderOptions{})
		result, err := loader.LoadFiles([]string{})
		require.NoError(t, err)
		assert.NotNil(t, result.Transactions)
		assert.Empty(t, result.Transactions)
	})
}

func TestLoader_RecordWarningsPassThrough(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mixed.sta", ":20:X\n:61:BROKEN\n:61:2501150115C1,00NTRFOK\n:86:ok\n-\n")

	loader, _ := newTestLoader(LoaderOptions{})
	result, err := loader.LoadFiles([]string{path})
	require.NoError(t, err)

	assert.Len(t, result.Transactions, 1)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarningRecord, result.Warnings[0].Kind)
	assert.Equal(t, 2, result.Warnings[0].Line)
	assert.Equal(t, 1, result.Files[0].Skipped)
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "statements")
	require.NoError(t, os.Mkdir(sub, 0750))
	b := writeFile(t, sub, "b.STA", januaryStatement)
	a := writeFile(t, sub, "a.sta", januaryStatement)
	writeFile(t, sub, "notes.md", "ignore me")
	explicit := writeFile(t, dir, "export.dat", januaryStatement)

	paths, err := ExpandPaths([]string{explicit, sub}, []string{".sta"})
	require.NoError(t, err)
	assert.Equal(t, []string{explicit, a, b}, paths)

	missing := filepath.Join(dir, "nope.sta")
	paths, err = ExpandPaths([]string{a, missing}, []string{".sta"})
	require.NoError(t, err)
	assert.Equal(t, []string{a, missing}, paths)
}

func TestExpandPaths_MissingFileLeftToLoader(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.sta", januaryStatement)
	missing := filepath.Join(dir, "missing.sta")

	paths, err := ExpandPaths([]string{good, missing}, []string{".sta"})
	require.NoError(t, err)

	p, _ := newTestParser(Options{})
	result, err := NewLoader(p, LoaderOptions{}, logging.NewMockLogger()).LoadFiles(paths)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Transactions)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarningFile, result.Warnings[0].Kind)
	assert.Equal(t, missing, result.Warnings[0].Source)

	_, err = NewLoader(p, LoaderOptions{FailFast: true}, logging.NewMockLogger()).LoadFiles(paths)
	var accessErr *parsererror.FileAccessError
	assert.ErrorAs(t, err, &accessErr)
}
