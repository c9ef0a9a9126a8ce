package statement

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/invoice-recon/internal/fileutils"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
)

// LoaderOptions control multi-file loading.
type LoaderOptions struct {
	// FailFast aborts on the first file that cannot be opened or is not a
	// statement. Otherwise the file is reported as a warning and skipped.
	FailFast bool
	// Dedupe drops transactions already seen in an earlier file with the same
	// booking date, amount and reference.
	Dedupe bool
}

// FileStats describes one loaded file.
type FileStats struct {
	Path         string
	Format       Format
	Transactions int
	Skipped      int
	Duplicates   int
	Err          error
}

// LoadResult is the outcome of loading a batch of statement files.
type LoadResult struct {
	Transactions []models.Transaction
	Warnings     []models.Warning
	Files        []FileStats
}

// Loader parses several statement files in order into one transaction list.
type Loader struct {
	parser *Parser
	opts   LoaderOptions
	logger logging.Logger
}

// NewLoader creates a Loader around parser.
func NewLoader(parser *Parser, opts LoaderOptions, logger logging.Logger) *Loader {
	return &Loader{parser: parser, opts: opts, logger: logging.OrDefault(logger)}
}

// LoadFiles parses paths in the given order. Configuration errors are always
// returned; file-level errors only when FailFast is set.
func (l *Loader) LoadFiles(paths []string) (*LoadResult, error) {
	if paths == nil {
		return nil, &parsererror.ConfigurationError{Setting: "statements", Reason: "no statement files given"}
	}

	result := &LoadResult{Transactions: []models.Transaction{}}
	// dedupe key -> index of the file that first produced it
	seen := make(map[string]int)

	for fileIdx, path := range paths {
		stats := FileStats{Path: path}
		stream, err := l.parser.OpenFile(path)
		if err != nil {
			if parsererror.IsConfiguration(err) || l.opts.FailFast {
				return nil, err
			}
			l.logger.WithError(err).Error("Skipping statement file", logging.F(logging.FieldFile, path))
			stats.Err = err
			result.Files = append(result.Files, stats)
			result.Warnings = append(result.Warnings, models.Warning{
				Kind:    models.WarningFile,
				Source:  path,
				Message: err.Error(),
			})
			continue
		}

		stats.Format = stream.Format()
		for tx := range stream.All() {
			if l.opts.Dedupe {
				key := tx.DedupeKey()
				if first, dup := seen[key]; dup && first != fileIdx {
					stats.Duplicates++
					l.logger.Warn("Dropping duplicate transaction from overlapping statement",
						logging.F(logging.FieldReference, tx.Reference),
						logging.F(logging.FieldFile, path),
						logging.F(logging.FieldLine, tx.Line))
					result.Warnings = append(result.Warnings, models.Warning{
						Kind:    models.WarningDuplicateTransaction,
						Source:  path,
						Line:    tx.Line,
						Message: fmt.Sprintf("transaction %s already loaded from %s", tx.Reference, filepath.Base(paths[first])),
					})
					continue
				}
				if _, dup := seen[key]; !dup {
					seen[key] = fileIdx
				}
			}
			result.Transactions = append(result.Transactions, tx)
		}

		stats.Transactions = stream.Count() - stats.Duplicates
		stats.Skipped = len(stream.RecordErrors())
		stats.Err = stream.Err()
		result.Warnings = append(result.Warnings, stream.Warnings()...)
		result.Files = append(result.Files, stats)

		if stream.Err() != nil && l.opts.FailFast {
			return nil, stream.Err()
		}

		l.logger.Info("Loaded statement",
			logging.F(logging.FieldFile, path),
			logging.F(logging.FieldFormat, string(stats.Format)),
			logging.F(logging.FieldCount, stats.Transactions))
	}

	return result, nil
}

// ExpandPaths turns a mix of files and directories into an ordered list of
// statement files. Directories contribute their files with one of exts,
// sorted by name; explicitly named files are kept regardless of extension.
// Inputs that cannot be stat'ed are kept as files so LoadFiles applies its
// per-file error policy to them.
func ExpandPaths(inputs []string, exts []string) ([]string, error) {
	paths := []string{}
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil || !info.IsDir() {
			paths = append(paths, input)
			continue
		}
		files, err := fileutils.ListFilesWithExtensions(input, exts)
		if err != nil {
			return nil, &parsererror.FileAccessError{FilePath: input, Op: "list", Err: err}
		}
		paths = append(paths, files...)
	}
	return paths, nil
}
