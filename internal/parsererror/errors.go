// Package parsererror holds the error types shared by the statement parser, the
// invoice scanner and the configuration layer. Record-level problems are reported
// as warnings and never abort a run; file-level and configuration errors do.
package parsererror

import (
	"errors"
	"fmt"
)

// RecordError describes one statement record that could not be turned into a
// transaction. The parser skips the record and keeps going.
type RecordError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s:%d: skipped record: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: skipped record: invalid %s='%s': %v",
		e.Source, e.Line, e.Field, e.Value, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// InvalidFormatError means a whole statement file is not in a recognized format.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// FileAccessError means a statement or invoice file could not be opened or read.
type FileAccessError struct {
	FilePath string
	Op       string
	Err      error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot %s '%s': %v", e.Op, e.FilePath, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// ConfigurationError is fatal: a missing invoice directory, an unknown filter
// mode or an out-of-range threshold.
type ConfigurationError struct {
	Setting string
	Value   string
	Reason  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration %s='%s': %s", e.Setting, e.Value, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsFileLevel reports whether err invalidates a whole statement file, as opposed
// to a single record or the run configuration.
func IsFileLevel(err error) bool {
	var formatErr *InvalidFormatError
	var accessErr *FileAccessError
	return errors.As(err, &formatErr) || errors.As(err, &accessErr)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
