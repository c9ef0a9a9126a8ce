package statement

import (
	"io"
	"iter"
	"slices"

	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
)

// recordSource decodes one statement file. run calls emit for every transaction
// in file order and skip for every record it had to drop. It stops as soon as
// emit returns false. The returned error is a read failure that ended decoding
// early.
type recordSource interface {
	run(emit func(models.Transaction) bool, skip func(*parsererror.RecordError)) error
}

// Stream is the transaction sequence of one statement file. It can be iterated
// once; later calls to All yield nothing.
type Stream struct {
	source   string
	format   Format
	src      recordSource
	logger   logging.Logger
	closer   io.Closer
	consumed bool
	count    int
	skipped  []*parsererror.RecordError
	err      error
}

func newStream(source string, format Format, src recordSource, logger logging.Logger) *Stream {
	return &Stream{source: source, format: format, src: src, logger: logger}
}

// Source is the path or name the stream was opened with.
func (s *Stream) Source() string { return s.source }

// Format is the detected statement format.
func (s *Stream) Format() Format { return s.format }

// All returns the lazy transaction sequence.
func (s *Stream) All() iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		if s.consumed {
			return
		}
		s.consumed = true
		defer s.Close()

		err := s.src.run(func(tx models.Transaction) bool {
			s.count++
			return yield(tx)
		}, s.skip)
		if err != nil {
			s.err = &parsererror.FileAccessError{FilePath: s.source, Op: "read", Err: err}
			s.logger.WithError(err).Error("Statement read aborted",
				logging.F(logging.FieldFile, s.source),
				logging.F(logging.FieldCount, s.count))
		}
	}
}

// Collect materializes the sequence.
func (s *Stream) Collect() []models.Transaction {
	return slices.Collect(s.All())
}

func (s *Stream) skip(recErr *parsererror.RecordError) {
	s.skipped = append(s.skipped, recErr)
	s.logger.WithError(recErr.Err).Warn("Skipping malformed statement record",
		logging.F(logging.FieldFile, recErr.Source),
		logging.F(logging.FieldLine, recErr.Line))
}

// Count is the number of transactions yielded so far.
func (s *Stream) Count() int { return s.count }

// RecordErrors lists the records dropped so far.
func (s *Stream) RecordErrors() []*parsererror.RecordError {
	return append([]*parsererror.RecordError(nil), s.skipped...)
}

// Warnings converts dropped records and a read failure into run warnings.
func (s *Stream) Warnings() []models.Warning {
	warnings := make([]models.Warning, 0, len(s.skipped)+1)
	for _, recErr := range s.skipped {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningRecord,
			Source:  recErr.Source,
			Line:    recErr.Line,
			Message: recErr.Error(),
		})
	}
	if s.err != nil {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningFile,
			Source:  s.source,
			Message: s.err.Error(),
		})
	}
	return warnings
}

// Err reports a read failure that ended the sequence early.
func (s *Stream) Err() error { return s.err }

// Close releases the underlying file. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
