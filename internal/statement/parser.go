// Package statement turns bank statement files into transactions. MT940 files
// are decoded line by line as a lazy, one-shot sequence; CAMT.053 XML files are
// accepted as well and exposed through the same Stream type.
package statement

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/textutils"
)

// Format identifies a statement file format.
type Format string

const (
	FormatMT940   Format = "MT940"
	FormatCAMT053 Format = "CAMT.053"
)

const sniffSize = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options control decoding.
type Options struct {
	// Encoding is a WHATWG label such as "utf-8", "iso-8859-1" or "windows-1252".
	Encoding string
	// DefaultCurrency is used when an MT940 statement has no opening balance.
	DefaultCurrency string
}

// Parser opens statement files.
type Parser struct {
	opts   Options
	logger logging.Logger
}

// NewParser creates a Parser. A nil logger falls back to the default logger.
func NewParser(opts Options, logger logging.Logger) *Parser {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "EUR"
	}
	return &Parser{opts: opts, logger: logging.OrDefault(logger)}
}

// OpenFile opens path and validates its header. The returned Stream owns the
// file and closes it once the sequence is exhausted or Close is called.
func (p *Parser) OpenFile(path string) (*Stream, error) {
	// #nosec G304 -- statement paths are chosen by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, &parsererror.FileAccessError{FilePath: path, Op: "open", Err: err}
	}
	stream, err := p.Open(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	stream.closer = f
	return stream, nil
}

// Open detects the format of r and validates the header. Transactions are only
// decoded while the Stream's sequence is consumed.
func (p *Parser) Open(r io.Reader, source string) (*Stream, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	format, err := sniff(br, source)
	if err != nil {
		return nil, err
	}

	var src recordSource
	switch format {
	case FormatCAMT053:
		src, err = newCAMTSource(br, source, p.opts)
	default:
		var decoded io.Reader
		decoded, err = decodeCharset(br, p.opts.Encoding)
		if err == nil {
			src, err = newMT940Source(decoded, source, p.opts)
		}
	}
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Opened statement",
		logging.F(logging.FieldFile, source),
		logging.F(logging.FieldFormat, string(format)))
	return newStream(source, format, src, p.logger), nil
}

func sniff(br *bufio.Reader, source string) (Format, error) {
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", &parsererror.FileAccessError{FilePath: source, Op: "read", Err: err}
	}
	if bytes.HasPrefix(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return "", &parsererror.FileAccessError{FilePath: source, Op: "read", Err: err}
		}
		head = head[len(utf8BOM):]
	}
	trimmed := bytes.TrimSpace(head)
	if len(trimmed) == 0 {
		return "", &parsererror.InvalidFormatError{
			FilePath:       source,
			ExpectedFormat: "MT940 or CAMT.053",
			Msg:            "file is empty",
		}
	}
	if trimmed[0] == '<' {
		return FormatCAMT053, nil
	}
	return FormatMT940, nil
}

func decodeCharset(r io.Reader, label string) (io.Reader, error) {
	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return r, nil
	}
	decoded, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return nil, &parsererror.ConfigurationError{
			Setting: "statements.encoding",
			Value:   label,
			Reason:  "unsupported character set",
			Err:     err,
		}
	}
	return decoded, nil
}

func invalidHeader(source, expected, msg, snippet string) error {
	return &parsererror.InvalidFormatError{
		FilePath:             source,
		ExpectedFormat:       expected,
		ActualContentSnippet: textutils.Snippet(snippet, 40),
		Msg:                  msg,
	}
}
