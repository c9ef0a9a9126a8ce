package statement

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fjacquet/invoice-recon/internal/currencyutils"
	"fjacquet/invoice-recon/internal/dateutils"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/textutils"
)

const (
	// mt940LineWidth is the SWIFT line length; :86: lines of exactly this width
	// were hard-wrapped mid-word by the bank.
	mt940LineWidth    = 65
	maxPreambleLines  = 8
	maxLineLength     = 1024 * 1024
	expectedMT940     = "MT940 (:20: transaction reference first)"
	tagTransactionRef = "20"
	tagAccount        = "25"
	tagStatementLine  = "61"
	tagNarrative      = "86"
)

var (
	tagLinePattern = regexp.MustCompile(`^:(\d{2}[A-Z]?):(.*)$`)

	// value date, entry date, mark, funds code, amount, type, owner ref, bank ref
	statementLinePattern = regexp.MustCompile(
		`^(\d{6})(\d{4})?(RC|RD|C|D)([A-Z])?(\d{1,15},\d*)([NFS][A-Z0-9]{3})(.*?)(?://(.*))?$`)

	balancePattern = regexp.MustCompile(`^[CD]\d{6}([A-Z]{3})\d{1,15},\d*$`)
)

type rawLine struct {
	text string
	num  int
}

type lineReader struct {
	sc     *bufio.Scanner
	num    int
	peeked *rawLine
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next() (rawLine, bool) {
	if lr.peeked != nil {
		l := *lr.peeked
		lr.peeked = nil
		return l, true
	}
	if !lr.sc.Scan() {
		return rawLine{}, false
	}
	lr.num++
	return rawLine{text: strings.TrimRight(lr.sc.Text(), "\r"), num: lr.num}, true
}

func (lr *lineReader) unread(l rawLine) {
	lr.peeked = &l
}

func (lr *lineReader) err() error {
	return lr.sc.Err()
}

// field is one tagged MT940 field with its continuation lines.
type field struct {
	tag   string
	num   int
	raw   []string
	first string
}

func (f *field) content() []string {
	lines := make([]string, 0, len(f.raw))
	lines = append(lines, f.first)
	return append(lines, f.raw[1:]...)
}

// entry is a parsed :61: statement line waiting for its :86: narrative.
type entry struct {
	num           int
	valueDate     time.Time
	bookingDate   time.Time
	direction     models.Direction
	amount        decimal.Decimal
	ownerRef      string
	bankRef       string
	supplementary string
	narrative     *field
}

type mt940Source struct {
	lines           *lineReader
	source          string
	defaultCurrency string
}

func newMT940Source(r io.Reader, source string, opts Options) (*mt940Source, error) {
	lines := newLineReader(r)
	preamble := 0
	for {
		l, ok := lines.next()
		if !ok {
			if err := lines.err(); err != nil {
				return nil, &parsererror.FileAccessError{FilePath: source, Op: "read", Err: err}
			}
			return nil, invalidHeader(source, expectedMT940, "no MT940 message found", "")
		}
		text := stripBlockHeader(l.text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if m := tagLinePattern.FindStringSubmatch(text); m != nil {
			if m[1] != tagTransactionRef {
				return nil, invalidHeader(source, expectedMT940,
					fmt.Sprintf("unexpected first tag :%s:", m[1]), text)
			}
			lines.unread(rawLine{text: text, num: l.num})
			break
		}
		preamble++
		if preamble > maxPreambleLines {
			return nil, invalidHeader(source, expectedMT940, "unrecognized statement header", text)
		}
	}
	return &mt940Source{lines: lines, source: source, defaultCurrency: opts.DefaultCurrency}, nil
}

// stripBlockHeader removes SWIFT FIN block wrappers such as "{1:...}{2:...}{4:".
func stripBlockHeader(text string) string {
	if !strings.HasPrefix(text, "{") {
		return text
	}
	if idx := strings.Index(text, "{4:"); idx >= 0 {
		return text[idx+3:]
	}
	return ""
}

func isMessageEnd(text string) bool {
	t := strings.TrimSpace(text)
	return t == "-" || t == "-}"
}

func (m *mt940Source) run(emit func(models.Transaction) bool, skip func(*parsererror.RecordError)) error {
	var (
		account  string
		currency = m.defaultCurrency
		pending  *entry
		cur      *field
	)

	// flush emits the pending entry; false means the consumer stopped.
	flush := func() bool {
		if pending == nil {
			return true
		}
		e := pending
		pending = nil
		tx, err := m.buildTransaction(e, account, currency)
		if err != nil {
			skip(err)
			return true
		}
		return emit(tx)
	}

	// finish processes the field under construction.
	finish := func() bool {
		if cur == nil {
			return true
		}
		f := cur
		cur = nil
		switch f.tag {
		case tagStatementLine:
			if !flush() {
				return false
			}
			e, err := m.parseStatementLine(f)
			if err != nil {
				skip(err)
				return true
			}
			pending = e
			return true
		case tagNarrative:
			if pending != nil && pending.narrative == nil {
				pending.narrative = f
				return true
			}
			return flush()
		}

		if !flush() {
			return false
		}
		switch f.tag {
		case tagTransactionRef:
			account = ""
			currency = m.defaultCurrency
		case tagAccount:
			account = strings.TrimSpace(f.first)
		case "60F", "60M":
			if bm := balancePattern.FindStringSubmatch(strings.TrimSpace(f.first)); bm != nil {
				currency = bm[1]
			}
		}
		return true
	}

	for {
		l, ok := m.lines.next()
		if !ok {
			break
		}
		text := l.text
		if strings.HasPrefix(text, "{") {
			if !finish() || !flush() {
				return nil
			}
			text = stripBlockHeader(text)
			if strings.TrimSpace(text) == "" {
				continue
			}
		}
		if isMessageEnd(text) {
			if !finish() || !flush() {
				return nil
			}
			continue
		}
		if tm := tagLinePattern.FindStringSubmatch(text); tm != nil {
			if !finish() {
				return nil
			}
			cur = &field{tag: tm[1], num: l.num, raw: []string{text}, first: tm[2]}
			continue
		}
		if cur != nil {
			cur.raw = append(cur.raw, text)
		}
	}

	if !finish() || !flush() {
		return nil
	}
	return m.lines.err()
}

func (m *mt940Source) recordError(num int, fieldName, value string, err error) *parsererror.RecordError {
	return &parsererror.RecordError{Source: m.source, Line: num, Field: fieldName, Value: value, Err: err}
}

func (m *mt940Source) parseStatementLine(f *field) (*entry, *parsererror.RecordError) {
	lines := f.content()
	head := strings.TrimSpace(lines[0])
	sm := statementLinePattern.FindStringSubmatch(head)
	if sm == nil {
		return nil, m.recordError(f.num, ":61:", head, errors.New("malformed statement line"))
	}

	valueDate, err := dateutils.ParseMT940Date(sm[1])
	if err != nil {
		return nil, m.recordError(f.num, "value_date", sm[1], err)
	}
	bookingDate := valueDate
	if sm[2] != "" {
		bookingDate, err = dateutils.ResolveEntryDate(valueDate, sm[2])
		if err != nil {
			return nil, m.recordError(f.num, "entry_date", sm[2], err)
		}
	}

	amount, err := currencyutils.ParseMT940Amount(sm[5])
	if err != nil {
		return nil, m.recordError(f.num, "amount", sm[5], err)
	}

	var direction models.Direction
	switch sm[3] {
	case "C", "RD":
		direction = models.DirectionCredit
	case "D", "RC":
		direction = models.DirectionDebit
		amount = amount.Neg()
	}

	var supplementary []string
	for _, l := range lines[1:] {
		if s := strings.TrimSpace(l); s != "" {
			supplementary = append(supplementary, s)
		}
	}

	return &entry{
		num:           f.num,
		valueDate:     valueDate,
		bookingDate:   bookingDate,
		direction:     direction,
		amount:        amount,
		ownerRef:      strings.TrimSpace(sm[7]),
		bankRef:       strings.TrimSpace(sm[8]),
		supplementary: strings.Join(supplementary, " "),
	}, nil
}

func (m *mt940Source) buildTransaction(e *entry, account, currency string) (models.Transaction, *parsererror.RecordError) {
	description := e.supplementary
	var sepa textutils.SEPAFields
	if e.narrative != nil {
		narrative := joinNarrative(e.narrative)
		if narrative != "" {
			description = narrative
		}
		sepa = textutils.ExtractSEPAFields(narrative)
	}

	b := models.NewTransactionBuilder().
		WithAmount(e.amount, currency).
		WithBookingDate(e.bookingDate).
		WithValueDate(e.valueDate).
		WithDescription(description).
		WithReference(chooseReference(e)).
		WithAccount(account).
		WithCounterparty(sepa.Name, sepa.IBAN).
		WithRemittanceInfo(sepa.Remittance).
		WithSource(m.source, e.num)
	if e.direction == models.DirectionDebit {
		b.AsDebit()
	} else {
		b.AsCredit()
	}

	tx, err := b.Build()
	if err != nil {
		return models.Transaction{}, m.recordError(e.num, "", "", err)
	}
	return tx, nil
}

func chooseReference(e *entry) string {
	if e.ownerRef != "" && !strings.EqualFold(e.ownerRef, "NONREF") {
		return e.ownerRef
	}
	if e.bankRef != "" {
		return e.bankRef
	}
	return fmt.Sprintf("TXN-%s-%d", e.bookingDate.Format("20060102"), e.num)
}

// joinNarrative rebuilds the :86: text. A physical line that filled the whole
// SWIFT width was cut by the bank and continues without a separator.
func joinNarrative(f *field) string {
	var b strings.Builder
	content := f.content()
	for i, part := range content {
		if i > 0 && utf8.RuneCountInString(f.raw[i-1]) != mt940LineWidth {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
