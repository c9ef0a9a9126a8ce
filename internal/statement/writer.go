package statement

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/invoice-recon/internal/currencyutils"
	"fjacquet/invoice-recon/internal/dateutils"
	"fjacquet/invoice-recon/internal/fileutils"
	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
)

// ErrNoTransactions is returned when asked to write an empty statement.
var ErrNoTransactions = errors.New("no transactions to write")

// WriterOptions configure the generated MT940 message.
type WriterOptions struct {
	// Account goes into :25:. Empty uses the first transaction's account.
	Account string
	// Reference goes into :20:.
	Reference string
	// BankHeader lines are written before the message, e.g. "ABNANL2A", "940".
	BankHeader []string
	// TransactionType is the :86: /TRTP/ value.
	TransactionType string
}

// DefaultWriterOptions mirror the layout accepted by Dutch accounting packages.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Reference:       "MATCHED TRANSACTIONS",
		BankHeader:      []string{"ABNANL2A", "940", "ABNANL2A"},
		TransactionType: "SEPA OVERBOEKING",
	}
}

// Writer renders transactions as a single MT940 statement with a zero opening
// balance.
type Writer struct {
	opts   WriterOptions
	logger logging.Logger
}

// NewWriter creates a Writer.
func NewWriter(opts WriterOptions, logger logging.Logger) *Writer {
	return &Writer{opts: opts, logger: logging.OrDefault(logger)}
}

// WriteFile writes the statement to path, creating parent directories.
func (w *Writer) WriteFile(path string, txs []models.Transaction) (err error) {
	f, err := fileutils.CreateFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err = w.Write(f, txs); err != nil {
		return err
	}
	w.logger.Info("Wrote MT940 statement",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(txs)))
	return nil
}

// Write renders txs sorted by booking date. All transactions must share one
// currency.
func (w *Writer) Write(out io.Writer, txs []models.Transaction) error {
	if len(txs) == 0 {
		return ErrNoTransactions
	}
	sorted := append([]models.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BookingDate.Before(sorted[j].BookingDate)
	})

	currency := sorted[0].Currency
	total := decimal.Zero
	for _, tx := range sorted {
		if tx.Currency != currency {
			return fmt.Errorf("cannot mix currencies %s and %s in one statement", currency, tx.Currency)
		}
		total = total.Add(tx.Amount)
	}

	account := w.opts.Account
	if account == "" {
		account = sorted[0].Account
	}
	if account == "" {
		account = "NOTPROVIDED"
	}
	first := sorted[0].BookingDate
	last := sorted[len(sorted)-1].BookingDate

	bw := bufio.NewWriter(out)
	lines := append([]string(nil), w.opts.BankHeader...)
	lines = append(lines,
		":20:"+w.opts.Reference,
		":25:"+account,
		fmt.Sprintf(":28C:%s/1", last.Format("0601")),
		fmt.Sprintf(":60F:C%s%s%s", dateutils.FormatMT940Date(first), currency, currencyutils.FormatMT940Amount(decimal.Zero)),
	)
	for _, tx := range sorted {
		lines = append(lines, w.statementLine(tx))
		lines = append(lines, wrapField(":86:", w.narrative(tx))...)
	}
	lines = append(lines,
		fmt.Sprintf(":62F:%s%s%s%s", mark(total.IsNegative()), dateutils.FormatMT940Date(last), currency, currencyutils.FormatMT940Amount(total)),
		"-",
	)

	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func mark(debit bool) string {
	if debit {
		return "D"
	}
	return "C"
}

func (w *Writer) statementLine(tx models.Transaction) string {
	return fmt.Sprintf(":61:%s%s%s%sNTRF%s",
		dateutils.FormatMT940Date(tx.ValueDate),
		tx.BookingDate.Format(dateutils.LayoutMT940Day),
		mark(tx.IsDebit()),
		currencyutils.FormatMT940Amount(tx.Amount),
		tx.Reference)
}

func (w *Writer) narrative(tx models.Transaction) string {
	var b strings.Builder
	b.WriteString("/TRTP/" + sanitizeSubfield(w.opts.TransactionType))
	if tx.CounterpartyIBAN != "" {
		b.WriteString("/IBAN/" + sanitizeSubfield(tx.CounterpartyIBAN))
	}
	if tx.CounterpartyName != "" {
		b.WriteString("/NAME/" + sanitizeSubfield(tx.CounterpartyName))
	}
	remittance := tx.RemittanceInfo
	if remittance == "" {
		remittance = tx.Description
	}
	b.WriteString("/REMI/" + sanitizeSubfield(remittance))
	b.WriteString("/EREF/" + sanitizeSubfield(tx.Reference))
	return b.String()
}

// sanitizeSubfield keeps a value from opening a new /TAG/ subfield.
func sanitizeSubfield(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "/", " ")), " ")
}

// wrapField splits tag+value into SWIFT lines of at most mt940LineWidth runes.
func wrapField(tag, value string) []string {
	runes := []rune(tag + value)
	var lines []string
	for len(runes) > mt940LineWidth {
		lines = append(lines, string(runes[:mt940LineWidth]))
		runes = runes[mt940LineWidth:]
	}
	return append(lines, string(runes))
}
