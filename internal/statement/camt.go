package statement

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/xmlpath.v2"

	"fjacquet/invoice-recon/internal/currencyutils"
	"fjacquet/invoice-recon/internal/dateutils"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/xmlutils"
)

const expectedCAMT = "CAMT.053 (BkToCstmrStmt/Stmt)"

var (
	statementsPath      = xmlpath.MustCompile(xmlutils.XPathStatements)
	entriesPath         = xmlpath.MustCompile(xmlutils.XPathEntries)
	accountIBANPath     = xmlpath.MustCompile(xmlutils.XPathAccountIBAN)
	accountCurrencyPath = xmlpath.MustCompile(xmlutils.XPathAccountCurrency)
)

// camtSource walks the Ntry elements of a parsed CAMT.053 document. The XML
// tree is built when the file is opened; entries are converted on demand.
type camtSource struct {
	root            *xmlpath.Node
	source          string
	defaultCurrency string
}

func newCAMTSource(r io.Reader, source string, opts Options) (*camtSource, error) {
	root, err := xmlutils.ParseXML(r)
	if err != nil {
		return nil, invalidHeader(source, expectedCAMT, "document is not well-formed XML", "")
	}
	if !statementsPath.Exists(root) {
		return nil, invalidHeader(source, expectedCAMT, "no BkToCstmrStmt/Stmt element", "")
	}
	return &camtSource{root: root, source: source, defaultCurrency: opts.DefaultCurrency}, nil
}

func (c *camtSource) run(emit func(models.Transaction) bool, skip func(*parsererror.RecordError)) error {
	ordinal := 0
	stmts := statementsPath.Iter(c.root)
	for stmts.Next() {
		stmt := stmts.Node()
		account := xmlutils.FirstString(stmt, accountIBANPath)
		currency := xmlutils.FirstString(stmt, accountCurrencyPath)
		if currency == "" {
			currency = c.defaultCurrency
		}

		entries := entriesPath.Iter(stmt)
		for entries.Next() {
			ordinal++
			tx, recErr := c.buildTransaction(entries.Node(), ordinal, account, currency)
			if recErr != nil {
				skip(recErr)
				continue
			}
			if !emit(tx) {
				return nil
			}
		}
	}
	return nil
}

func (c *camtSource) recordError(ordinal int, fieldName, value string, err error) *parsererror.RecordError {
	return &parsererror.RecordError{Source: c.source, Line: ordinal, Field: fieldName, Value: value, Err: err}
}

func (c *camtSource) buildTransaction(ntry *xmlpath.Node, ordinal int, account, currency string) (models.Transaction, *parsererror.RecordError) {
	p := xmlutils.Entry

	rawAmount := xmlutils.FirstString(ntry, p.Amount)
	amount, err := currencyutils.ParseAmount(rawAmount)
	if err != nil {
		return models.Transaction{}, c.recordError(ordinal, "Amt", rawAmount, err)
	}
	if amount.IsNegative() {
		return models.Transaction{}, c.recordError(ordinal, "Amt", rawAmount, errors.New("amount must be unsigned"))
	}
	if ccy := xmlutils.FirstString(ntry, p.Currency); ccy != "" {
		currency = ccy
	}

	rawBooking := xmlutils.FirstString(ntry, p.BookingDate)
	if rawBooking == "" {
		rawBooking = xmlutils.FirstString(ntry, p.BookingDateTm)
	}
	bookingDate, err := dateutils.ParseISODate(rawBooking)
	if err != nil {
		return models.Transaction{}, c.recordError(ordinal, "BookgDt", rawBooking, err)
	}
	valueDate := bookingDate
	if rawValue := xmlutils.FirstString(ntry, p.ValueDate); rawValue != "" {
		if valueDate, err = dateutils.ParseISODate(rawValue); err != nil {
			return models.Transaction{}, c.recordError(ordinal, "ValDt", rawValue, err)
		}
	}

	b := models.NewTransactionBuilder().
		WithBookingDate(bookingDate).
		WithValueDate(valueDate).
		WithAccount(account).
		WithSource(c.source, ordinal)

	indicator := xmlutils.FirstString(ntry, p.CreditDebitInd)
	switch indicator {
	case "CRDT":
		b.WithAmount(amount, currency).AsCredit().
			WithCounterparty(xmlutils.FirstString(ntry, p.DebtorName), xmlutils.FirstString(ntry, p.DebtorIBAN))
	case "DBIT":
		b.WithAmount(amount.Neg(), currency).AsDebit().
			WithCounterparty(xmlutils.FirstString(ntry, p.CreditorName), xmlutils.FirstString(ntry, p.CreditorIBAN))
	default:
		return models.Transaction{}, c.recordError(ordinal, "CdtDbtInd", indicator, errors.New("expected CRDT or DBIT"))
	}

	remittance := strings.Join(xmlutils.AllStrings(ntry, p.RemittanceInfo), " ")
	description := remittance
	for _, fallback := range []*xmlpath.Path{p.AddTxInfo, p.AddEntryInfo} {
		if description != "" {
			break
		}
		description = xmlutils.FirstString(ntry, fallback)
	}

	tx, err := b.WithRemittanceInfo(remittance).
		WithDescription(description).
		WithReference(c.reference(ntry, bookingDate.Format("20060102"), ordinal)).
		Build()
	if err != nil {
		return models.Transaction{}, c.recordError(ordinal, "", "", err)
	}
	return tx, nil
}

func (c *camtSource) reference(ntry *xmlpath.Node, day string, ordinal int) string {
	p := xmlutils.Entry
	for _, path := range []*xmlpath.Path{p.AccountSvcRef, p.EndToEndID, p.TransactionID} {
		ref := xmlutils.FirstString(ntry, path)
		if ref != "" && !strings.EqualFold(ref, "NOTPROVIDED") && !strings.EqualFold(ref, "NONREF") {
			return ref
		}
	}
	return fmt.Sprintf("TXN-%s-%d", day, ordinal)
}
