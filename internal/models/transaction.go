package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one booked statement line. Values are built through
// TransactionBuilder and passed by value afterwards; nothing in the pipeline
// modifies a Transaction once it has been parsed.
type Transaction struct {
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Currency    string          `json:"currency" yaml:"currency"`
	BookingDate time.Time       `json:"booking_date" yaml:"booking_date"`
	ValueDate   time.Time       `json:"value_date" yaml:"value_date"`
	Description string          `json:"description" yaml:"description"`
	Reference   string          `json:"reference" yaml:"reference"`
	Direction   Direction       `json:"direction" yaml:"direction"`

	Account          string `json:"account,omitempty" yaml:"account,omitempty"`
	CounterpartyName string `json:"counterparty_name,omitempty" yaml:"counterparty_name,omitempty"`
	CounterpartyIBAN string `json:"counterparty_iban,omitempty" yaml:"counterparty_iban,omitempty"`
	RemittanceInfo   string `json:"remittance_info,omitempty" yaml:"remittance_info,omitempty"`
	Source           string `json:"source,omitempty" yaml:"source,omitempty"`
	Line             int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// IsDebit returns true for outgoing money.
func (t Transaction) IsDebit() bool {
	return t.Direction == DirectionDebit
}

// IsCredit returns true for incoming money.
func (t Transaction) IsCredit() bool {
	return t.Direction == DirectionCredit
}

// AbsAmount is the amount without sign.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// DedupeKey identifies the same booking seen in two overlapping statements.
func (t Transaction) DedupeKey() string {
	return fmt.Sprintf("%s|%s|%s", t.BookingDate.Format("2006-01-02"), t.Amount.String(), t.Reference)
}

// Validate checks the invariants every parsed transaction must hold.
func (t Transaction) Validate() error {
	switch t.Direction {
	case DirectionCredit:
		if t.Amount.IsNegative() {
			return fmt.Errorf("credit transaction %s has negative amount %s", t.Reference, t.Amount)
		}
	case DirectionDebit:
		if t.Amount.IsPositive() {
			return fmt.Errorf("debit transaction %s has positive amount %s", t.Reference, t.Amount)
		}
	default:
		return fmt.Errorf("transaction %s has unknown direction %q", t.Reference, t.Direction)
	}
	if t.BookingDate.IsZero() {
		return fmt.Errorf("transaction %s has no booking date", t.Reference)
	}
	if t.Reference == "" {
		return fmt.Errorf("transaction has no reference")
	}
	if len(t.Currency) != 3 {
		return fmt.Errorf("transaction %s has invalid currency %q", t.Reference, t.Currency)
	}
	return nil
}
