package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionBuilder assembles a Transaction field by field and validates it in
// Build. The first setter error short-circuits the remaining calls.
type TransactionBuilder struct {
	tx  Transaction
	err error
}

// NewTransactionBuilder starts an empty builder.
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{tx: Transaction{Amount: decimal.Zero}}
}

// WithAmount sets the signed amount and currency.
func (b *TransactionBuilder) WithAmount(amount decimal.Decimal, currency string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Amount = amount
	b.tx.Currency = strings.ToUpper(strings.TrimSpace(currency))
	return b
}

// WithAmountFromString parses a dot-decimal amount string.
func (b *TransactionBuilder) WithAmountFromString(amount, currency string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		b.err = fmt.Errorf("invalid amount '%s': %w", amount, err)
		return b
	}
	return b.WithAmount(dec, currency)
}

// WithBookingDate sets the booking date; a zero time is an error.
func (b *TransactionBuilder) WithBookingDate(date time.Time) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if date.IsZero() {
		b.err = errors.New("booking date cannot be zero")
		return b
	}
	b.tx.BookingDate = date
	return b
}

// WithValueDate sets the value date. Zero leaves it to default to the booking date.
func (b *TransactionBuilder) WithValueDate(date time.Time) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.ValueDate = date
	return b
}

func (b *TransactionBuilder) WithDescription(description string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Description = strings.TrimSpace(description)
	return b
}

func (b *TransactionBuilder) WithReference(reference string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Reference = strings.TrimSpace(reference)
	return b
}

func (b *TransactionBuilder) WithAccount(account string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Account = strings.TrimSpace(account)
	return b
}

// WithCounterparty sets the other party's name and IBAN.
func (b *TransactionBuilder) WithCounterparty(name, iban string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.CounterpartyName = strings.TrimSpace(name)
	b.tx.CounterpartyIBAN = strings.ReplaceAll(strings.TrimSpace(iban), " ", "")
	return b
}

func (b *TransactionBuilder) WithRemittanceInfo(info string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.RemittanceInfo = strings.TrimSpace(info)
	return b
}

// WithSource records where the transaction was read from.
func (b *TransactionBuilder) WithSource(path string, line int) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Source = path
	b.tx.Line = line
	return b
}

// AsDebit marks the transaction as outgoing.
func (b *TransactionBuilder) AsDebit() *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Direction = DirectionDebit
	return b
}

// AsCredit marks the transaction as incoming.
func (b *TransactionBuilder) AsCredit() *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Direction = DirectionCredit
	return b
}

// Build validates and returns the transaction. When no description was given
// it falls back to "Transaction <reference>".
func (b *TransactionBuilder) Build() (Transaction, error) {
	if b.err != nil {
		return Transaction{}, fmt.Errorf("builder error: %w", b.err)
	}
	tx := b.tx
	if tx.ValueDate.IsZero() {
		tx.ValueDate = tx.BookingDate
	}
	if tx.Description == "" && tx.Reference != "" {
		tx.Description = "Transaction " + tx.Reference
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
