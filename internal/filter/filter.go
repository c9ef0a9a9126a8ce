// Package filter narrows a transaction set by keyword before matching.
package filter

import (
	"iter"
	"strings"

	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
	"fjacquet/invoice-recon/internal/parsererror"
	"fjacquet/invoice-recon/internal/textutils"
)

// Filter keeps or drops transactions whose description or counterparty name
// contains one of the configured keywords.
type Filter struct {
	keywords      []string
	exclude       bool
	caseSensitive bool
	logger        logging.Logger
}

// New validates criteria. An empty keyword list yields a pass-through filter;
// blank keywords and unknown modes are configuration errors.
func New(criteria models.FilterCriteria) (*Filter, error) {
	return NewWithLogger(criteria, nil)
}

// NewWithLogger is New with an explicit logger.
func NewWithLogger(criteria models.FilterCriteria, logger logging.Logger) (*Filter, error) {
	f := &Filter{caseSensitive: criteria.CaseSensitive, logger: logging.OrDefault(logger)}

	switch strings.ToLower(strings.TrimSpace(criteria.Mode)) {
	case "", models.FilterInclude:
	case models.FilterExclude:
		f.exclude = true
	default:
		return nil, &parsererror.ConfigurationError{
			Setting: "filter.mode",
			Value:   criteria.Mode,
			Reason:  "must be include or exclude",
		}
	}

	for _, kw := range criteria.Keywords {
		if strings.TrimSpace(kw) == "" {
			return nil, &parsererror.ConfigurationError{
				Setting: "filter.keywords",
				Value:   kw,
				Reason:  "keywords must not be blank",
			}
		}
		if !f.caseSensitive {
			kw = strings.ToLower(kw)
		}
		f.keywords = append(f.keywords, kw)
	}
	return f, nil
}

// IsPassThrough reports whether the filter keeps every transaction.
func (f *Filter) IsPassThrough() bool {
	return len(f.keywords) == 0
}

// Keep reports whether tx survives the filter.
func (f *Filter) Keep(tx models.Transaction) bool {
	if f.IsPassThrough() {
		return true
	}
	return f.hit(tx) != f.exclude
}

func (f *Filter) hit(tx models.Transaction) bool {
	for _, kw := range f.keywords {
		if textutils.ContainsKeyword(tx.Description, kw, f.caseSensitive) ||
			textutils.ContainsKeyword(tx.CounterpartyName, kw, f.caseSensitive) {
			return true
		}
	}
	return false
}

// Apply returns the kept transactions in their original order. txs is never
// modified.
func (f *Filter) Apply(txs []models.Transaction) []models.Transaction {
	kept := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Keep(tx) {
			kept = append(kept, tx)
		}
	}
	if !f.IsPassThrough() {
		f.logger.Info("Filtered transactions",
			logging.F(logging.FieldFilterMode, f.mode()),
			logging.F(logging.FieldKeywords, len(f.keywords)),
			logging.F(logging.FieldCount, len(kept)),
			logging.F("dropped", len(txs)-len(kept)))
	}
	return kept
}

// Seq filters a lazy sequence.
func (f *Filter) Seq(seq iter.Seq[models.Transaction]) iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		for tx := range seq {
			if f.Keep(tx) && !yield(tx) {
				return
			}
		}
	}
}

func (f *Filter) mode() string {
	if f.exclude {
		return models.FilterExclude
	}
	return models.FilterInclude
}
