package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FilterCriteria narrows transactions before matching. An empty keyword list
// means no filtering.
type FilterCriteria struct {
	Keywords      []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	Mode          string   `json:"mode" yaml:"mode" mapstructure:"mode"`
	CaseSensitive bool     `json:"case_sensitive" yaml:"case_sensitive" mapstructure:"case_sensitive"`
}

// IsEmpty reports whether the criteria filter nothing.
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Keywords) == 0
}

// Warning is a recovered problem attached to the run.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Source  string      `json:"source" yaml:"source"`
	Line    int         `json:"line,omitempty" yaml:"line,omitempty"`
	Message string      `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("[%s] %s:%d: %s", w.Kind, w.Source, w.Line, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Source, w.Message)
}

// InvoiceClaim is the per-invoice line of the summary.
type InvoiceClaim struct {
	Invoice Invoice    `json:"invoice" yaml:"invoice"`
	Claims  int        `json:"claims" yaml:"claims"`
	State   ClaimState `json:"state" yaml:"state"`
}

// Summary aggregates a matching run.
type Summary struct {
	TotalTransactions int `json:"total_transactions" yaml:"total_transactions"`
	Matched           int `json:"matched" yaml:"matched"`
	Ambiguous         int `json:"ambiguous" yaml:"ambiguous"`
	Unmatched         int `json:"unmatched" yaml:"unmatched"`

	TotalInvoices         int `json:"total_invoices" yaml:"total_invoices"`
	ClaimedInvoices       int `json:"claimed_invoices" yaml:"claimed_invoices"`
	UnclaimedInvoices     int `json:"unclaimed_invoices" yaml:"unclaimed_invoices"`
	DuplicateInvoices     int `json:"duplicate_invoices" yaml:"duplicate_invoices"`
	UnextractableInvoices int `json:"unextractable_invoices" yaml:"unextractable_invoices"`

	// MatchRate is the percentage of transactions with status matched.
	MatchRate     float64         `json:"match_rate" yaml:"match_rate"`
	MatchedAmount decimal.Decimal `json:"matched_amount" yaml:"matched_amount"`

	AmbiguousResults []MatchResult  `json:"ambiguous_results" yaml:"ambiguous_results"`
	Invoices         []InvoiceClaim `json:"invoices" yaml:"invoices"`

	SkippedRecords int       `json:"skipped_records" yaml:"skipped_records"`
	SkippedFiles   int       `json:"skipped_files" yaml:"skipped_files"`
	Warnings       []Warning `json:"warnings" yaml:"warnings"`
}

// Report is what the engine hands to reporting and upload collaborators.
type Report struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	Results []MatchResult `json:"results" yaml:"results"`
	Summary Summary       `json:"summary" yaml:"summary"`
}

// AddWarnings appends warnings and updates the skipped counters.
func (r *Report) AddWarnings(warnings ...Warning) {
	for _, w := range warnings {
		switch w.Kind {
		case WarningRecord:
			r.Summary.SkippedRecords++
		case WarningFile:
			r.Summary.SkippedFiles++
		}
		r.Summary.Warnings = append(r.Summary.Warnings, w)
	}
}

// MatchedResults returns the results with status matched, in input order.
func (r *Report) MatchedResults() []MatchResult {
	var out []MatchResult
	for _, res := range r.Results {
		if res.IsMatched() {
			out = append(out, res)
		}
	}
	return out
}
