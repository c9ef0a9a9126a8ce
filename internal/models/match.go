package models

// Candidate is one invoice whose number was found in a transaction description.
type Candidate struct {
	InvoiceNumber string  `json:"invoice_number" yaml:"invoice_number"`
	Normalized    string  `json:"normalized_number" yaml:"normalized_number"`
	FilePath      string  `json:"file_path" yaml:"file_path"`
	Score         float64 `json:"score" yaml:"score"`
	Exact         bool    `json:"exact" yaml:"exact"`
}

// MatchResult is the outcome for one transaction. Chosen is set only when
// Status is StatusMatched.
type MatchResult struct {
	Transaction Transaction `json:"transaction" yaml:"transaction"`
	Candidates  []Candidate `json:"candidates" yaml:"candidates"`
	Status      MatchStatus `json:"status" yaml:"status"`
	Chosen      *Invoice    `json:"chosen_invoice,omitempty" yaml:"chosen_invoice,omitempty"`
}

// IsMatched is shorthand for Status == StatusMatched.
func (r MatchResult) IsMatched() bool {
	return r.Status == StatusMatched && r.Chosen != nil
}

// Top returns the highest ranked candidate.
func (r MatchResult) Top() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}
