// Package matcher links bank transactions to invoices by finding invoice
// numbers in transaction descriptions.
package matcher

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"fjacquet/invoice-recon/internal/logging"
	"fjacquet/invoice-recon/internal/models"
)

// ErrMissingInput is returned when the transaction or invoice collection is nil.
var ErrMissingInput = errors.New("transactions and invoices must not be nil")

// scores come from a small set of configured constants; comparisons allow for
// float rounding in differences such as 1.0-0.95.
const scoreEpsilon = 1e-9

// Engine classifies transactions against an invoice set. It holds no state
// between calls to Match.
type Engine struct {
	cfg    Config
	logger logging.Logger
	runID  func() string
}

// NewEngine validates cfg and creates an Engine.
func NewEngine(cfg Config, logger logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		logger: logging.OrDefault(logger),
		runID:  uuid.NewString,
	}, nil
}

// SetRunIDGenerator replaces the uuid generator used for Report.RunID.
func (e *Engine) SetRunIDGenerator(fn func() string) {
	if fn != nil {
		e.runID = fn
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// index maps normalized invoice numbers to the canonical invoice.
type index struct {
	byNumber map[string]models.Invoice
	// excluded holds invoice paths that can never be chosen
	excluded map[string]models.ClaimState
}

func (e *Engine) buildIndex(invoices []models.Invoice) index {
	idx := index{
		byNumber: make(map[string]models.Invoice, len(invoices)),
		excluded: make(map[string]models.ClaimState),
	}
	for _, inv := range invoices {
		if !inv.IsMatchTarget() {
			state := models.ClaimDuplicate
			if !inv.IsExtractable() {
				state = models.ClaimUnextractable
			}
			idx.excluded[inv.FilePath] = state
			continue
		}
		if first, taken := idx.byNumber[inv.Normalized]; taken {
			e.logger.Warn("Invoice number already indexed, treating as duplicate",
				logging.F(logging.FieldFile, inv.FilePath),
				logging.F(logging.FieldInvoice, inv.Number),
				logging.F(logging.FieldCanonical, first.FilePath))
			idx.excluded[inv.FilePath] = models.ClaimDuplicate
			continue
		}
		idx.byNumber[inv.Normalized] = inv
	}
	return idx
}

// Match scores every transaction against the invoice index and returns the
// results in transaction order together with the run summary. Data problems
// such as missing numbers are outcomes, not errors; only nil inputs fail.
func (e *Engine) Match(txs []models.Transaction, invoices []models.Invoice) (*models.Report, error) {
	if txs == nil || invoices == nil {
		return nil, ErrMissingInput
	}
	start := time.Now()
	idx := e.buildIndex(invoices)

	results := make([]models.MatchResult, 0, len(txs))
	for _, tx := range txs {
		res := e.classify(tx, e.candidates(tx, idx), idx)
		e.logger.Debug("Transaction classified",
			logging.F(logging.FieldReference, tx.Reference),
			logging.F(logging.FieldStatus, string(res.Status)),
			logging.F(logging.FieldCandidates, len(res.Candidates)))
		results = append(results, res)
	}

	report := &models.Report{
		RunID:   e.runID(),
		Results: results,
		Summary: summarize(results, invoices, idx),
	}

	e.logger.Info("Matching complete",
		logging.F(logging.FieldRunID, report.RunID),
		logging.F("transactions", report.Summary.TotalTransactions),
		logging.F("matched", report.Summary.Matched),
		logging.F("ambiguous", report.Summary.Ambiguous),
		logging.F("unmatched", report.Summary.Unmatched),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return report, nil
}

// candidates finds every indexed invoice whose number, as extracted or with
// its leading zeros dropped, appears as a whole token of the description. The
// best score per invoice is kept. Description tokens are never normalized, so
// "0123" does not name invoice "123".
func (e *Engine) candidates(tx models.Transaction, idx index) []models.Candidate {
	best := make(map[string]models.Candidate)
	for _, tok := range numberTokens(tx.Description) {
		inv, ok := idx.byNumber[models.NormalizeInvoiceNumber(tok)]
		if !ok {
			continue
		}
		c := models.Candidate{
			InvoiceNumber: inv.Number,
			Normalized:    inv.Normalized,
			FilePath:      inv.FilePath,
		}
		switch tok {
		case inv.Number:
			c.Score = e.cfg.ExactScore
			c.Exact = true
		case inv.Normalized:
			c.Score = e.cfg.NormalizedScore
		default:
			continue
		}
		if prev, seen := best[inv.FilePath]; !seen || c.Score > prev.Score {
			best[inv.FilePath] = c
		}
	}

	out := make([]models.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

// sortCandidates orders by score, then longer normalized number, then path.
func sortCandidates(cs []models.Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Normalized) != len(b.Normalized) {
			return len(a.Normalized) > len(b.Normalized)
		}
		return a.FilePath < b.FilePath
	})
}

func (e *Engine) classify(tx models.Transaction, cs []models.Candidate, idx index) models.MatchResult {
	res := models.MatchResult{Transaction: tx, Candidates: cs, Status: models.StatusUnmatched}
	if len(cs) == 0 {
		return res
	}
	if e.isDecisive(cs) {
		chosen := idx.byNumber[cs[0].Normalized]
		res.Status = models.StatusMatched
		res.Chosen = &chosen
		return res
	}
	res.Status = models.StatusAmbiguous
	return res
}

// isDecisive reports whether the top candidate clears the threshold while no
// runner-up reaches the threshold or comes within the tie margin. A top
// candidate below the threshold is never decisive; such results stay
// Ambiguous for manual review even when they carry a single candidate.
func (e *Engine) isDecisive(cs []models.Candidate) bool {
	top := cs[0].Score
	if top+scoreEpsilon < e.cfg.DecisiveThreshold {
		return false
	}
	for _, c := range cs[1:] {
		if c.Score+scoreEpsilon >= e.cfg.DecisiveThreshold {
			return false
		}
		if top-c.Score <= e.cfg.TieMargin+scoreEpsilon {
			return false
		}
	}
	return true
}
