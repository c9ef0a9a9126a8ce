package matcher

import (
	"github.com/shopspring/decimal"

	"fjacquet/invoice-recon/internal/models"
)

// summarize counts results by status and works out which invoices were
// claimed. Duplicate and unextractable invoices are never claimed and count as
// unclaimed, so Claimed+Unclaimed always equals the invoice total.
func summarize(results []models.MatchResult, invoices []models.Invoice, idx index) models.Summary {
	s := models.Summary{
		TotalTransactions: len(results),
		TotalInvoices:     len(invoices),
		MatchedAmount:     decimal.Zero,
		AmbiguousResults:  []models.MatchResult{},
		Invoices:          make([]models.InvoiceClaim, 0, len(invoices)),
		Warnings:          []models.Warning{},
	}

	claims := make(map[string]int)
	for _, res := range results {
		switch res.Status {
		case models.StatusMatched:
			s.Matched++
			s.MatchedAmount = s.MatchedAmount.Add(res.Transaction.Amount)
			claims[res.Chosen.FilePath]++
		case models.StatusAmbiguous:
			s.Ambiguous++
			s.AmbiguousResults = append(s.AmbiguousResults, res)
		default:
			s.Unmatched++
		}
	}
	if s.TotalTransactions > 0 {
		s.MatchRate = float64(s.Matched) / float64(s.TotalTransactions) * 100
	}

	for _, inv := range invoices {
		claim := models.InvoiceClaim{Invoice: inv, State: models.ClaimUnclaimed}
		if state, excluded := idx.excluded[inv.FilePath]; excluded {
			claim.State = state
		} else if n := claims[inv.FilePath]; n > 0 {
			claim.Claims = n
			claim.State = models.ClaimClaimed
		}

		switch claim.State {
		case models.ClaimClaimed:
			s.ClaimedInvoices++
		case models.ClaimDuplicate:
			s.DuplicateInvoices++
			s.UnclaimedInvoices++
		case models.ClaimUnextractable:
			s.UnextractableInvoices++
			s.UnclaimedInvoices++
		default:
			s.UnclaimedInvoices++
		}
		s.Invoices = append(s.Invoices, claim)
	}
	return s
}
