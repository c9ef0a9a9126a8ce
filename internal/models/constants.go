package models

// Direction is the side of the account a transaction was booked on.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// MatchStatus classifies one transaction against the invoice index.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "matched"
	StatusAmbiguous MatchStatus = "ambiguous"
	StatusUnmatched MatchStatus = "unmatched"
)

// ClaimState describes an invoice after matching.
type ClaimState string

const (
	ClaimClaimed       ClaimState = "claimed"
	ClaimUnclaimed     ClaimState = "unclaimed"
	ClaimDuplicate     ClaimState = "duplicate"
	ClaimUnextractable ClaimState = "unextractable"
)

// WarningKind tells why a record or file was skipped or flagged.
type WarningKind string

const (
	WarningRecord               WarningKind = "record"
	WarningFile                 WarningKind = "file"
	WarningDuplicateTransaction WarningKind = "duplicate-transaction"
	WarningUnextractable        WarningKind = "unextractable"
	WarningDuplicateInvoice     WarningKind = "duplicate-invoice"
)

// Filter modes
const (
	FilterInclude = "include"
	FilterExclude = "exclude"
)

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
