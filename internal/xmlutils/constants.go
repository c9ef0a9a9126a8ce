// Package xmlutils holds the XPath expressions and helpers used to read
// CAMT.053 statements.
package xmlutils

import "gopkg.in/xmlpath.v2"

// Document level expressions.
const (
	XPathStatements      = "//BkToCstmrStmt/Stmt"
	XPathEntries         = "Ntry"
	XPathAccountIBAN     = "Acct/Id/IBAN"
	XPathAccountCurrency = "Acct/Ccy"
)

// EntryPaths are compiled expressions evaluated relative to one Ntry element.
type EntryPaths struct {
	Amount         *xmlpath.Path
	Currency       *xmlpath.Path
	CreditDebitInd *xmlpath.Path
	BookingDate    *xmlpath.Path
	BookingDateTm  *xmlpath.Path
	ValueDate      *xmlpath.Path
	AccountSvcRef  *xmlpath.Path
	EndToEndID     *xmlpath.Path
	TransactionID  *xmlpath.Path
	RemittanceInfo *xmlpath.Path
	AddTxInfo      *xmlpath.Path
	AddEntryInfo   *xmlpath.Path
	DebtorName     *xmlpath.Path
	DebtorIBAN     *xmlpath.Path
	CreditorName   *xmlpath.Path
	CreditorIBAN   *xmlpath.Path
}

// Entry is the shared set of compiled entry expressions.
var Entry = EntryPaths{
	Amount:         xmlpath.MustCompile("Amt"),
	Currency:       xmlpath.MustCompile("Amt/@Ccy"),
	CreditDebitInd: xmlpath.MustCompile("CdtDbtInd"), // #nosec G101 -- XPath expression, not credentials
	BookingDate:    xmlpath.MustCompile("BookgDt/Dt"),
	BookingDateTm:  xmlpath.MustCompile("BookgDt/DtTm"),
	ValueDate:      xmlpath.MustCompile("ValDt/Dt"),
	AccountSvcRef:  xmlpath.MustCompile("AcctSvcrRef"),
	EndToEndID:     xmlpath.MustCompile("NtryDtls/TxDtls/Refs/EndToEndId"),
	TransactionID:  xmlpath.MustCompile("NtryDtls/TxDtls/Refs/TxId"),
	RemittanceInfo: xmlpath.MustCompile("NtryDtls/TxDtls/RmtInf/Ustrd"),
	AddTxInfo:      xmlpath.MustCompile("NtryDtls/TxDtls/AddtlTxInf"),
	AddEntryInfo:   xmlpath.MustCompile("AddtlNtryInf"),
	DebtorName:     xmlpath.MustCompile("NtryDtls/TxDtls/RltdPties/Dbtr/Nm"),
	DebtorIBAN:     xmlpath.MustCompile("NtryDtls/TxDtls/RltdPties/DbtrAcct/Id/IBAN"),
	CreditorName:   xmlpath.MustCompile("NtryDtls/TxDtls/RltdPties/Cdtr/Nm"),
	CreditorIBAN:   xmlpath.MustCompile("NtryDtls/TxDtls/RltdPties/CdtrAcct/Id/IBAN"),
}
