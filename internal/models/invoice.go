package models

import "strings"

// Invoice is one invoice document found on disk. Number keeps the digits as
// they appear in the filename; Normalized is the index key.
type Invoice struct {
	Number      string `json:"invoice_number" yaml:"invoice_number"`
	Normalized  string `json:"normalized_number" yaml:"normalized_number"`
	FilePath    string `json:"file_path" yaml:"file_path"`
	FileName    string `json:"file_name" yaml:"file_name"`
	FileSize    int64  `json:"file_size" yaml:"file_size"`
	DuplicateOf string `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
}

// NewInvoice builds an Invoice and derives its normalized number.
func NewInvoice(number, filePath, fileName string, size int64) Invoice {
	return Invoice{
		Number:     number,
		Normalized: NormalizeInvoiceNumber(number),
		FilePath:   filePath,
		FileName:   fileName,
		FileSize:   size,
	}
}

// IsExtractable reports whether a number was found in the filename.
func (i Invoice) IsExtractable() bool {
	return i.Number != ""
}

// IsDuplicate reports whether another invoice already owns this number.
func (i Invoice) IsDuplicate() bool {
	return i.DuplicateOf != ""
}

// IsMatchTarget reports whether the invoice may be chosen by a match.
func (i Invoice) IsMatchTarget() bool {
	return i.IsExtractable() && !i.IsDuplicate()
}

// NormalizeInvoiceNumber strips leading zeros. An all-zero number becomes "0"
// and an empty number stays empty.
func NormalizeInvoiceNumber(number string) string {
	if number == "" {
		return ""
	}
	trimmed := strings.TrimLeft(number, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
