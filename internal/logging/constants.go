package logging

// Field names shared by all components so log output can be filtered uniformly.
const (
	FieldFile       = "file_path"
	FieldLine       = "line"
	FieldFormat     = "format"
	FieldReference  = "reference"
	FieldInvoice    = "invoice_number"
	FieldCanonical  = "canonical_path"
	FieldStatus     = "status"
	FieldScore      = "score"
	FieldCandidates = "candidates"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldCount      = "count"
	FieldRunID      = "run_id"
	FieldDuration   = "duration_ms"
	FieldOutputFile = "output_file"
	FieldOutputDir  = "output_dir"
	FieldKeywords   = "keywords"
	FieldFilterMode = "filter_mode"
)
