package models

// FormatType is the closed set of tabular layouts the structure analyzer can
// recognise. Each value has exactly one row parser.
type FormatType string

const (
	// FormatGeneric is a date / description / value layout.
	FormatGeneric FormatType = "generic"
	// FormatLedgerCreditDebit has separate credit and debit columns plus a running balance.
	FormatLedgerCreditDebit FormatType = "ledger-credit-debit"
	// FormatStatementExport carries datetime, category, label, description and value columns.
	FormatStatementExport FormatType = "statement-export"
)

// FormatTypes lists every FormatType in detection priority order, richest first.
var FormatTypes = []FormatType{FormatStatementExport, FormatLedgerCreditDebit, FormatGeneric}

// Valid reports whether f is one of the known layouts.
func (f FormatType) Valid() bool {
	switch f {
	case FormatGeneric, FormatLedgerCreditDebit, FormatStatementExport:
		return true
	}
	return false
}

// Field is a logical column of a statement.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldValue       Field = "value"
	FieldCredit      Field = "credit"
	FieldDebit       Field = "debit"
	FieldBalance     Field = "balance"
	FieldCategory    Field = "category"
	FieldLabel       Field = "label"
	FieldDocumentRef Field = "document-ref"
)

// ColumnMapping resolves logical fields to physical column indices for one
// file. A field missing from Columns is absent from the file.
type ColumnMapping struct {
	Columns map[Field]int
	// Positional lists the fields resolved by positional fallback rather than
	// by header keyword.
	Positional []Field
}

// NewColumnMapping returns an empty mapping.
func NewColumnMapping() ColumnMapping {
	return ColumnMapping{Columns: make(map[Field]int)}
}

// Index returns the column of f, or false when f is absent.
func (m ColumnMapping) Index(f Field) (int, bool) {
	idx, ok := m.Columns[f]
	return idx, ok
}

// Has reports whether f is mapped.
func (m ColumnMapping) Has(f Field) bool {
	_, ok := m.Columns[f]
	return ok
}

// Cell returns the cell of row that holds f, or "" when f is absent or the
// row is too short.
func (m ColumnMapping) Cell(row []string, f Field) string {
	idx, ok := m.Columns[f]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
