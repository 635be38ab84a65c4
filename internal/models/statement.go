// Package models holds the data types that flow through the import pipeline:
// raw extracted statements, their structural analysis, the column mapping,
// the caller's import context and the canonical transactions produced.
package models

// SourceKind names the extractor family that produced a RawStatement.
type SourceKind string

const (
	SourceCSV   SourceKind = "csv"
	SourceExcel SourceKind = "excel"
	SourcePDF   SourceKind = "pdf"
)

// RawStatement is the output of extraction, before any parsing. Lines holds
// the text lines in reading order. Spreadsheet extractors also fill Rows with
// the already split cells, one entry per line. It is never mutated after
// extraction.
type RawStatement struct {
	Name     string
	Size     int64
	Encoding string
	Sheet    string
	Kind     SourceKind
	Lines    []string
	Rows     [][]string
}

// HasCells reports whether the statement carries pre-split cells.
func (r RawStatement) HasCells() bool {
	return len(r.Rows) > 0
}

// StructureAnalysis is the read-only description of a tabular statement
// derived once by the structure analyzer.
type StructureAnalysis struct {
	Separator        rune
	HeaderFound      bool
	HeaderIndex      int
	DataStart        int
	ColumnCount      int
	FormatType       FormatType
	Headers          []string
	MatchedRule      string
	InconsistentRows int
}
