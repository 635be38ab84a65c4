// Package structure derives the layout of a tabular statement: the column
// separator, the header line, where data rows begin and which FormatType the
// file follows. It also resolves logical fields to column indices.
package structure

import (
	"encoding/csv"
	"fmt"
	"strings"

	"fjacquet/statement-import/internal/currencyutils"
	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/textutils"
)

// DefaultHeaderScanLines is how many content lines are searched for a header.
const DefaultHeaderScanLines = 15

// Separators are the candidate column separators in priority order.
var Separators = []rune{';', ',', '\t', '|'}

// Table is a statement split into cells together with its analysis.
type Table struct {
	Analysis models.StructureAnalysis
	Rows     [][]string
	Warnings []parsererror.ValidationWarning
}

// DataRows returns the rows from the data start onwards.
func (t *Table) DataRows() [][]string {
	if t.Analysis.DataStart >= len(t.Rows) {
		return nil
	}
	return t.Rows[t.Analysis.DataStart:]
}

// Analyzer detects the structure of CSV and spreadsheet statements.
type Analyzer struct {
	headerScanLines int
	logger          logging.Logger
}

// NewAnalyzer creates an analyzer scanning headerScanLines lines for a header.
func NewAnalyzer(headerScanLines int, logger logging.Logger) *Analyzer {
	if headerScanLines <= 0 {
		headerScanLines = DefaultHeaderScanLines
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Analyzer{headerScanLines: headerScanLines, logger: logger}
}

// Analyze splits raw into rows and describes its structure. Pre-split
// spreadsheet cells are used as they are; text lines go through separator
// detection first. The error is a ValidationError when no separator yields
// more than one column.
func (a *Analyzer) Analyze(raw models.RawStatement) (*Table, error) {
	table := &Table{}
	analysis := models.StructureAnalysis{HeaderIndex: -1}

	if raw.HasCells() {
		table.Rows = raw.Rows
	} else {
		sep, ok := DetectSeparator(raw.Lines, a.headerScanLines)
		if !ok {
			return nil, &parsererror.ValidationError{FilePath: raw.Name, Reason: "column separator could not be detected"}
		}
		analysis.Separator = sep
		table.Rows = SplitLines(raw.Lines, sep)
	}

	if idx, rule, ok := a.detectHeader(table.Rows); ok {
		analysis.HeaderFound = true
		analysis.HeaderIndex = idx
		analysis.FormatType = rule.format
		analysis.MatchedRule = rule.name
		analysis.Headers = trimCells(table.Rows[idx])
		analysis.ColumnCount = len(analysis.Headers)
	} else {
		analysis.ColumnCount = widestRow(table.Rows)
		analysis.FormatType = inferFormat(table.Rows)
		table.Warnings = append(table.Warnings, parsererror.Warn(parsererror.WarnHeaderNotDetected,
			"header not detected in the first %d lines, assuming %s layout", a.headerScanLines, analysis.FormatType))
	}

	analysis.DataStart = analysis.HeaderIndex + 1
	if raw.Kind == models.SourceExcel {
		if start, ok := DetectDataStart(table.Rows, analysis.HeaderIndex+1); ok {
			analysis.DataStart = start
		}
	}

	analysis.InconsistentRows = countInconsistent(table.Rows, analysis, raw.HasCells())
	if analysis.InconsistentRows > 0 {
		table.Warnings = append(table.Warnings, parsererror.Warn(parsererror.WarnInconsistentColumns,
			"%d rows do not have the expected %d columns", analysis.InconsistentRows, analysis.ColumnCount))
	}

	table.Analysis = analysis
	a.logger.Debug("Analyzed statement structure",
		logging.Field{Key: logging.FieldFile, Value: raw.Name},
		logging.Field{Key: logging.FieldSeparator, Value: string(analysis.Separator)},
		logging.Field{Key: logging.FieldFormatType, Value: analysis.FormatType},
		logging.Field{Key: logging.FieldRow, Value: analysis.DataStart})
	return table, nil
}

// DetectSeparator returns the candidate that splits the first content line
// into the most columns, ties going to the earlier candidate. When that line
// has a single column the next lines, up to scanLimit, are tried. It returns
// false if no line splits into more than one column.
func DetectSeparator(lines []string, scanLimit int) (rune, bool) {
	scanned := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if scanned >= scanLimit {
			break
		}
		scanned++

		best, bestCount := rune(0), 1
		for _, sep := range Separators {
			if n := len(SplitLine(line, sep)); n > bestCount {
				best, bestCount = sep, n
			}
		}
		if bestCount > 1 {
			return best, true
		}
	}
	return 0, false
}

// SplitLine splits one line on sep, honouring double-quoted cells.
func SplitLine(line string, sep rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return strings.Split(line, string(sep))
	}
	return record
}

// SplitLines splits every line on sep. Blank lines become empty rows so row
// indices keep matching line indices.
func SplitLines(lines []string, sep rune) [][]string {
	rows := make([][]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows[i] = trimCells(SplitLine(line, sep))
	}
	return rows
}

func (a *Analyzer) detectHeader(rows [][]string) (int, headerRule, bool) {
	scanned := 0
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if scanned >= a.headerScanLines {
			break
		}
		scanned++
		for _, rule := range headerRules {
			if rule.matches(row) {
				return i, rule, true
			}
		}
	}
	return -1, headerRule{}, false
}

// DetectDataStart scans forward from start for the first row holding both a
// valid date cell and a non-zero numeric cell that is not a blacklisted
// summary or metadata row.
func DetectDataStart(rows [][]string, start int) (int, bool) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(rows); i++ {
		if IsDataRow(rows[i]) {
			return i, true
		}
	}
	return 0, false
}

// IsDataRow reports whether row looks like a transaction: a date cell, a
// non-zero amount cell and no noise prefix.
func IsDataRow(row []string) bool {
	if isBlankRow(row) || IsNoiseRow(row) {
		return false
	}
	hasDate, hasAmount := false, false
	for _, cell := range row {
		switch {
		case !hasDate && dateutils.IsDate(cell):
			hasDate = true
		case !hasAmount && currencyutils.IsNonZeroValue(cell):
			hasAmount = true
		}
	}
	return hasDate && hasAmount
}

// inferFormat guesses the layout of a header-less file from its first data
// rows: numeric cells at positions 3 and 4 mean credit and debit columns, a
// text cell before a numeric fifth cell means a statement export.
func inferFormat(rows [][]string) models.FormatType {
	sampled := 0
	for _, row := range rows {
		if sampled == 5 {
			break
		}
		if len(row) == 0 || !dateutils.IsDate(row[0]) {
			continue
		}
		sampled++
		if len(row) < 5 {
			return models.FormatGeneric
		}
		if isAmountOrBlank(row[3]) && isAmountOrBlank(row[4]) &&
			(currencyutils.IsNonZeroValue(row[3]) || currencyutils.IsNonZeroValue(row[4])) {
			return models.FormatLedgerCreditDebit
		}
		if !isAmountOrBlank(row[3]) && currencyutils.IsNonZeroValue(row[4]) {
			return models.FormatStatementExport
		}
	}
	return models.FormatGeneric
}

func isAmountOrBlank(cell string) bool {
	_, err := currencyutils.ParseOptionalValue(cell)
	return err == nil
}

func countInconsistent(rows [][]string, analysis models.StructureAnalysis, cells bool) int {
	if analysis.ColumnCount == 0 {
		return 0
	}
	n := 0
	for i := analysis.DataStart; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		// Spreadsheet readers drop trailing empty cells, so only wider rows count.
		if cells && len(row) <= analysis.ColumnCount {
			continue
		}
		if len(row) != analysis.ColumnCount {
			n++
		}
	}
	return n
}

func widestRow(rows [][]string) int {
	widest := 0
	for _, row := range rows {
		if len(row) > widest {
			widest = len(row)
		}
	}
	return widest
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if textutils.CollapseSpaces(cell) != "" {
			return false
		}
	}
	return true
}

func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(cell), "\ufeff"))
	}
	return out
}

// String renders a short human description used by the analyze command.
func (t *Table) String() string {
	a := t.Analysis
	sep := "cells"
	if a.Separator != 0 {
		sep = fmt.Sprintf("%q", a.Separator)
	}
	return fmt.Sprintf("format=%s separator=%s header=%d data_start=%d columns=%d",
		a.FormatType, sep, a.HeaderIndex, a.DataStart, a.ColumnCount)
}
