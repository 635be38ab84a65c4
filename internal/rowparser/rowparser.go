// Package rowparser turns the data rows of an analyzed table into drafts.
// There is one parse function per FormatType; Parse picks it once per file.
package rowparser

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/statement-import/internal/currencyutils"
	"fjacquet/statement-import/internal/dateutils"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/structure"
	"fjacquet/statement-import/internal/textutils"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyDescription means the description cell is blank.
	ErrEmptyDescription = errors.New("description is empty")
	// ErrZeroValue means the value cell parsed to zero.
	ErrZeroValue = errors.New("value is zero")
	// ErrBalanceOnly means neither the credit nor the debit cell holds an amount.
	ErrBalanceOnly = errors.New("both credit and debit are zero")
	// ErrAmbiguousAmounts means both the credit and the debit cell hold an amount.
	ErrAmbiguousAmounts = errors.New("both credit and debit are populated")
	// ErrNoiseRow means the row is a summary or metadata line.
	ErrNoiseRow = errors.New("summary or metadata row")
)

// Input is what the row parsers read for one file.
type Input struct {
	Table   *structure.Table
	Mapping models.ColumnMapping
	// Source tags every draft with its provenance, e.g. "csv/generic".
	Source string
	// Lines holds the raw text lines aligned with Table.Rows. Spreadsheet
	// sources leave it nil and the cells are joined instead.
	Lines []string
}

// Outcome collects the drafts of one file and the reasons rows were skipped.
type Outcome struct {
	Drafts   []models.Draft
	Skipped  []error
	RowsRead int
}

type rowFunc func(row []string, rowNum int, m models.ColumnMapping) (models.Draft, error)

func parserFor(format models.FormatType) (rowFunc, error) {
	switch format {
	case models.FormatGeneric:
		return parseGeneric, nil
	case models.FormatLedgerCreditDebit:
		return parseLedger, nil
	case models.FormatStatementExport:
		return parseStatementExport, nil
	}
	return nil, fmt.Errorf("no row parser for format type %q", format)
}

// Parse runs the row parser of the table's FormatType over every data row.
// Rows that fail are never fatal: their errors are collected in Skipped.
func Parse(in Input) (Outcome, error) {
	parse, err := parserFor(in.Table.Analysis.FormatType)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	start := in.Table.Analysis.DataStart
	for i, row := range in.Table.DataRows() {
		idx := start + i
		if blank(row) {
			continue
		}
		out.RowsRead++
		draft, err := parse(row, idx+1, in.Mapping)
		if err != nil {
			out.Skipped = append(out.Skipped, err)
			continue
		}
		draft.Source = in.Source
		draft.SourceLine = sourceLine(in, idx, row)
		draft.Row = idx
		out.Drafts = append(out.Drafts, draft)
	}
	return out, nil
}

func parseGeneric(row []string, rowNum int, m models.ColumnMapping) (models.Draft, error) {
	date, desc, err := dateAndDescription(row, rowNum, m)
	if err != nil {
		return models.Draft{}, err
	}
	cell := m.Cell(row, models.FieldValue)
	value, err := currencyutils.ParseValue(cell)
	if err != nil {
		return models.Draft{}, rowErr(rowNum, models.FieldValue, cell, err)
	}
	if value.IsZero() {
		return models.Draft{}, rowErr(rowNum, models.FieldValue, cell, ErrZeroValue)
	}
	return models.Draft{
		Date:        date,
		Description: desc,
		Magnitude:   value.Abs(),
		Kind:        models.KindFromSign(value),
		Notes:       referenceNote(row, m),
	}, nil
}

func parseLedger(row []string, rowNum int, m models.ColumnMapping) (models.Draft, error) {
	date, desc, err := dateAndDescription(row, rowNum, m)
	if err != nil {
		return models.Draft{}, err
	}
	credit, err := optionalAmount(row, rowNum, m, models.FieldCredit)
	if err != nil {
		return models.Draft{}, err
	}
	debit, err := optionalAmount(row, rowNum, m, models.FieldDebit)
	if err != nil {
		return models.Draft{}, err
	}

	draft := models.Draft{Date: date, Description: desc, Notes: referenceNote(row, m)}
	switch {
	case credit.IsZero() && debit.IsZero():
		return models.Draft{}, rowErr(rowNum, "credit/debit", "", ErrBalanceOnly)
	case !credit.IsZero() && !debit.IsZero():
		return models.Draft{}, rowErr(rowNum, "credit/debit",
			m.Cell(row, models.FieldCredit)+"/"+m.Cell(row, models.FieldDebit), ErrAmbiguousAmounts)
	case !credit.IsZero():
		draft.Magnitude, draft.Kind = credit.Abs(), models.KindIncome
	default:
		draft.Magnitude, draft.Kind = debit.Abs(), models.KindExpense
	}
	return draft, nil
}

// exportNoise marks the narrative rows statement exports interleave with
// transactions. Matched against the label, category and description cells.
var exportNoise = []string{
	"daily balance", "statement period", "account holder", "saldo do dia",
	"saldo anterior", "saldo final", "saldo disponivel", "periodo do extrato",
}

func parseStatementExport(row []string, rowNum int, m models.ColumnMapping) (models.Draft, error) {
	category := strings.TrimSpace(m.Cell(row, models.FieldCategory))
	label := strings.TrimSpace(m.Cell(row, models.FieldLabel))
	for _, text := range []string{label, category, m.Cell(row, models.FieldDescription)} {
		if textutils.ContainsAnyWord(text, exportNoise) {
			return models.Draft{}, fmt.Errorf("row %d: %w: %q", rowNum, ErrNoiseRow, text)
		}
	}

	draft, err := parseGeneric(row, rowNum, m)
	if err != nil {
		return models.Draft{}, err
	}
	var notes []string
	if category != "" {
		notes = append(notes, "category: "+category)
	}
	if label != "" {
		notes = append(notes, "label: "+label)
	}
	draft.Notes = strings.Join(notes, "; ")
	return draft, nil
}

func dateAndDescription(row []string, rowNum int, m models.ColumnMapping) (dateutils.Date, string, error) {
	cell := m.Cell(row, models.FieldDate)
	date, err := dateutils.ParseDateString(cell)
	if err != nil {
		return dateutils.Date{}, "", rowErr(rowNum, models.FieldDate, cell, err)
	}
	desc := textutils.CollapseSpaces(m.Cell(row, models.FieldDescription))
	if desc == "" {
		return dateutils.Date{}, "", rowErr(rowNum, models.FieldDescription, "", ErrEmptyDescription)
	}
	return date, desc, nil
}

func optionalAmount(row []string, rowNum int, m models.ColumnMapping, field models.Field) (decimal.Decimal, error) {
	cell := m.Cell(row, field)
	v, err := currencyutils.ParseOptionalValue(cell)
	if err != nil {
		return decimal.Zero, rowErr(rowNum, field, cell, err)
	}
	return v, nil
}

func referenceNote(row []string, m models.ColumnMapping) string {
	if ref := strings.TrimSpace(m.Cell(row, models.FieldDocumentRef)); ref != "" {
		return "ref: " + ref
	}
	return ""
}

func rowErr[F ~string](rowNum int, field F, value string, err error) error {
	return &parsererror.RowError{Row: rowNum, Field: string(field), Value: value, Err: err}
}

func sourceLine(in Input, idx int, row []string) string {
	if idx < len(in.Lines) {
		return strings.TrimSpace(in.Lines[idx])
	}
	return strings.Join(row, " | ")
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
