package parser

import (
	"context"
	"fmt"

	"fjacquet/statement-import/internal/contextapplier"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/rowparser"
	"fjacquet/statement-import/internal/structure"
)

// Tabular is the validate and parse pipeline shared by line and cell based
// statements: structure analysis, column mapping, row parsing and context
// application. It holds no per-file state.
type Tabular struct {
	analyzer *structure.Analyzer
	applier  *contextapplier.Applier
	logger   logging.Logger
}

// NewTabular creates the pipeline. headerScanLines bounds header detection.
func NewTabular(headerScanLines int, applier *contextapplier.Applier, logger logging.Logger) *Tabular {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if applier == nil {
		applier = contextapplier.New(nil)
	}
	return &Tabular{
		analyzer: structure.NewAnalyzer(headerScanLines, logger),
		applier:  applier,
		logger:   logger,
	}
}

// Analyze returns the table, its column mapping and every structural warning.
func (t *Tabular) Analyze(raw models.RawStatement) (*structure.Table, models.ColumnMapping, []parsererror.ValidationWarning, error) {
	table, err := t.analyzer.Analyze(raw)
	if err != nil {
		return nil, models.ColumnMapping{}, nil, err
	}
	mapping, mappingWarnings, err := structure.BuildMapping(raw.Name, table.Analysis)
	warnings := append(append([]parsererror.ValidationWarning{}, table.Warnings...), mappingWarnings...)
	if err != nil {
		return table, models.ColumnMapping{}, warnings, err
	}
	return table, mapping, warnings, nil
}

// Validate implements Validator.
func (t *Tabular) Validate(raw models.RawStatement) ([]parsererror.ValidationWarning, error) {
	_, _, warnings, err := t.Analyze(raw)
	return warnings, err
}

// Parse implements Parser. Structural warnings are reported by Validate and
// are not repeated here.
func (t *Tabular) Parse(ctx context.Context, raw models.RawStatement, ictx models.ImportContext) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	table, mapping, _, err := t.Analyze(raw)
	if err != nil {
		return Outcome{}, err
	}

	source := fmt.Sprintf("%s/%s", raw.Kind, table.Analysis.FormatType)
	in := rowparser.Input{Table: table, Mapping: mapping, Source: source}
	if !raw.HasCells() {
		in.Lines = raw.Lines
	}
	rows, err := rowparser.Parse(in)
	if err != nil {
		return Outcome{}, err
	}

	txs, rejected, err := t.applier.Apply(rows.Drafts, ictx)
	if err != nil {
		return Outcome{}, err
	}

	t.logger.Debug("Parsed tabular statement",
		logging.Field{Key: logging.FieldFile, Value: raw.Name},
		logging.Field{Key: logging.FieldFormatType, Value: table.Analysis.FormatType},
		logging.Field{Key: logging.FieldCount, Value: len(txs)},
		logging.Field{Key: logging.FieldSkipped, Value: len(rows.Skipped) + len(rejected)})

	return Outcome{
		Transactions: txs,
		Layout:       string(table.Analysis.FormatType),
		RowsRead:     rows.RowsRead,
		Skipped:      append(rows.Skipped, rejected...),
	}, nil
}
