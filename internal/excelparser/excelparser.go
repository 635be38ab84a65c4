// Package excelparser extracts spreadsheet statements (XLSX and legacy XLS).
// It picks the worksheet holding the transactions, normalizes date serials
// and hands the cells to the shared tabular pipeline, whose data-start
// detection skips the title and metadata rows banks put above the header.
package excelparser

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"fjacquet/statement-import/internal/contextapplier"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/parsererror"
	"fjacquet/statement-import/internal/structure"
	"fjacquet/statement-import/internal/textutils"
)

// DefaultMaxRows bounds how many rows are read per worksheet.
const DefaultMaxRows = 10000

var (
	zipSignature = []byte("PK\x03\x04")
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ExcelParser implements parser.FullParser for workbooks.
type ExcelParser struct {
	parser.BaseParser
	*parser.Tabular
	maxRows         int
	preferredSheets []string
}

// NewExcelParser creates a workbook extractor. preferredSheets are matched
// against worksheet names before falling back to the sheet with the most
// transaction-like rows.
func NewExcelParser(logger logging.Logger, headerScanLines, maxRows int, preferredSheets []string, applier *contextapplier.Applier) *ExcelParser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	base := parser.NewBaseParser(logger)
	return &ExcelParser{
		BaseParser:      base,
		Tabular:         parser.NewTabular(headerScanLines, applier, base.GetLogger()),
		maxRows:         maxRows,
		preferredSheets: preferredSheets,
	}
}

// Name implements parser.FullParser.
func (p *ExcelParser) Name() string { return string(models.SourceExcel) }

// Accepts takes .xlsx, .xlsm and .xls files, and any file carrying the OOXML
// zip or the OLE2 compound document signature.
func (p *ExcelParser) Accepts(name string, head []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return bytes.HasPrefix(head, zipSignature) || bytes.HasPrefix(head, oleSignature)
}

// Extract reads the workbook and returns the cells of the selected sheet.
func (p *ExcelParser) Extract(ctx context.Context, name string, data []byte) (models.RawStatement, error) {
	if err := ctx.Err(); err != nil {
		return models.RawStatement{}, err
	}

	var (
		sheets []sheet
		err    error
	)
	if bytes.HasPrefix(data, oleSignature) {
		sheets, err = readXLS(data, p.maxRows)
	} else {
		sheets, err = readXLSX(data, p.maxRows)
	}
	if err != nil {
		return models.RawStatement{}, &parsererror.InvalidFormatError{
			FilePath:       name,
			ExpectedFormat: "XLSX or XLS workbook",
			Msg:            err.Error(),
		}
	}
	if len(sheets) == 0 {
		return models.RawStatement{}, parsererror.NewFatal(name, "workbook has no worksheets", parsererror.ErrEmptyStatement)
	}

	chosen, preferred := p.selectSheet(sheets)
	logger := p.GetLogger().WithFields(
		logging.Field{Key: logging.FieldFile, Value: name},
		logging.Field{Key: logging.FieldSheet, Value: chosen.name})
	if !preferred && len(sheets) > 1 {
		logger.Warn("No preferred worksheet found, using the one with most transaction rows",
			logging.Field{Key: logging.FieldCount, Value: len(sheets)})
	}

	raw := models.RawStatement{
		Name:  name,
		Size:  int64(len(data)),
		Sheet: chosen.name,
		Kind:  models.SourceExcel,
	}
	if !hasContent(chosen.rows) {
		return raw, nil
	}
	raw.Rows = chosen.rows
	raw.Lines = make([]string, len(chosen.rows))
	for i, row := range chosen.rows {
		raw.Lines[i] = strings.Join(row, "\t")
	}
	logger.Debug("Extracted worksheet", logging.Field{Key: logging.FieldCount, Value: len(raw.Rows)})
	return raw, nil
}

// selectSheet returns the first sheet whose name contains a preferred name,
// otherwise the one with the most data rows, ties going to the earlier sheet.
func (p *ExcelParser) selectSheet(sheets []sheet) (sheet, bool) {
	for _, want := range p.preferredSheets {
		for _, s := range sheets {
			if textutils.ContainsWord(s.name, want) {
				return s, true
			}
		}
	}

	best, bestCount := sheets[0], -1
	for _, s := range sheets {
		count := 0
		for _, row := range s.rows {
			if structure.IsDataRow(row) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = s, count
		}
	}
	return best, false
}

func hasContent(rows [][]string) bool {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return true
			}
		}
	}
	return false
}
