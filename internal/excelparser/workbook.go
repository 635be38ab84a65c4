package excelparser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/statement-import/internal/dateutils"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// sheet is one worksheet read as display strings.
type sheet struct {
	name string
	rows [][]string
}

// Plausible spreadsheet serial day numbers: 1954-10-03 to 2119-01-11.
const (
	minSerialDate = 20000
	maxSerialDate = 80000
)

var (
	numericCell     = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?$`)
	dateLikeDisplay = regexp.MustCompile(`(?i)\d{1,4}[/.-]\d{1,2}[/.-]\d{1,4}|\b(?:jan|feb|fev|mar|apr|abr|may|mai|jun|jul|aug|ago|sep|set|oct|out|nov|dec|dez)\b|\d{1,2}:\d{2}`)
)

// readXLSX loads every worksheet of an OOXML workbook. Each cell is read both
// formatted and raw so date serials and currency formats can be normalized.
func readXLSX(data []byte, maxRows int) ([]sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		display, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read raw values of sheet %s: %w", name, err)
		}
		if len(display) > maxRows {
			display = display[:maxRows]
		}

		rows := make([][]string, len(display))
		for i, row := range display {
			cells := make([]string, len(row))
			for j, shown := range row {
				rawValue := shown
				if i < len(raw) && j < len(raw[i]) {
					rawValue = raw[i][j]
				}
				cells[j] = normalizeCell(shown, rawValue)
			}
			rows[i] = cells
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	return sheets, nil
}

// readXLS loads every worksheet of a legacy BIFF workbook.
func readXLS(data []byte, maxRows int) ([]sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy workbook: %w", err)
	}

	var sheets []sheet
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow) && len(rows) < maxRows; r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				value := row.Col(c)
				cells = append(cells, normalizeCell(value, value))
			}
			rows = append(rows, trimTrailingEmpty(cells))
		}
		sheets = append(sheets, sheet{name: ws.Name, rows: rows})
	}
	return sheets, nil
}

// normalizeCell picks the text the tabular pipeline should see for a cell.
// Date serials shown as dates become DD/MM/YYYY, numbers shown with currency
// or grouping use their raw value rounded to cents, and RFC 3339 timestamps
// are shortened to their day.
func normalizeCell(shown, raw string) string {
	shown = strings.TrimSpace(shown)
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(time.RFC3339, shown); err == nil {
		return t.Format(dateutils.DateLayoutBrazil)
	}
	if shown == raw || !numericCell.MatchString(raw) {
		return shown
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return shown
	}
	if serial >= minSerialDate && serial < maxSerialDate && dateLikeDisplay.MatchString(shown) {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(dateutils.DateLayoutBrazil)
		}
	}
	return rawNumber(raw)
}

// rawNumber renders a raw numeric cell as a plain "1234.57" token. Integers
// are kept as they are; fractional and exponent forms are rounded to two
// decimals so "12.345" cannot read as a grouped 12345.
func rawNumber(raw string) string {
	if !strings.ContainsAny(raw, ".eE") {
		return raw
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
