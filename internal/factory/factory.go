// Package factory builds statement extractors by kind.
package factory

import (
	"fmt"

	"fjacquet/statement-import/internal/contextapplier"
	"fjacquet/statement-import/internal/csvparser"
	"fjacquet/statement-import/internal/excelparser"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/pdfparser"
	"fjacquet/statement-import/internal/structure"
)

// ExtractorKind names a family of statement files.
type ExtractorKind string

const (
	CSV   ExtractorKind = "csv"
	Excel ExtractorKind = "excel"
	PDF   ExtractorKind = "pdf"
)

// Kinds lists every kind in dispatch priority order. Signature based kinds
// come first because the CSV extractor also accepts extension-less text.
var Kinds = []ExtractorKind{PDF, Excel, CSV}

// Deps carries what extractors share. Zero values fall back to defaults.
type Deps struct {
	Logger          logging.Logger
	Applier         *contextapplier.Applier
	HeaderScanLines int
	MaxRows         int
	PreferredSheets []string
	PDFHandle       *pdfparser.Handle
	PDFOptions      pdfparser.Options
}

// ParseKind validates a user supplied kind.
func ParseKind(s string) (ExtractorKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown extractor kind: %s", s)
}

// GetExtractor returns a new extractor of the given kind.
func GetExtractor(kind ExtractorKind, deps Deps) (parser.FullParser, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	headerScanLines := deps.HeaderScanLines
	if headerScanLines <= 0 {
		headerScanLines = structure.DefaultHeaderScanLines
	}

	switch kind {
	case CSV:
		return csvparser.NewCSVParser(logger, headerScanLines, deps.Applier), nil
	case Excel:
		maxRows := deps.MaxRows
		if maxRows <= 0 {
			maxRows = excelparser.DefaultMaxRows
		}
		return excelparser.NewExcelParser(logger, headerScanLines, maxRows, deps.PreferredSheets, deps.Applier), nil
	case PDF:
		handle := deps.PDFHandle
		if handle == nil {
			handle = pdfparser.NewHandle(pdfparser.BackendAuto, pdfparser.DefaultLoadTimeout, logger)
		}
		return pdfparser.NewPDFParser(logger, handle, deps.Applier, deps.PDFOptions), nil
	default:
		return nil, fmt.Errorf("unknown extractor kind: %s", kind)
	}
}

// GetExtractors returns one extractor per kind, in dispatch priority order.
func GetExtractors(deps Deps) ([]parser.FullParser, error) {
	out := make([]parser.FullParser, 0, len(Kinds))
	for _, k := range Kinds {
		ext, err := GetExtractor(k, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}
