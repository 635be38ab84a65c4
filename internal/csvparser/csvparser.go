// Package csvparser extracts delimited text statements (CSV, TSV, TXT). Lines
// are decoded to UTF-8 and handed to the shared tabular pipeline.
package csvparser

import (
	"context"
	"path/filepath"
	"strings"

	"fjacquet/statement-import/internal/contextapplier"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/parsererror"
)

var extensions = map[string]bool{".csv": true, ".tsv": true, ".txt": true}

// CSVParser implements parser.FullParser for delimited text files.
type CSVParser struct {
	parser.BaseParser
	*parser.Tabular
}

// NewCSVParser creates a CSV extractor scanning headerScanLines for a header.
func NewCSVParser(logger logging.Logger, headerScanLines int, applier *contextapplier.Applier) *CSVParser {
	base := parser.NewBaseParser(logger)
	return &CSVParser{
		BaseParser: base,
		Tabular:    parser.NewTabular(headerScanLines, applier, base.GetLogger()),
	}
}

// Name implements parser.FullParser.
func (p *CSVParser) Name() string { return string(models.SourceCSV) }

// Accepts takes .csv, .tsv and .txt files, and extension-less files whose
// first bytes look like text.
func (p *CSVParser) Accepts(name string, head []byte) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if extensions[ext] {
		return true
	}
	return ext == "" && looksLikeText(head)
}

// Extract decodes data and splits it into lines. Trailing blank lines are
// dropped; the rest keep their position so row numbers match the file.
func (p *CSVParser) Extract(ctx context.Context, name string, data []byte) (models.RawStatement, error) {
	if err := ctx.Err(); err != nil {
		return models.RawStatement{}, err
	}
	text, enc, err := DecodeText(data)
	if err != nil {
		return models.RawStatement{}, parsererror.NewFatal(name, "unreadable text encoding", err)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	p.GetLogger().Debug("Extracted text statement",
		logging.Field{Key: logging.FieldFile, Value: name},
		logging.Field{Key: logging.FieldEncoding, Value: enc},
		logging.Field{Key: logging.FieldCount, Value: len(lines)})

	return models.RawStatement{
		Name:     name,
		Size:     int64(len(data)),
		Encoding: enc,
		Kind:     models.SourceCSV,
		Lines:    lines,
	}, nil
}
