package parser

import (
	"context"
	"fmt"
	"io"
	"time"

	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"

	"github.com/google/uuid"
)

// sniffLength is how many leading bytes are offered to Sniffer.Accepts.
const sniffLength = 512

// DefaultLowYieldRatio is the transactions per data row ratio under which a
// low-yield warning is raised.
const DefaultLowYieldRatio = 0.5

// Dispatcher routes a file to the first registered extractor that accepts it
// and runs extract, validate and parse in sequence. It is safe for concurrent
// use once all extractors are registered.
type Dispatcher struct {
	extractors    []FullParser
	lowYieldRatio float64
	logger        logging.Logger
}

// NewDispatcher creates a Dispatcher with no extractors.
func NewDispatcher(lowYieldRatio float64, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Dispatcher{lowYieldRatio: lowYieldRatio, logger: logger}
}

// Register appends extractors. Registration order is selection priority.
func (d *Dispatcher) Register(extractors ...FullParser) {
	d.extractors = append(d.extractors, extractors...)
}

// Extractors returns the registered extractors in priority order.
func (d *Dispatcher) Extractors() []FullParser {
	out := make([]FullParser, len(d.extractors))
	copy(out, d.extractors)
	return out
}

// Select returns the first extractor accepting the file, or a FatalError
// wrapping ErrUnsupportedFileKind.
func (d *Dispatcher) Select(name string, data []byte) (FullParser, error) {
	head := data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	for _, ext := range d.extractors {
		if ext.Accepts(name, head) {
			return ext, nil
		}
	}
	return nil, parsererror.NewFatal(name, "no extractor accepts this file", parsererror.ErrUnsupportedFileKind)
}

// Import reads r fully and imports it with the first accepting extractor.
func (d *Dispatcher) Import(ctx context.Context, name string, r io.Reader, ictx models.ImportContext) (*models.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parsererror.NewFatal(name, "unreadable file", err)
	}
	return d.ImportBytes(ctx, name, data, ictx)
}

// ImportBytes imports a statement already held in memory.
func (d *Dispatcher) ImportBytes(ctx context.Context, name string, data []byte, ictx models.ImportContext) (*models.Result, error) {
	ext, err := d.Select(name, data)
	if err != nil {
		return nil, err
	}
	return d.ImportWith(ctx, ext, name, data, ictx)
}

// ImportWith runs the whole pipeline with the given extractor, skipping
// selection.
func (d *Dispatcher) ImportWith(ctx context.Context, ext FullParser, name string, data []byte, ictx models.ImportContext) (*models.Result, error) {
	start := time.Now()
	if err := ictx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid import context: %w", err)
	}
	if len(data) == 0 {
		return nil, parsererror.NewFatal(name, "empty file", parsererror.ErrEmptyStatement)
	}

	logger := d.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: name},
		logging.Field{Key: logging.FieldExtractor, Value: ext.Name()})

	raw, err := ext.Extract(ctx, name, data)
	if err != nil {
		if parsererror.IsFatal(err) {
			return nil, err
		}
		return nil, parsererror.NewFatal(name, "extraction failed", err)
	}
	if len(raw.Lines) == 0 && len(raw.Rows) == 0 {
		return nil, parsererror.NewFatal(name, "nothing to import", parsererror.ErrEmptyStatement)
	}

	warnings, err := ext.Validate(raw)
	if err != nil {
		logger.WithError(err).Warn("Statement failed validation")
		return nil, err
	}

	outcome, err := ext.Parse(ctx, raw, ictx)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, outcome.Warnings...)

	if w, ok := parsererror.SkippedRowsWarning(outcome.Skipped); ok {
		warnings = append(warnings, w)
	}
	if outcome.RowsRead > 0 {
		ratio := float64(len(outcome.Transactions)) / float64(outcome.RowsRead)
		if ratio < d.lowYieldRatio {
			warnings = append(warnings, parsererror.Warn(parsererror.WarnLowYield,
				"only %d transactions from %d data rows", len(outcome.Transactions), outcome.RowsRead))
		}
	}

	result := &models.Result{
		ImportID:     uuid.NewString(),
		File:         name,
		Source:       ext.Name(),
		Layout:       outcome.Layout,
		RowsRead:     outcome.RowsRead,
		RowsSkipped:  len(outcome.Skipped),
		Transactions: outcome.Transactions,
		Warnings:     parsererror.Messages(warnings),
	}
	if result.Transactions == nil {
		result.Transactions = []models.CanonicalTransaction{}
	}

	logger.Info("Import completed",
		logging.Field{Key: logging.FieldImportID, Value: result.ImportID},
		logging.Field{Key: logging.FieldLayout, Value: result.Layout},
		logging.Field{Key: logging.FieldCount, Value: len(result.Transactions)},
		logging.Field{Key: logging.FieldSkipped, Value: result.RowsSkipped},
		logging.Field{Key: logging.FieldTarget, Value: ictx.Target},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).String()})
	return result, nil
}
