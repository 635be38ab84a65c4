// Package parsererror defines the error taxonomy of the import pipeline.
//
// FatalError and ValidationError abort an import. ValidationWarning and
// RowError never abort: warnings are surfaced to the caller and row errors
// are aggregated into a single "rows skipped" warning.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFileKind is returned when no registered extractor accepts a file.
	ErrUnsupportedFileKind = errors.New("unsupported file kind")
	// ErrEmptyStatement is returned when a file yields no extractable lines.
	ErrEmptyStatement = errors.New("no extractable lines")
)

// FatalError aborts an import: unreadable file, unknown file kind, empty content.
type FatalError struct {
	FilePath string
	Reason   string
	Err      error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal error for %s: %s: %v", e.FilePath, e.Reason, e.Err)
	}
	return fmt.Sprintf("fatal error for %s: %s", e.FilePath, e.Reason)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal builds a FatalError wrapping cause.
func NewFatal(filePath, reason string, cause error) *FatalError {
	return &FatalError{FilePath: filePath, Reason: reason, Err: cause}
}

// ValidationError aborts an import because the statement structure cannot be
// used: separator undetectable, required column missing entirely.
type ValidationError struct {
	FilePath string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.FilePath, e.Reason)
}

// WarningCode classifies non-fatal findings.
type WarningCode string

const (
	WarnHeaderNotDetected   WarningCode = "header_not_detected"
	WarnInconsistentColumns WarningCode = "inconsistent_columns"
	WarnLowYield            WarningCode = "low_yield"
	WarnRowsSkipped         WarningCode = "rows_skipped"
	WarnPositionalMapping   WarningCode = "positional_mapping"
	WarnLayoutFallback      WarningCode = "layout_fallback"
	WarnSheetFallback       WarningCode = "sheet_fallback"
)

// ValidationWarning is surfaced to the caller but never aborts parsing.
type ValidationWarning struct {
	Code    WarningCode
	Message string
}

func (w ValidationWarning) String() string {
	return w.Message
}

// Warn builds a ValidationWarning with a formatted message.
func Warn(code WarningCode, format string, args ...interface{}) ValidationWarning {
	return ValidationWarning{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RowError describes why a single row was skipped.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: failed to parse %s='%s': %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// InvalidFormatError reports content that does not match the extractor it was
// routed to, for example a corrupt workbook behind an .xlsx extension.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// SkippedRowsWarning aggregates row errors into one warning. It returns false
// when nothing was skipped.
func SkippedRowsWarning(rowErrs []error) (ValidationWarning, bool) {
	if len(rowErrs) == 0 {
		return ValidationWarning{}, false
	}
	reasons := make(map[string]int)
	var order []string
	for _, err := range rowErrs {
		reason := "noise"
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			reason = rowErr.Field
		}
		if _, seen := reasons[reason]; !seen {
			order = append(order, reason)
		}
		reasons[reason]++
	}
	parts := make([]string, 0, len(order))
	for _, reason := range order {
		parts = append(parts, fmt.Sprintf("%s: %d", reason, reasons[reason]))
	}
	return Warn(WarnRowsSkipped, "%d rows skipped (%s)", len(rowErrs), strings.Join(parts, ", ")), true
}

// Messages renders warnings as the plain strings handed to the caller.
func Messages(warnings []ValidationWarning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Message)
	}
	return out
}
