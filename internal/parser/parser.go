package parser

import (
	"context"

	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
	"fjacquet/statement-import/internal/parsererror"
)

// Sniffer decides whether a file belongs to an extractor, from its name and
// the first bytes of its content.
type Sniffer interface {
	Accepts(name string, head []byte) bool
}

// Extractor reads the raw lines of a file. Errors are FatalErrors: the file
// cannot be read as the kind the extractor handles.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (models.RawStatement, error)
}

// Validator checks a raw statement before parsing. A returned error aborts
// the import; warnings are surfaced and parsing goes on.
type Validator interface {
	Validate(raw models.RawStatement) ([]parsererror.ValidationWarning, error)
}

// Parser turns a validated raw statement into canonical transactions for the
// given import context.
type Parser interface {
	Parse(ctx context.Context, raw models.RawStatement, ictx models.ImportContext) (Outcome, error)
}

// LoggerConfigurable defines the interface for components that accept a logger.
type LoggerConfigurable interface {
	SetLogger(logger logging.Logger)
}

// FullParser is everything the Dispatcher needs from one file kind.
type FullParser interface {
	Sniffer
	Extractor
	Validator
	Parser
	LoggerConfigurable
	Name() string
}

// Outcome is the result of parsing one raw statement.
type Outcome struct {
	Transactions []models.CanonicalTransaction
	// Layout is the detected FormatType or PDF layout.
	Layout   string
	RowsRead int
	// Skipped holds one error per row that produced no transaction.
	Skipped  []error
	Warnings []parsererror.ValidationWarning
}
