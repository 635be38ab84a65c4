// Package parser defines the contracts every statement extractor implements,
// the shared tabular pipeline used by CSV and spreadsheet sources, and the
// Dispatcher that routes a file to the first extractor accepting it.
package parser

import (
	"fjacquet/statement-import/internal/logging"
)

// BaseParser provides common functionality for all extractor implementations.
// Extractors embed it to share logger handling:
//
//	type MyExtractor struct {
//		parser.BaseParser
//		// extractor-specific fields
//	}
type BaseParser struct {
	logger logging.Logger
}

// NewBaseParser creates a new BaseParser instance with the provided logger.
// If logger is nil, a default logger will be used.
func NewBaseParser(logger logging.Logger) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	return BaseParser{
		logger: logger,
	}
}

// SetLogger implements the LoggerConfigurable interface.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}
