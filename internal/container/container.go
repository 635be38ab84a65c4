// Package container provides dependency injection for the statement importer.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"
	"time"

	"fjacquet/statement-import/internal/config"
	"fjacquet/statement-import/internal/contextapplier"
	"fjacquet/statement-import/internal/factory"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/parser"
	"fjacquet/statement-import/internal/pdfparser"

	"github.com/shopspring/decimal"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation. The PDF text backend handle is the
// only state shared by concurrent imports; it is created here exactly once.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	applier    *contextapplier.Applier
	pdfHandle  *pdfparser.Handle
	extractors map[factory.ExtractorKind]parser.FullParser
	dispatcher *parser.Dispatcher
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithClock(cfg, time.Now)
}

// NewContainerWithClock is NewContainer with an explicit clock, used to
// decide settlement and to date PDF statements without a printed year.
func NewContainerWithClock(cfg *config.Config, now func() time.Time) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	applier := contextapplier.New(now)
	handle := pdfparser.NewHandle(cfg.PDF.Backend, cfg.PDF.LoadTimeout, logger)

	deps := factory.Deps{
		Logger:          logger,
		Applier:         applier,
		HeaderScanLines: cfg.Structure.HeaderScanLines,
		MaxRows:         cfg.Excel.MaxRows,
		PreferredSheets: cfg.Excel.PreferredSheets,
		PDFHandle:       handle,
		PDFOptions: pdfparser.Options{
			MinAmount:    decimal.NewFromFloat(cfg.PDF.MinAmount),
			MaxAmount:    decimal.NewFromFloat(cfg.PDF.MaxAmount),
			Merchants:    cfg.PDF.Merchants,
			IssuerTokens: cfg.PDF.IssuerTokens,
			Now:          now,
		},
	}

	dispatcher := parser.NewDispatcher(cfg.Structure.LowYieldRatio, logger)
	extractors := make(map[factory.ExtractorKind]parser.FullParser, len(factory.Kinds))
	for _, kind := range factory.Kinds {
		ext, err := factory.GetExtractor(kind, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s extractor: %w", kind, err)
		}
		extractors[kind] = ext
		dispatcher.Register(ext)
	}

	logger.Debug("Container initialized successfully",
		logging.Field{Key: "extractors_count", Value: len(extractors)},
		logging.Field{Key: logging.FieldBackend, Value: cfg.PDF.Backend})

	return &Container{
		logger:     logger,
		config:     cfg,
		applier:    applier,
		pdfHandle:  handle,
		extractors: extractors,
		dispatcher: dispatcher,
	}, nil
}

// GetExtractor returns the extractor of the given kind.
func (c *Container) GetExtractor(kind factory.ExtractorKind) (parser.FullParser, error) {
	p, ok := c.extractors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown extractor kind: %s", kind)
	}
	return p, nil
}

// GetExtractors returns a copy of the extractor registry.
func (c *Container) GetExtractors() map[factory.ExtractorKind]parser.FullParser {
	result := make(map[factory.ExtractorKind]parser.FullParser, len(c.extractors))
	for k, v := range c.extractors {
		result[k] = v
	}
	return result
}

// GetDispatcher returns the dispatcher with every extractor registered.
func (c *Container) GetDispatcher() *parser.Dispatcher {
	return c.dispatcher
}

// GetPDFHandle returns the shared PDF text backend handle.
func (c *Container) GetPDFHandle() *pdfparser.Handle {
	return c.pdfHandle
}

// GetApplier returns the context applier shared by every extractor.
func (c *Container) GetApplier() *contextapplier.Applier {
	return c.applier
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
