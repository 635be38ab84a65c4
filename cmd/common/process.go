// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fjacquet/statement-import/internal/common"
	"fjacquet/statement-import/internal/config"
	"fjacquet/statement-import/internal/container"
	"fjacquet/statement-import/internal/factory"
	"fjacquet/statement-import/internal/fileutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"
)

// ErrNoContainer is returned when a command runs before the root command
// initialised the application.
var ErrNoContainer = errors.New("application container is not initialised")

// ContextFlags holds the import context flags shared by import and analyze.
type ContextFlags struct {
	Target       string
	Destination  string
	BillingCycle string
}

// Context validates the flags and returns the import context.
func (f ContextFlags) Context() (models.ImportContext, error) {
	ictx := models.ImportContext{
		Target:          models.TargetKind(strings.ToLower(strings.TrimSpace(f.Target))),
		DestinationID:   strings.TrimSpace(f.Destination),
		BillingCycleKey: strings.TrimSpace(f.BillingCycle),
	}
	if !ictx.IsCard() {
		ictx.BillingCycleKey = ""
	}
	if err := ictx.Validate(); err != nil {
		return models.ImportContext{}, err
	}
	return ictx, nil
}

// ImportFile reads path and imports it. An empty kind lets the dispatcher
// pick the extractor; otherwise the named extractor is forced.
func ImportFile(ctx context.Context, c *container.Container, path, kind string, ictx models.ImportContext) (*models.Result, error) {
	if c == nil {
		return nil, ErrNoContainer
	}
	data, err := fileutils.ReadStatement(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if kind == "" {
		return c.GetDispatcher().ImportBytes(ctx, name, data, ictx)
	}

	k, err := factory.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	ext, err := c.GetExtractor(k)
	if err != nil {
		return nil, err
	}
	return c.GetDispatcher().ImportWith(ctx, ext, name, data, ictx)
}

// OutputOptions validates the output section and returns the write options.
func OutputOptions(cfg *config.Config) (common.WriteOptions, error) {
	format := strings.ToLower(cfg.Output.Format)
	switch format {
	case common.FormatJSON, common.FormatYAML, common.FormatCSV:
	default:
		return common.WriteOptions{}, fmt.Errorf("invalid output format %q: must be json, yaml or csv", cfg.Output.Format)
	}
	delim := []rune(cfg.Output.Delimiter)
	if len(delim) != 1 {
		return common.WriteOptions{}, fmt.Errorf("output delimiter must be a single character, got: %q", cfg.Output.Delimiter)
	}
	return common.WriteOptions{Format: format, Delimiter: delim[0]}, nil
}

// LogWarnings surfaces the warnings of one import.
func LogWarnings(log logging.Logger, result *models.Result) {
	for _, w := range result.Warnings {
		log.Warn(w,
			logging.Field{Key: logging.FieldInputFile, Value: result.File},
			logging.Field{Key: logging.FieldImportID, Value: result.ImportID})
	}
}
