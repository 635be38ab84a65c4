// Package analyze implements the analyze command, a dry run of the structure
// analysis that reports what the import would see in a statement.
package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"fjacquet/statement-import/cmd/common"
	"fjacquet/statement-import/cmd/root"
	"fjacquet/statement-import/internal/factory"
	"fjacquet/statement-import/internal/fileutils"
	"fjacquet/statement-import/internal/parser"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var kind string

// Cmd represents the analyze command
var Cmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze the structure of a statement without importing it",
	Long: `Analyze extracts a statement and reports its detected structure: the
separator, header row, format type and column mapping for tabular files, or
the detected layout and candidate lines for PDF statements.

The report is written as YAML, or JSON with --format json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: analyzeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&kind, "kind", "k", "", "Force the extractor: csv, excel or pdf")
}

func analyzeFunc(cmd *cobra.Command, args []string) error {
	input := root.SharedFlags.Input
	if len(args) > 0 {
		input = args[0]
	}
	if input == "" {
		return errors.New("an input file is required")
	}

	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}
	data, err := fileutils.ReadStatement(input)
	if err != nil {
		return err
	}
	name := filepath.Base(input)

	var ext parser.FullParser
	if kind == "" {
		ext, err = c.GetDispatcher().Select(name, data)
	} else {
		var k factory.ExtractorKind
		if k, err = factory.ParseKind(kind); err == nil {
			ext, err = c.GetExtractor(k)
		}
	}
	if err != nil {
		return err
	}

	report, err := Analyze(cmd.Context(), ext, name, data)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", input, err)
	}
	return Render(cmd.OutOrStdout(), report, root.SharedFlags.Format)
}

// Render writes report as JSON when format is "json", YAML otherwise.
func Render(w io.Writer, report *Report, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return err
	}
	return encoder.Close()
}
