// Package importcmd implements the import command: one statement file in,
// canonical transactions out.
package importcmd

import (
	"errors"
	"fmt"

	"fjacquet/statement-import/cmd/common"
	"fjacquet/statement-import/cmd/root"
	internalcommon "fjacquet/statement-import/internal/common"

	"github.com/spf13/cobra"
)

var (
	contextFlags common.ContextFlags
	kind         string
	summary      bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import one statement file",
	Long: `Import a CSV, Excel or PDF statement and write the canonical transactions.

The extractor is chosen from the file name and content unless --kind forces one.
Every transaction is routed to the destination given on the command line.

Examples:
  statement-import import extrato.csv --target account --destination acc-1
  statement-import import fatura.pdf --target card --destination card-1 --billing-cycle 2024-05 -f csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&contextFlags.Target, "target", "t", "account", "Import target: account or card")
	Cmd.Flags().StringVarP(&contextFlags.Destination, "destination", "d", "", "Account or card identifier")
	Cmd.Flags().StringVar(&contextFlags.BillingCycle, "billing-cycle", "", "Billing cycle key, required for card imports")
	Cmd.Flags().StringVarP(&kind, "kind", "k", "", "Force the extractor: csv, excel or pdf")
	Cmd.Flags().BoolVar(&summary, "summary", false, "Print a human summary to stderr")
}

func importFunc(cmd *cobra.Command, args []string) error {
	input := root.SharedFlags.Input
	if len(args) > 0 {
		input = args[0]
	}
	if input == "" {
		return errors.New("an input file is required")
	}

	ictx, err := contextFlags.Context()
	if err != nil {
		return err
	}

	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}
	cfg := c.GetConfig()
	opts, err := common.OutputOptions(cfg)
	if err != nil {
		return err
	}

	logger := c.GetLogger()
	result, err := common.ImportFile(cmd.Context(), c, input, kind, ictx)
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", input, err)
	}
	common.LogWarnings(logger, result)

	if err := internalcommon.WriteResultToFile(root.SharedFlags.Output, cmd.OutOrStdout(), result, opts, logger); err != nil {
		return err
	}
	if summary {
		fmt.Fprint(cmd.ErrOrStderr(), internalcommon.Summary(result, cfg.Output.Currency))
	}
	return nil
}
