// Package batch handles batch processing of files
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fjacquet/statement-import/cmd/common"
	"fjacquet/statement-import/cmd/root"
	"fjacquet/statement-import/internal/batch"
	internalcommon "fjacquet/statement-import/internal/common"
	"fjacquet/statement-import/internal/fileutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	manifests    []string
	concurrency  int
	contextFlags common.ContextFlags
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch import statements and consolidate them per destination",
	Long: `Batch import many statements concurrently and write one consolidated
file per destination: one per account, or one per card and billing cycle.

Jobs come either from YAML manifests (--manifest), each listing files with
their own import context, or from every statement found in an input
directory (-i) imported with the context given on the command line.

Example:
  statement-import batch -m march.yaml -o out/
  statement-import batch -i statements/ -o out/ --target account --destination acc-1`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringSliceVarP(&manifests, "manifest", "m", nil, "Batch manifest files (YAML)")
	Cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Concurrent imports (0 means one per CPU)")
	Cmd.Flags().StringVarP(&contextFlags.Target, "target", "t", "account", "Import target for directory mode: account or card")
	Cmd.Flags().StringVarP(&contextFlags.Destination, "destination", "d", "", "Account or card identifier for directory mode")
	Cmd.Flags().StringVar(&contextFlags.BillingCycle, "billing-cycle", "", "Billing cycle key for directory mode")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	outputDir := root.SharedFlags.Output
	if outputDir == "" {
		return errors.New("an output directory is required")
	}

	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}
	logger := c.GetLogger()
	opts, err := common.OutputOptions(c.GetConfig())
	if err != nil {
		return err
	}

	jobs, err := collectJobs(manifests, root.SharedFlags.Input, contextFlags, logger)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Warn("No statements found to import")
		return nil
	}

	summary, err := Process(cmd.Context(), c.GetDispatcher(), jobs, outputDir, opts, concurrency, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Batch processing completed: %d of %d statements imported, %d consolidated files created.\n",
		summary.Imported, len(jobs), len(summary.Files))
	if summary.Imported == 0 {
		return fmt.Errorf("all %d statements failed to import", len(jobs))
	}
	return nil
}

// collectJobs builds the job list from manifests, or from every statement in
// inputDir when no manifest is given.
func collectJobs(manifestPaths []string, inputDir string, flags common.ContextFlags, logger logging.Logger) ([]batch.Job, error) {
	if len(manifestPaths) > 0 {
		return batch.NewManifestLoader(logger).LoadManifests(manifestPaths)
	}
	if inputDir == "" {
		return nil, errors.New("either --manifest or an input directory is required")
	}
	if !fileutils.DirectoryExists(inputDir) {
		return nil, fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	ictx, err := flags.Context()
	if err != nil {
		return nil, err
	}
	files, err := fileutils.ListFilesWithExtensions(inputDir, fileutils.StatementExtensions)
	if err != nil {
		return nil, err
	}
	logger.Info("Found files for processing", logging.Field{Key: logging.FieldCount, Value: len(files)})

	jobs := make([]batch.Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, batch.Job{
			File:            f,
			Target:          ictx.Target,
			DestinationID:   ictx.DestinationID,
			BillingCycleKey: ictx.BillingCycleKey,
		})
	}
	return jobs, nil
}

// Summary reports what a batch wrote.
type Summary struct {
	Imported int
	Failed   int
	// Files lists every output file written, per job and consolidated.
	Files []string
}

// Process runs jobs, writes per-job outputs where a job names one, and writes
// one consolidated file per destination into outputDir.
func Process(ctx context.Context, importer batch.Importer, jobs []batch.Job, outputDir string, opts internalcommon.WriteOptions, concurrency int, logger logging.Logger) (Summary, error) {
	if err := fileutils.EnsureDirectoryExists(outputDir); err != nil {
		return Summary{}, err
	}

	results, err := batch.NewRunner(importer, concurrency, logger).Run(ctx, jobs)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			continue
		}
		summary.Imported++
		common.LogWarnings(logger, res.Result)
		if res.Job.Output == "" {
			continue
		}
		path := res.Job.Output
		if !filepath.IsAbs(path) {
			path = filepath.Join(outputDir, path)
		}
		if err := internalcommon.WriteResultToFile(path, nil, res.Result, opts, logger); err != nil {
			logger.WithError(err).Error("Failed to write job output",
				logging.Field{Key: logging.FieldOutputFile, Value: path})
			continue
		}
		summary.Files = append(summary.Files, path)
	}

	for _, g := range batch.NewAggregator(logger).Aggregate(results) {
		if len(g.Transactions) == 0 {
			logger.Warn("No transactions found for destination", logging.Field{Key: "destination", Value: g.Key})
			continue
		}
		path := filepath.Join(outputDir, batch.OutputFilename(g, opts.Format))
		if err := internalcommon.WriteResultToFile(path, nil, groupResult(g), opts, logger); err != nil {
			logger.WithError(err).Error("Failed to write consolidated output",
				logging.Field{Key: "destination", Value: g.Key},
				logging.Field{Key: logging.FieldOutputFile, Value: path})
			continue
		}
		summary.Files = append(summary.Files, path)
	}
	return summary, nil
}

func groupResult(g batch.Group) *models.Result {
	result := &models.Result{
		ImportID:     uuid.NewString(),
		File:         strings.Join(g.Files, ","),
		Source:       "batch",
		Layout:       "consolidated",
		RowsRead:     len(g.Transactions),
		Transactions: g.Transactions,
		Warnings:     []string{},
	}
	if g.Duplicates > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d potential duplicate transactions", g.Duplicates))
	}
	return result
}
