package batch

import (
	"context"
	"runtime"

	"fjacquet/statement-import/internal/fileutils"
	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"

	"golang.org/x/sync/errgroup"
)

// Importer imports one in-memory statement. parser.Dispatcher implements it.
type Importer interface {
	ImportBytes(ctx context.Context, name string, data []byte, ictx models.ImportContext) (*models.Result, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(ctx context.Context, name string, data []byte, ictx models.ImportContext) (*models.Result, error)

// ImportBytes implements Importer.
func (f ImporterFunc) ImportBytes(ctx context.Context, name string, data []byte, ictx models.ImportContext) (*models.Result, error) {
	return f(ctx, name, data, ictx)
}

// JobResult is the outcome of one job. Exactly one of Result and Err is set.
type JobResult struct {
	Job    Job
	Result *models.Result
	Err    error
}

// Runner imports jobs concurrently. Jobs share nothing but the importer.
type Runner struct {
	importer    Importer
	concurrency int
	logger      logging.Logger
}

// NewRunner creates a Runner. A concurrency below one means GOMAXPROCS.
func NewRunner(importer Importer, concurrency int, logger logging.Logger) *Runner {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Runner{importer: importer, concurrency: concurrency, logger: logger}
}

// Run imports every job and returns their results in job order. A failed
// job does not stop the others; only cancelling ctx does.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runOne(gctx, job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("Batch completed",
		logging.Field{Key: logging.FieldCount, Value: len(jobs)},
		logging.Field{Key: "failed", Value: failed})
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, job Job) JobResult {
	data, err := fileutils.ReadStatement(job.File)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to read statement",
			logging.Field{Key: logging.FieldFile, Value: job.File})
		return JobResult{Job: job, Err: err}
	}
	result, err := r.importer.ImportBytes(ctx, job.File, data, job.Context())
	if err != nil {
		r.logger.WithError(err).Warn("Import failed",
			logging.Field{Key: logging.FieldFile, Value: job.File})
		return JobResult{Job: job, Err: err}
	}
	return JobResult{Job: job, Result: result}
}
