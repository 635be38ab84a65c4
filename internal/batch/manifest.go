// Package batch runs many independent statement imports concurrently and
// consolidates their results per destination.
package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/statement-import/internal/logging"
	"fjacquet/statement-import/internal/models"

	"gopkg.in/yaml.v3"
)

// Job is one file to import with its context.
type Job struct {
	File            string            `yaml:"file"`
	Target          models.TargetKind `yaml:"target"`
	DestinationID   string            `yaml:"destination_id"`
	BillingCycleKey string            `yaml:"billing_cycle_key,omitempty"`
	// Output optionally names a per-job result file.
	Output string `yaml:"output,omitempty"`
}

// Context returns the import context of the job.
func (j Job) Context() models.ImportContext {
	return models.ImportContext{
		Target:          j.Target,
		DestinationID:   j.DestinationID,
		BillingCycleKey: j.BillingCycleKey,
	}
}

// ManifestLoader reads YAML batch manifests:
//
//	jobs:
//	  - file: nubank-2024-03.pdf
//	    target: card
//	    destination_id: card-1
//	    billing_cycle_key: 2024-03
type ManifestLoader struct {
	logger logging.Logger
}

// NewManifestLoader creates a new ManifestLoader.
func NewManifestLoader(logger logging.Logger) *ManifestLoader {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &ManifestLoader{
		logger: logger.WithField("component", "ManifestLoader"),
	}
}

// LoadManifests loads every manifest and returns their jobs in order. Job
// files are resolved relative to their manifest. A job with an invalid
// context, or a file listed twice, fails the whole load.
func (l *ManifestLoader) LoadManifests(filePaths []string) ([]Job, error) {
	var all []Job
	for _, filePath := range filePaths {
		l.logger.WithField("file", filePath).Debug("Loading batch manifest")
		jobs, err := l.loadManifest(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifest %s: %w", filePath, err)
		}
		all = append(all, jobs...)
	}

	seen := make(map[string]bool, len(all))
	for _, j := range all {
		if seen[j.File] {
			return nil, fmt.Errorf("duplicate statement file in manifests: %s", j.File)
		}
		seen[j.File] = true
	}
	return all, nil
}

func (l *ManifestLoader) loadManifest(filePath string) ([]Job, error) {
	// #nosec G304 -- manifest path supplied by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var manifest struct {
		Jobs []Job `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	base := filepath.Dir(filePath)
	for i := range manifest.Jobs {
		j := &manifest.Jobs[i]
		if j.File == "" {
			return nil, fmt.Errorf("job %d: file is required", i+1)
		}
		if err := j.Context().Validate(); err != nil {
			return nil, fmt.Errorf("job %d (%s): %w", i+1, j.File, err)
		}
		if !filepath.IsAbs(j.File) {
			j.File = filepath.Join(base, j.File)
		}
		if j.Output != "" && !filepath.IsAbs(j.Output) {
			j.Output = filepath.Join(base, j.Output)
		}
	}
	return manifest.Jobs, nil
}
