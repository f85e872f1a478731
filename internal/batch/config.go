package batch

import (
	"errors"

	"github.com/MeKo-Tech/folio/internal/pipeline"
)

// Config controls batch correction runs.
type Config struct {
	Pipeline pipeline.Config

	// Observer receives intermediate pipeline artifacts. Nil disables it.
	Observer pipeline.Observer

	// Workers is the number of images processed concurrently.
	Workers int

	// Recursive descends into subdirectories when an argument is a directory.
	Recursive bool

	// ContinueOnError records per-file failures instead of aborting the run.
	ContinueOnError bool

	IncludePatterns []string
	ExcludePatterns []string

	// OutputDir receives corrected images. Empty writes next to the input.
	OutputDir string

	// Suffix is appended to output file names before the extension.
	Suffix string

	// DebugDir receives contour overlay images when set.
	DebugDir string

	Quiet bool
}

// DefaultConfig returns a batch configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Pipeline:        pipeline.DefaultConfig(),
		Workers:         4,
		ContinueOnError: true,
		Suffix:          "_corrected",
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.Suffix == "" {
		return errors.New("output suffix must not be empty")
	}
	return nil
}
