// Package config holds the application configuration: processing stage
// parameters plus CLI concerns like output locations and batch workers.
// Values load from config files, environment variables and flags.
package config

import (
	"fmt"

	"github.com/MeKo-Tech/folio/internal/pipeline"
)

// Config is the complete application configuration.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose"   yaml:"verbose"   json:"verbose"`

	// Processing pipeline settings
	Pipeline pipeline.Config `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output settings
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing settings
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"       yaml:"dir"       json:"dir"`
	Suffix   string `mapstructure:"suffix"    yaml:"suffix"    json:"suffix"`
	DebugDir string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers"           yaml:"workers"           json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: pipeline.DefaultConfig(),
		Output: OutputConfig{
			Dir:    ".",
			Suffix: "_corrected",
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: true,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}

	p := &c.Pipeline
	if p.Seed == 0 {
		return fmt.Errorf("pipeline.seed must be non-zero")
	}
	if p.DPI < 0 {
		return fmt.Errorf("pipeline.dpi must not be negative, got %g", p.DPI)
	}
	if err := validateFraction(p.Fold.StripStart, "pipeline.fold.strip_start"); err != nil {
		return err
	}
	if err := validateFraction(p.Fold.StripEnd, "pipeline.fold.strip_end"); err != nil {
		return err
	}
	if p.Fold.StripStart >= p.Fold.StripEnd {
		return fmt.Errorf("pipeline.fold.strip_start must be below strip_end")
	}
	if p.Fold.Iterations < 1 {
		return fmt.Errorf("pipeline.fold.iterations must be at least 1, got %d", p.Fold.Iterations)
	}
	if p.Correct.Margin < 0 {
		return fmt.Errorf("pipeline.correct.margin must not be negative, got %d", p.Correct.Margin)
	}
	if p.Split.Margin < 0 {
		return fmt.Errorf("pipeline.split.margin must not be negative, got %d", p.Split.Margin)
	}
	if err := validateFraction(p.Contour.MinCoverage, "pipeline.contour.min_coverage"); err != nil {
		return err
	}
	if p.Edges.ScanlinesPerAxis < 2 {
		return fmt.Errorf("pipeline.edges.scanlines_per_axis must be at least 2, got %d", p.Edges.ScanlinesPerAxis)
	}
	if p.Format.SizeTolerance <= 0 || p.Format.SizeTolerance >= 0.5 {
		return fmt.Errorf("pipeline.format.size_tolerance must be in (0, 0.5), got %g", p.Format.SizeTolerance)
	}
	return nil
}

// ToPipelineConfig returns the processing configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	return c.Pipeline
}

func validateFraction(v float64, name string) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %g", name, v)
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
