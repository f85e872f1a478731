package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "folio"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "FOLIO"
)

// Loader handles loading configuration from files, environment variables
// and flag bindings.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader on the global viper instance so
// cobra flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths and environment, applies
// defaults and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// a missing config file is fine, defaults and env vars apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// LoadWithFile reads configuration from a specific file path instead of the
// search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/folio")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "folio"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "folio"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	// Global settings
	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	// Pipeline defaults
	l.v.SetDefault("pipeline.seed", defaults.Pipeline.Seed)
	l.v.SetDefault("pipeline.dpi", defaults.Pipeline.DPI)
	l.v.SetDefault("pipeline.auto_split", defaults.Pipeline.AutoSplit)
	l.v.SetDefault("pipeline.split_confidence", defaults.Pipeline.SplitConfidence)

	l.v.SetDefault("pipeline.gradient.large_kernel_divisor", defaults.Pipeline.Gradient.LargeKernelDivisor)
	l.v.SetDefault("pipeline.gradient.small_kernel_divisor", defaults.Pipeline.Gradient.SmallKernelDivisor)
	l.v.SetDefault("pipeline.gradient.min_large_kernel", defaults.Pipeline.Gradient.MinLargeKernel)
	l.v.SetDefault("pipeline.gradient.min_small_kernel", defaults.Pipeline.Gradient.MinSmallKernel)

	l.v.SetDefault("pipeline.background.corner_fraction", defaults.Pipeline.Background.CornerFraction)
	l.v.SetDefault("pipeline.background.center_low", defaults.Pipeline.Background.CenterLow)
	l.v.SetDefault("pipeline.background.center_high", defaults.Pipeline.Background.CenterHigh)
	l.v.SetDefault("pipeline.background.dark_percentile", defaults.Pipeline.Background.DarkPercentile)
	l.v.SetDefault("pipeline.background.paper_percentile", defaults.Pipeline.Background.PaperPercentile)

	l.v.SetDefault("pipeline.edges.scanlines_per_axis", defaults.Pipeline.Edges.ScanlinesPerAxis)
	l.v.SetDefault("pipeline.edges.gradient_gain", defaults.Pipeline.Edges.GradientGain)
	l.v.SetDefault("pipeline.edges.prominence_ratio", defaults.Pipeline.Edges.ProminenceRatio)
	l.v.SetDefault("pipeline.edges.context_samples", defaults.Pipeline.Edges.ContextSamples)
	l.v.SetDefault("pipeline.edges.min_relative_contrast", defaults.Pipeline.Edges.MinRelativeContrast)
	l.v.SetDefault("pipeline.edges.outer_accept_fraction", defaults.Pipeline.Edges.OuterAcceptFraction)
	l.v.SetDefault("pipeline.edges.seed_band_fraction", defaults.Pipeline.Edges.SeedBandFraction)

	l.v.SetDefault("pipeline.contour.min_coverage", defaults.Pipeline.Contour.MinCoverage)
	l.v.SetDefault("pipeline.contour.fallback_dilate", defaults.Pipeline.Contour.FallbackDilate)
	l.v.SetDefault("pipeline.contour.fit.max_trials", defaults.Pipeline.Contour.Fit.MaxTrials)
	l.v.SetDefault("pipeline.contour.fit.confidence", defaults.Pipeline.Contour.Fit.Confidence)
	l.v.SetDefault("pipeline.contour.fit.residual_base", defaults.Pipeline.Contour.Fit.ResidualBase)
	l.v.SetDefault("pipeline.contour.fit.residual_gain", defaults.Pipeline.Contour.Fit.ResidualGain)
	l.v.SetDefault("pipeline.contour.recovery.min_points", defaults.Pipeline.Contour.Recovery.MinPoints)
	l.v.SetDefault("pipeline.contour.recovery.probe_count", defaults.Pipeline.Contour.Recovery.ProbeCount)
	l.v.SetDefault("pipeline.contour.recovery.jump_threshold", defaults.Pipeline.Contour.Recovery.JumpThreshold)

	l.v.SetDefault("pipeline.correct.min_angle", defaults.Pipeline.Correct.MinAngle)
	l.v.SetDefault("pipeline.correct.margin", defaults.Pipeline.Correct.Margin)
	l.v.SetDefault("pipeline.correct.fill_color", defaults.Pipeline.Correct.FillColor)
	l.v.SetDefault("pipeline.correct.border.margin", defaults.Pipeline.Correct.Border.Margin)
	l.v.SetDefault("pipeline.correct.border.blur_divisor", defaults.Pipeline.Correct.Border.BlurDivisor)

	l.v.SetDefault("pipeline.fold.strip_start", defaults.Pipeline.Fold.StripStart)
	l.v.SetDefault("pipeline.fold.strip_end", defaults.Pipeline.Fold.StripEnd)
	l.v.SetDefault("pipeline.fold.iterations", defaults.Pipeline.Fold.Iterations)
	l.v.SetDefault("pipeline.fold.rows_per_iteration", defaults.Pipeline.Fold.RowsPerIteration)
	l.v.SetDefault("pipeline.fold.prominence_sigma", defaults.Pipeline.Fold.ProminenceSigma)

	l.v.SetDefault("pipeline.split.margin", defaults.Pipeline.Split.Margin)
	l.v.SetDefault("pipeline.split.smart_crop", defaults.Pipeline.Split.SmartCrop)

	l.v.SetDefault("pipeline.format.default_dpi", defaults.Pipeline.Format.DefaultDPI)
	l.v.SetDefault("pipeline.format.size_tolerance", defaults.Pipeline.Format.SizeTolerance)
	l.v.SetDefault("pipeline.format.aspect_tolerance", defaults.Pipeline.Format.AspectTolerance)

	// Output defaults
	l.v.SetDefault("output.dir", defaults.Output.Dir)
	l.v.SetDefault("output.suffix", defaults.Output.Suffix)
	l.v.SetDefault("output.debug_dir", defaults.Output.DebugDir)

	// Batch defaults
	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.continue_on_error", defaults.Batch.ContinueOnError)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile generates a default configuration file.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()

	if filename == "" {
		filename = "folio.yaml"
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
		paths = append(paths, filepath.Join(home, ".config", "folio"))
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "folio"))
	}

	paths = append(paths, "/etc/folio")

	return paths
}
