package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper isolates tests from the shared viper instance the CLI flag
// bindings require.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "_corrected", cfg.Output.Suffix)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, int64(1), cfg.Pipeline.Seed)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"seed", func(c *Config) { c.Pipeline.Seed = 0 }},
		{"dpi", func(c *Config) { c.Pipeline.DPI = -1 }},
		{"strip order", func(c *Config) { c.Pipeline.Fold.StripStart = 0.7; c.Pipeline.Fold.StripEnd = 0.3 }},
		{"strip range", func(c *Config) { c.Pipeline.Fold.StripStart = -0.1 }},
		{"fold iterations", func(c *Config) { c.Pipeline.Fold.Iterations = 0 }},
		{"correct margin", func(c *Config) { c.Pipeline.Correct.Margin = -1 }},
		{"split margin", func(c *Config) { c.Pipeline.Split.Margin = -5 }},
		{"coverage", func(c *Config) { c.Pipeline.Contour.MinCoverage = 1.5 }},
		{"scanlines", func(c *Config) { c.Pipeline.Edges.ScanlinesPerAxis = 1 }},
		{"size tolerance", func(c *Config) { c.Pipeline.Format.SizeTolerance = 0.6 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, defaults.LogLevel, cfg.LogLevel)
	assert.Equal(t, defaults.Batch.Workers, cfg.Batch.Workers)
	assert.Equal(t, defaults.Pipeline.Seed, cfg.Pipeline.Seed)
	assert.Equal(t, defaults.Pipeline.Fold.StripStart, cfg.Pipeline.Fold.StripStart)
	assert.Equal(t, defaults.Output.Suffix, cfg.Output.Suffix)
}

func TestLoadWithFileOverrides(t *testing.T) {
	resetViper(t)

	content := `
log_level: debug
pipeline:
  seed: 9
  dpi: 300
  auto_split: true
  correct:
    margin: 25
batch:
  workers: 2
output:
  suffix: _fixed
`
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(9), cfg.Pipeline.Seed)
	assert.InDelta(t, 300.0, cfg.Pipeline.DPI, 1e-12)
	assert.True(t, cfg.Pipeline.AutoSplit)
	assert.Equal(t, 25, cfg.Pipeline.Correct.Margin)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, "_fixed", cfg.Output.Suffix)

	// untouched values keep their defaults
	assert.Equal(t, DefaultConfig().Pipeline.Split.Margin, cfg.Pipeline.Split.Margin)
}

func TestLoadWithFileMissing(t *testing.T) {
	resetViper(t)

	_, err := NewLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  workers: 0\n"), 0o600))

	_, err := NewLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestLoadWithFileMalformedYAML(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [unclosed"), 0o600))

	_, err := NewLoader().LoadWithFile(path)
	assert.Error(t, err)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))
	require.FileExists(t, path)

	viper.Reset()
	cfg, err := NewLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Batch.Workers, cfg.Batch.Workers)
	assert.Equal(t, DefaultConfig().Pipeline.Seed, cfg.Pipeline.Seed)
}

func TestLoaderGetSet(t *testing.T) {
	resetViper(t)

	l := NewLoader()
	l.Set("output.dir", "/tmp/out")
	assert.Equal(t, "/tmp/out", l.Get("output.dir"))
	assert.NotNil(t, l.GetViper())
}

func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, "/etc/folio")
}

func TestEnvironmentOverride(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("FOLIO_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
