package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommand(t *testing.T) {
	assert.NotNil(t, configCmd)
	assert.Equal(t, "config", configCmd.Use)

	names := make([]string, 0, len(configCmd.Commands()))
	for _, sub := range configCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "show")
	assert.Contains(t, names, "init")
	assert.Contains(t, names, "paths")
}

func TestConfigShow(t *testing.T) {
	output, err := executeCommand(t, rootCmd, []string{"config", "show"})
	require.NoError(t, err)

	assert.Contains(t, output, "# config file:")
	assert.Contains(t, output, "pipeline:")
	assert.Contains(t, output, "batch:")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")

	output, err := executeCommand(t, rootCmd, []string{"config", "init", path})
	require.NoError(t, err)

	assert.Contains(t, output, "Wrote default configuration")
	assert.FileExists(t, path)
}

func TestConfigPaths(t *testing.T) {
	output, err := executeCommand(t, rootCmd, []string{"config", "paths"})
	require.NoError(t, err)

	assert.Contains(t, output, ".")
	assert.Contains(t, output, "/etc/folio")
}
