package cmd

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/folio/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups configuration inspection and scaffolding commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold folio configuration",
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the resolved configuration",
	Long:         `Print the effective configuration after merging defaults, config file, environment variables, and flags.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := GetConfigLoader()
		if globalConfig == nil {
			initConfig()
		}

		data, err := yaml.Marshal(loader.GetResolvedConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}

		if used := loader.GetConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", used)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "# config file: none (defaults)")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:          "init [file]",
	Short:        "Write a config file with default values",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}

		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", filename)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the configuration file search paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := config.GetConfigSearchPaths()
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(paths, "\n"))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)
	rootCmd.AddCommand(configCmd)
}
