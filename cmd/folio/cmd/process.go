package cmd

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/folio/internal/batch"
	"github.com/MeKo-Tech/folio/internal/config"
	"github.com/spf13/cobra"
)

// processCmd represents the process command.
var processCmd = &cobra.Command{
	Use:   "process [files or directories...]",
	Short: "Straighten, crop, and optionally split scanned documents",
	Long: `Process one or more scans: detect the page boundary, remove rotation,
crop background margins, and split detected book spreads into pages.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  folio process scan.png
  folio process scans/ --recursive --workers 8 --output out/
  folio process spread.png --split
  folio process scan.png --debug-dir debug/ --summary json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runProcessCommand,
}

func runProcessCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := GetConfig()
	batchCfg := configToBatchConfig(cfg, cmd)
	if err := batchCfg.Validate(); err != nil {
		return err
	}

	summaryFormat, _ := cmd.Flags().GetString("summary")
	if summaryFormat != batch.FormatText && summaryFormat != batch.FormatJSON {
		return fmt.Errorf("invalid summary format: %s (must be text or json)", summaryFormat)
	}

	res, err := batch.ProcessBatch(cmd.Context(), args, batchCfg)
	if err != nil {
		return err
	}

	out, err := batch.FormatSummary(res, summaryFormat)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", res.Failed, len(res.Items))
	}
	return nil
}

// configToBatchConfig maps the centralized configuration to batch.Config.
// CLI flags override config file values when explicitly set.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) batch.Config {
	batchCfg := batch.DefaultConfig()
	batchCfg.Pipeline = cfg.ToPipelineConfig()
	batchCfg.Workers = cfg.Batch.Workers
	batchCfg.ContinueOnError = cfg.Batch.ContinueOnError
	batchCfg.OutputDir = cfg.Output.Dir
	batchCfg.Suffix = cfg.Output.Suffix
	batchCfg.DebugDir = cfg.Output.DebugDir

	flags := cmd.Flags()
	if flags.Changed("output") {
		batchCfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("suffix") {
		batchCfg.Suffix, _ = flags.GetString("suffix")
	}
	if flags.Changed("debug-dir") {
		batchCfg.DebugDir, _ = flags.GetString("debug-dir")
	}
	if flags.Changed("workers") {
		batchCfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("continue-on-error") {
		batchCfg.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
	if flags.Changed("recursive") {
		batchCfg.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("include") {
		batchCfg.IncludePatterns, _ = flags.GetStringSlice("include")
	}
	if flags.Changed("exclude") {
		batchCfg.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	}

	if flags.Changed("seed") {
		batchCfg.Pipeline.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("dpi") {
		batchCfg.Pipeline.DPI, _ = flags.GetFloat64("dpi")
	}
	if flags.Changed("margin") {
		margin, _ := flags.GetInt("margin")
		batchCfg.Pipeline.Correct.Margin = margin
		batchCfg.Pipeline.Split.Margin = margin
	}
	if flags.Changed("split") {
		batchCfg.Pipeline.AutoSplit, _ = flags.GetBool("split")
	}
	if flags.Changed("smart-crop") {
		batchCfg.Pipeline.Split.SmartCrop, _ = flags.GetBool("smart-crop")
	}
	if flags.Changed("fold-confidence") {
		batchCfg.Pipeline.SplitConfidence, _ = flags.GetFloat64("fold-confidence")
	}

	return batchCfg
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("output", "o", "", "output directory (default: next to each input)")
	processCmd.Flags().String("suffix", "_corrected", "suffix appended to output file names")
	processCmd.Flags().String("debug-dir", "", "directory for contour overlay images")
	processCmd.Flags().String("summary", batch.FormatText, "summary format (text, json)")
	processCmd.Flags().IntP("workers", "w", 4, "number of concurrent workers")
	processCmd.Flags().Bool("continue-on-error", true, "record per-file failures instead of aborting")
	processCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	processCmd.Flags().StringSlice("include", nil, "glob patterns of file names to include")
	processCmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
	processCmd.Flags().Int64("seed", 1, "random seed for reproducible runs")
	processCmd.Flags().Float64("dpi", 0, "scan resolution for format classification (0 = unknown)")
	processCmd.Flags().Int("margin", 50, "background margin kept around the page, in pixels")
	processCmd.Flags().Bool("split", false, "split detected book spreads into single pages")
	processCmd.Flags().Bool("smart-crop", false, "trim empty edges when splitting pages")
	processCmd.Flags().Float64("fold-confidence", 0.6, "minimum fold confidence required for splitting")
}
