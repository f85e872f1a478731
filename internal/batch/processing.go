package batch

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/folio/internal/pipeline"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// ItemResult records the outcome for a single input file.
type ItemResult struct {
	Path        string
	OutputPaths []string
	Result      *pipeline.Result
	Err         error
}

// processSingleImage runs one file through the corrector and writes outputs.
func processSingleImage(ctx context.Context, proc *pipeline.Processor, path string, cfg *Config) ItemResult {
	item := ItemResult{Path: path}

	img, _, err := utils.LoadImage(path)
	if err != nil {
		item.Err = fmt.Errorf("failed to load %s: %w", path, err)
		return item
	}

	res, err := proc.Process(ctx, img)
	if err != nil {
		item.Err = fmt.Errorf("correction failed for %s: %w", path, err)
		return item
	}
	item.Result = res

	outputs, err := writeOutputs(path, res, cfg)
	if err != nil {
		item.Err = err
		return item
	}
	item.OutputPaths = outputs

	if cfg.DebugDir != "" {
		writeDebugOverlay(img, res, path, cfg.DebugDir)
	}

	return item
}

// writeOutputs saves the corrected image and, for split spreads, both pages.
func writeOutputs(inputPath string, res *pipeline.Result, cfg *Config) ([]string, error) {
	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base)) + cfg.Suffix

	var outputs []string
	if res.Pages != nil {
		for _, page := range []struct {
			suffix string
			img    image.Image
		}{
			{"_left", res.Pages.Left},
			{"_right", res.Pages.Right},
		} {
			if page.img == nil {
				continue
			}
			out := filepath.Join(dir, stem+page.suffix+".png")
			if err := utils.SavePNG(out, page.img); err != nil {
				return outputs, err
			}
			outputs = append(outputs, out)
		}
		return outputs, nil
	}

	out := filepath.Join(dir, stem+".png")
	if err := utils.SavePNG(out, res.Image); err != nil {
		return outputs, err
	}
	return append(outputs, out), nil
}

// writeDebugOverlay draws the detected contour on the original image.
// Failures are logged and otherwise ignored.
func writeDebugOverlay(img image.Image, res *pipeline.Result, inputPath, debugDir string) {
	if res.Contour == nil {
		return
	}
	if err := os.MkdirAll(debugDir, 0o750); err != nil {
		slog.Warn("failed to create debug directory", "dir", debugDir, "error", err)
		return
	}

	b := img.Bounds()
	overlay := image.NewRGBA(b)
	draw.Draw(overlay, b, img, b.Min, draw.Src)
	utils.DrawPolygon(overlay, res.Contour.Points(), color.RGBA{255, 0, 0, 255}, 2)

	base := filepath.Base(inputPath)
	out := filepath.Join(debugDir, strings.TrimSuffix(base, filepath.Ext(base))+"_contour.png")
	if err := utils.SavePNG(out, overlay); err != nil {
		slog.Warn("failed to save debug overlay", "path", out, "error", err)
	}
}
