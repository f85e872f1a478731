package support

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/folio/internal/testutil"
)

// RegisterImageSteps wires synthetic scan generation steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a scanned page "([^"]*)"$`, testCtx.aScannedPage)
	sc.Step(`^a scanned page "([^"]*)" rotated by ([\d.-]+) degrees$`, testCtx.aScannedPageRotatedBy)
	sc.Step(`^a book spread "([^"]*)"$`, testCtx.aBookSpread)
	sc.Step(`^a text file "([^"]*)"$`, testCtx.aTextFile)
}

func (testCtx *TestContext) aScannedPage(name string) error {
	return testCtx.aScannedPageRotatedBy(name, 0)
}

func (testCtx *TestContext) aScannedPageRotatedBy(name string, degrees float64) error {
	cfg := testutil.DefaultPageConfig()
	cfg.Width = 600
	cfg.Height = 800
	cfg.Inset = 60
	cfg.Rotation = degrees
	cfg.TextLines = 4

	return testCtx.saveTestImage(name, cfg, false)
}

func (testCtx *TestContext) aBookSpread(name string) error {
	cfg := testutil.DefaultPageConfig()
	cfg.Width = 1414
	cfg.Height = 1000
	cfg.Inset = 100

	return testCtx.saveTestImage(name, cfg, true)
}

func (testCtx *TestContext) aTextFile(name string) error {
	path := testCtx.resolvePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte("not an image\n"), 0o600)
}

func (testCtx *TestContext) saveTestImage(name string, cfg testutil.PageConfig, spread bool) error {
	path := testCtx.resolvePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	img := testutil.GeneratePage(cfg)
	if spread {
		img = testutil.GenerateSpread(cfg)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save test image %s: %w", path, err)
	}
	testCtx.TrackFile(path)
	return nil
}
