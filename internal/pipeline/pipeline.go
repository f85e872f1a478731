// Package pipeline wires the geometric correction stages into a single
// processor: background estimation, edge scanning, contour resolution,
// rotation correction, format classification, fold detection and splitting.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/MeKo-Tech/folio/internal/background"
	"github.com/MeKo-Tech/folio/internal/common"
	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/correct"
	"github.com/MeKo-Tech/folio/internal/edges"
	"github.com/MeKo-Tech/folio/internal/fold"
	"github.com/MeKo-Tech/folio/internal/format"
	"github.com/MeKo-Tech/folio/internal/gradient"
	"github.com/MeKo-Tech/folio/internal/split"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// Processor runs the full correction pipeline over single images. It is
// safe for concurrent use; all per-image state lives on the stack of
// Process.
type Processor struct {
	cfg      Config
	observer Observer
	logger   *slog.Logger

	gradient   *gradient.Builder
	background *background.Estimator
	scanner    *edges.Scanner
	corrector  *correct.Corrector
	splitter   *split.Splitter
	classifier *format.Classifier
}

// NewProcessor creates a processor from the given config. A nil observer
// installs the no-op observer.
func NewProcessor(cfg Config, observer Observer) (*Processor, error) {
	if cfg.Seed == 0 {
		return nil, fmt.Errorf("pipeline: seed must be non-zero")
	}
	if observer == nil {
		observer = NopObserver{}
	}
	logger := slog.Default()
	return &Processor{
		cfg:        cfg,
		observer:   observer,
		logger:     logger,
		gradient:   gradient.NewBuilder(cfg.Gradient),
		background: background.NewEstimator(cfg.Background),
		scanner:    edges.NewScanner(cfg.Edges),
		corrector:  correct.NewCorrector(cfg.Correct, logger),
		splitter:   split.NewSplitter(cfg.Split),
		classifier: format.NewClassifier(cfg.Format),
	}, nil
}

// Config returns a copy of the processor configuration.
func (p *Processor) Config() Config { return p.cfg }

// Process runs all stages over one image. Geometry failures degrade to a
// pass-through result rather than erroring; only unusable input fails.
func (p *Processor) Process(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		imagesProcessedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("pipeline: nil input image")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		imagesProcessedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("pipeline: empty input image %dx%d", bounds.Dx(), bounds.Dy())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timings := make(map[string]time.Duration, 8)
	defer func() {
		for stage, d := range timings {
			stageDuration.WithLabelValues(stage).Observe(d.Seconds())
		}
	}()
	total := common.StartPhase("total")

	// deterministic per-call randomness for consensus fitting and fold rows
	rng := rand.New(rand.NewSource(p.cfg.Seed)) //nolint:gosec // reproducibility, not crypto

	gray, stats, points := p.analyze(img, timings)
	p.observer.OnBackground(stats)
	p.observer.OnEdgePoints(points)

	resolver := contour.NewResolver(p.cfg.Contour, rng, p.logger)
	ph := common.StartPhase("contour")
	res := resolver.Resolve(gray, stats, points)
	ph.Record(timings)
	p.observer.OnContour(res)
	contourSourceTotal.WithLabelValues(string(res.Source)).Inc()

	if res.Quad == nil {
		total.Record(timings)
		imagesProcessedTotal.WithLabelValues("passthrough").Inc()
		p.logger.Info("no page outline, passing through", "reject", res.Reject)
		return &Result{
			Applied:       false,
			Reason:        ReasonNoContour,
			Image:         img,
			ContourSource: res.Source,
			Crop:          utils.NewBox(0, 0, float64(bounds.Dx()), float64(bounds.Dy())),
			ToOriginal:    correct.Identity(),
			Format:        p.classifier.Classify(bounds.Dx(), bounds.Dy(), p.cfg.DPI),
			Timings:       timings,
		}, nil
	}
	skewAngleDegrees.Observe(math.Abs(res.Angle))

	ph = common.StartPhase("correct")
	outcome, err := p.corrector.Correct(img, *res.Quad, res.Angle, stats.Dark)
	ph.Record(timings)
	if err != nil {
		imagesProcessedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("pipeline: correction failed: %w", err)
	}

	result := &Result{
		Applied:       true,
		Image:         outcome.Image,
		Contour:       res.Quad,
		ContourSource: res.Source,
		Angle:         res.Angle,
		Rotated:       outcome.Rotated,
		Crop:          outcome.Crop,
		ToOriginal:    outcome.ToOriginal,
		Timings:       timings,
	}

	cb := outcome.Image.Bounds()
	result.Format = p.classifier.Classify(cb.Dx(), cb.Dy(), p.cfg.DPI)

	if format.IsSpreadCandidate(result.Format) {
		ph = common.StartPhase("fold")
		locator := fold.NewLocator(p.cfg.Fold, rng, p.logger)
		est := locator.Locate(utils.GrayPlane(outcome.Image))
		ph.Record(timings)
		result.Fold = &est
		p.observer.OnFold(est)
		foldConfidence.Observe(est.Confidence)

		if p.cfg.AutoSplit && est.Confidence >= p.cfg.SplitConfidence {
			pages, err := p.splitter.Split(outcome.Image, int(est.X), split.SideCenter)
			if err != nil {
				p.logger.Warn("split failed", "error", err)
			} else {
				result.Pages = &pages
			}
		}
	}

	total.Record(timings)
	imagesProcessedTotal.WithLabelValues("corrected").Inc()
	p.logger.Info("image processed",
		"angle", res.Angle,
		"source", res.Source,
		"rotated", outcome.Rotated,
		"format", result.Format.Class,
		"duration", timings["total"])
	return result, nil
}

// analyze runs the shared read-only stages: grayscale conversion, gradient
// fields, background statistics and edge scanning.
func (p *Processor) analyze(img image.Image, timings map[string]time.Duration) (utils.Plane, background.Stats, edges.PointSets) {
	ph := common.StartPhase("grayscale")
	gray := utils.GrayPlane(img)
	ph.Record(timings)

	ph = common.StartPhase("gradient")
	field := p.gradient.Build(gray)
	ph.Record(timings)

	ph = common.StartPhase("background")
	stats := p.background.Estimate(gray)
	ph.Record(timings)

	ph = common.StartPhase("edges")
	points := p.scanner.Scan(field, stats)
	ph.Record(timings)

	return gray, stats, points
}

// Split exposes manual splitting at an externally chosen fold position.
func (p *Processor) Split(img image.Image, foldX int, side split.Side) (split.Pages, error) {
	return p.splitter.Split(img, foldX, side)
}
