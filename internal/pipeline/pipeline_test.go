package pipeline

import (
	"context"
	"image"
	"image/color"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/folio/internal/background"
	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/edges"
	"github.com/MeKo-Tech/folio/internal/fold"
	"github.com/MeKo-Tech/folio/internal/testutil"
	"github.com/MeKo-Tech/folio/internal/utils"
)

func testPageConfig() testutil.PageConfig {
	cfg := testutil.DefaultPageConfig()
	cfg.Width = 600
	cfg.Height = 800
	cfg.Inset = 60
	return cfg
}

func newTestProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()
	proc, err := NewProcessor(cfg, nil)
	require.NoError(t, err)
	return proc
}

func TestNewProcessorRequiresSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 0
	_, err := NewProcessor(cfg, nil)
	assert.Error(t, err)
}

func TestProcessRejectsBadInput(t *testing.T) {
	proc := newTestProcessor(t, DefaultConfig())

	_, err := proc.Process(context.Background(), nil)
	assert.Error(t, err)

	_, err = proc.Process(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}

func TestProcessHonorsContextCancellation(t *testing.T) {
	proc := newTestProcessor(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := proc.Process(ctx, testutil.GeneratePage(testPageConfig()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessAxisAlignedPage(t *testing.T) {
	pageCfg := testPageConfig()
	img := testutil.GeneratePage(pageCfg)

	proc := newTestProcessor(t, DefaultConfig())
	res, err := proc.Process(context.Background(), img)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.False(t, res.Rotated)
	assert.InDelta(t, 0.0, res.Angle, 0.5)
	require.NotNil(t, res.Contour)

	paper := pageCfg.PaperRect()
	expected := [4][2]float64{
		{float64(paper.Min.X), float64(paper.Min.Y)},
		{float64(paper.Max.X), float64(paper.Min.Y)},
		{float64(paper.Max.X), float64(paper.Max.Y)},
		{float64(paper.Min.X), float64(paper.Max.Y)},
	}
	for i, want := range expected {
		assert.InDelta(t, want[0], res.Contour[i].X, 3.0, "corner %d x", i)
		assert.InDelta(t, want[1], res.Contour[i].Y, 3.0, "corner %d y", i)
	}

	// margin crop shrinks the canvas roughly to the paper plus margins
	b := res.Image.Bounds()
	assert.Less(t, b.Dx(), 600)
	assert.Less(t, b.Dy(), 800)
	assert.Greater(t, b.Dx(), 400)

	// portrait single page never runs fold detection
	assert.Nil(t, res.Fold)
	assert.Nil(t, res.Pages)
	assert.Contains(t, res.Timings, "total")
	assert.Contains(t, res.Timings, "contour")
}

func TestProcessRotatedNoisyPage(t *testing.T) {
	pageCfg := testPageConfig()
	pageCfg.Rotation = 3.0
	pageCfg.Noise = 4
	img := testutil.GeneratePage(pageCfg)

	proc := newTestProcessor(t, DefaultConfig())
	res, err := proc.Process(context.Background(), img)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.True(t, res.Rotated)
	assert.InDelta(t, 3.0, res.Angle, 1.0)

	// crop box stays within the source image
	assert.GreaterOrEqual(t, res.Crop.MinX, 0.0)
	assert.LessOrEqual(t, res.Crop.MaxX, 600.0)
	assert.LessOrEqual(t, res.Crop.MaxY, 800.0)

	// output tracks the 480x680 paper plus margins, not the rotated canvas
	assert.InDelta(t, 615, res.Image.Bounds().Dx(), 20)
	assert.InDelta(t, 804, res.Image.Bounds().Dy(), 20)
}

func TestProcessRecordsStageDurations(t *testing.T) {
	proc := newTestProcessor(t, DefaultConfig())
	_, err := proc.Process(context.Background(), testutil.GeneratePage(testPageConfig()))
	require.NoError(t, err)

	// one histogram child per recorded stage, grayscale through total
	assert.GreaterOrEqual(t, promtest.CollectAndCount(stageDuration), 7)
}

func TestProcessDeterministicForSeed(t *testing.T) {
	pageCfg := testPageConfig()
	pageCfg.Rotation = 2.0
	pageCfg.Noise = 6
	img := testutil.GeneratePage(pageCfg)

	cfg := DefaultConfig()
	cfg.Seed = 42

	a, err := newTestProcessor(t, cfg).Process(context.Background(), img)
	require.NoError(t, err)
	b, err := newTestProcessor(t, cfg).Process(context.Background(), img)
	require.NoError(t, err)

	require.NotNil(t, a.Contour)
	require.NotNil(t, b.Contour)
	assert.Equal(t, a.Angle, b.Angle)
	for i := range 4 {
		assert.Equal(t, a.Contour[i], b.Contour[i])
	}
}

func TestProcessUniformImageFullFrame(t *testing.T) {
	// a uniform scan thresholds to a full-frame mask, so the polygon
	// fallback reports the whole frame and correction is a no-op
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	for y := range 400 {
		for x := range 300 {
			img.Set(x, y, color.White)
		}
	}

	proc := newTestProcessor(t, DefaultConfig())
	res, err := proc.Process(context.Background(), img)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.Equal(t, contour.SourcePolygon, res.ContourSource)
	assert.InDelta(t, 0.0, res.Angle, 0.5)
	assert.False(t, res.Rotated)
	assert.Equal(t, 300, res.Image.Bounds().Dx())
	assert.Equal(t, 400, res.Image.Bounds().Dy())
}

func TestProcessNonPagePassesThrough(t *testing.T) {
	// a small bright triangle: the fitted outline fails the coverage
	// check and the mask boundary is not a quadrilateral
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	for y := range 400 {
		for x := range 300 {
			img.Set(x, y, color.Gray{Y: 20})
		}
	}
	for y := 140; y < 260; y++ {
		// width grows linearly from the apex at (150,140)
		half := (y - 140) * 50 / 120
		for x := 150 - half; x <= 150+half; x++ {
			img.Set(x, y, color.Gray{Y: 230})
		}
	}

	proc := newTestProcessor(t, DefaultConfig())
	res, err := proc.Process(context.Background(), img)
	require.NoError(t, err)

	assert.False(t, res.Applied)
	assert.Equal(t, ReasonNoContour, res.Reason)
	assert.Same(t, image.Image(img), res.Image)
	assert.Nil(t, res.Contour)
	assert.Equal(t, contour.SourceNone, res.ContourSource)

	// pass-through keeps the identity mapping over the full frame
	p := res.ToOriginal.Apply(utils.Point{X: 12, Y: 34})
	assert.InDelta(t, 12.0, p.X, 1e-9)
	assert.InDelta(t, 34.0, p.Y, 1e-9)
}

func TestProcessSpreadAutoSplit(t *testing.T) {
	spreadCfg := testutil.DefaultPageConfig()
	spreadCfg.Width = 1414
	spreadCfg.Height = 1000
	spreadCfg.Inset = 100
	img := testutil.GenerateSpread(spreadCfg)

	proc, err := NewBuilder().
		WithSeed(7).
		WithMargin(0).
		WithAutoSplit(true, 0.6).
		Build()
	require.NoError(t, err)

	res, err := proc.Process(context.Background(), img)
	require.NoError(t, err)
	require.True(t, res.Applied)

	require.NotNil(t, res.Fold)
	assert.True(t, res.FoldConfident(0.6))
	assert.InDelta(t, 707.0, res.Fold.X, 5.0)

	require.NotNil(t, res.Pages)
	require.NotNil(t, res.Pages.Left)
	require.NotNil(t, res.Pages.Right)

	// overlap split: both pages span fold plus the split margin
	m := proc.Config().Split.Margin
	assert.InDelta(t, res.Fold.X+float64(m), float64(res.Pages.Left.Bounds().Dx()), 2)
	assert.InDelta(t, 1414-res.Fold.X+float64(m), float64(res.Pages.Right.Bounds().Dx()), 2)
}

type recordingObserver struct {
	backgrounds int
	edgeSets    int
	contours    int
	folds       int
}

func (o *recordingObserver) OnBackground(background.Stats) { o.backgrounds++ }
func (o *recordingObserver) OnEdgePoints(edges.PointSets)  { o.edgeSets++ }
func (o *recordingObserver) OnContour(contour.Result)      { o.contours++ }
func (o *recordingObserver) OnFold(fold.Estimate)          { o.folds++ }

func TestProcessNotifiesObserver(t *testing.T) {
	spreadCfg := testutil.DefaultPageConfig()
	spreadCfg.Width = 1414
	spreadCfg.Height = 1000
	spreadCfg.Inset = 100
	img := testutil.GenerateSpread(spreadCfg)

	obs := &recordingObserver{}
	proc, err := NewBuilder().WithSeed(3).WithMargin(0).WithObserver(obs).Build()
	require.NoError(t, err)

	_, err = proc.Process(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.backgrounds)
	assert.Equal(t, 1, obs.edgeSets)
	assert.Equal(t, 1, obs.contours)
	assert.Equal(t, 1, obs.folds)
}

func TestBuilderOptions(t *testing.T) {
	proc, err := NewBuilder().
		WithSeed(11).
		WithDPI(300).
		WithMargin(25).
		WithAutoSplit(true, 0.8).
		WithSmartCrop(true).
		Build()
	require.NoError(t, err)

	cfg := proc.Config()
	assert.Equal(t, int64(11), cfg.Seed)
	assert.InDelta(t, 300.0, cfg.DPI, 1e-12)
	assert.Equal(t, 25, cfg.Correct.Margin)
	assert.True(t, cfg.AutoSplit)
	assert.InDelta(t, 0.8, cfg.SplitConfidence, 1e-12)
	assert.True(t, cfg.Split.SmartCrop)
}

func TestFoldConfident(t *testing.T) {
	r := &Result{}
	assert.False(t, r.FoldConfident(0.5))

	r.Fold = &fold.Estimate{X: 10, Confidence: 0.7}
	assert.True(t, r.FoldConfident(0.6))
	assert.False(t, r.FoldConfident(0.8))
}
