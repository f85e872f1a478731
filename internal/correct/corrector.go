package correct

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// Config holds correction parameters.
type Config struct {
	MinAngle  float64      `mapstructure:"min_angle"  json:"min_angle"  yaml:"min_angle"`
	Margin    int          `mapstructure:"margin"     json:"margin"     yaml:"margin"`
	FillColor uint8        `mapstructure:"fill_color" json:"fill_color" yaml:"fill_color"`
	Border    BorderConfig `mapstructure:"border"     json:"border"     yaml:"border"`
}

// DefaultConfig returns correction defaults. Margin 0 selects rotation-only
// mode where the full canvas is returned uncropped.
func DefaultConfig() Config {
	return Config{
		MinAngle:  1e-3,
		Margin:    50,
		FillColor: 255,
		Border:    DefaultBorderConfig(),
	}
}

// Outcome is a correction result. Mask marks pixels that originate from the
// source image, as opposed to rotation padding; it has the same dimensions
// as Image. ToOriginal maps corrected coordinates back to source
// coordinates, and Crop is the un-rotated bounding crop of the corrected
// region in source coordinates.
type Outcome struct {
	Image      image.Image
	Mask       []bool
	MaskWidth  int
	MaskHeight int
	Crop       utils.Box
	ToOriginal Transform
	Rotated    bool
}

// Corrector rotates a page flat about its contour centroid and crops it
// with a safety margin.
type Corrector struct {
	cfg    Config
	finder *BorderFinder
	logger *slog.Logger
}

// NewCorrector creates a corrector.
func NewCorrector(cfg Config, logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{
		cfg:    cfg,
		finder: NewBorderFinder(cfg.Border),
		logger: logger,
	}
}

// Correct straightens the image by the given skew angle. Angles below the
// configured minimum skip resampling entirely. backgroundLevel is the
// upstream background intensity used for content box refinement.
func (c *Corrector) Correct(img image.Image, quad contour.Quad, angle float64, backgroundLevel float64) (Outcome, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Outcome{}, fmt.Errorf("correct: empty input image %dx%d", w, h)
	}

	var (
		canvas  image.Image
		mask    []bool
		forward Transform
		rotated bool
	)

	if math.Abs(angle) < c.cfg.MinAngle {
		// below resampling precision, rotation would only lose quality
		canvas = img
		forward = Identity()
		mask = fullMask(w, h)
	} else {
		canvas, mask, forward = c.rotate(img, quad.Centroid(), -angle)
		rotated = true
		c.logger.Debug("page rotated", "angle", angle,
			"canvas_width", canvas.Bounds().Dx(), "canvas_height", canvas.Bounds().Dy())
	}

	toOriginal, ok := forward.Invert()
	if !ok {
		return Outcome{}, fmt.Errorf("correct: rotation transform not invertible")
	}

	cb := canvas.Bounds()
	correctedQuad := mapQuad(quad, forward)

	if c.cfg.Margin == 0 {
		return Outcome{
			Image:      canvas,
			Mask:       mask,
			MaskWidth:  cb.Dx(),
			MaskHeight: cb.Dy(),
			Crop:       utils.NewBox(0, 0, float64(w), float64(h)),
			ToOriginal: toOriginal,
			Rotated:    rotated,
		}, nil
	}

	content, found := c.finder.Find(canvas, mask, correctedQuad, backgroundLevel)
	if !found {
		content = utils.BoundingBox(correctedQuad.Points())
	}
	cropRect := content.Expand(float64(c.cfg.Margin)).ToRect(cb)
	if cropRect.Empty() {
		cropRect = cb
	}

	cropped := utils.CropImageRect(canvas, cropRect)
	croppedMask := cropMask(mask, cb.Dx(), cropRect)

	// account for the crop offset when mapping back to source coordinates
	finalToOriginal := Translation(float64(cropRect.Min.X), float64(cropRect.Min.Y)).Then(toOriginal)

	return Outcome{
		Image:      cropped,
		Mask:       croppedMask,
		MaskWidth:  cropRect.Dx(),
		MaskHeight: cropRect.Dy(),
		Crop:       sourceCrop(cropRect, toOriginal, w, h),
		ToOriginal: finalToOriginal,
		Rotated:    rotated,
	}, nil
}

// rotate resamples the image by degrees about center onto the minimal
// canvas containing the fully rotated input. The returned mask is true for
// canvas pixels backed by source pixels; padding is filled with the
// configured fill color.
func (c *Corrector) rotate(img image.Image, center utils.Point, degrees float64) (image.Image, []bool, Transform) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rot := RotationAbout(center, degrees)

	// minimal canvas and offset from the rotated source corners
	corners := []utils.Point{
		{X: 0, Y: 0}, {X: float64(w), Y: 0},
		{X: float64(w), Y: float64(h)}, {X: 0, Y: float64(h)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range corners {
		q := rot.Apply(p)
		minX = math.Min(minX, q.X)
		minY = math.Min(minY, q.Y)
		maxX = math.Max(maxX, q.X)
		maxY = math.Max(maxY, q.Y)
	}
	newW := int(math.Ceil(maxX - minX))
	newH := int(math.Ceil(maxY - minY))

	forward := rot.Then(Translation(-minX, -minY))
	inverse, _ := forward.Invert()

	out := image.NewRGBA(image.Rect(0, 0, newW, newH))
	mask := make([]bool, newW*newH)
	fill := color.RGBA{c.cfg.FillColor, c.cfg.FillColor, c.cfg.FillColor, 255}

	for y := range newH {
		for x := range newW {
			src := inverse.Apply(utils.Point{X: float64(x), Y: float64(y)})
			sx := src.X + float64(bounds.Min.X)
			sy := src.Y + float64(bounds.Min.Y)

			// nearest-neighbor test against an all-white mask decides
			// padding, so edge pixels stay classified as content
			nx, ny := int(math.Round(src.X)), int(math.Round(src.Y))
			inside := nx >= 0 && nx < w && ny >= 0 && ny < h
			mask[y*newW+x] = inside

			if !inside {
				out.Set(x, y, fill)
				continue
			}
			out.Set(x, y, bilinearSample(img, sx, sy, fill))
		}
	}
	return out, mask, forward
}

// bilinearSample interpolates the four neighbors of (x,y), returning fill
// outside the image.
func bilinearSample(src image.Image, x, y float64, fill color.RGBA) color.Color {
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return fill
	}
	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	c00 := toFloatRGBA(src.At(x0, y0))
	c10 := toFloatRGBA(src.At(x1, y0))
	c01 := toFloatRGBA(src.At(x0, y1))
	c11 := toFloatRGBA(src.At(x1, y1))

	r := lerp(lerp(c00.r, c10.r, fx), lerp(c01.r, c11.r, fx), fy)
	g := lerp(lerp(c00.g, c10.g, fx), lerp(c01.g, c11.g, fx), fy)
	bl := lerp(lerp(c00.b, c10.b, fx), lerp(c01.b, c11.b, fx), fy)
	a := lerp(lerp(c00.a, c10.a, fx), lerp(c01.a, c11.a, fx), fy)
	return color.RGBA{uint8(r + 0.5), uint8(g + 0.5), uint8(bl + 0.5), uint8(a + 0.5)}
}

type floatRGBA struct{ r, g, b, a float64 }

func toFloatRGBA(c color.Color) floatRGBA {
	r, g, b, a := c.RGBA()
	return floatRGBA{r: float64(r >> 8), g: float64(g >> 8), b: float64(b >> 8), a: float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func fullMask(w, h int) []bool {
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func cropMask(mask []bool, stride int, rect image.Rectangle) []bool {
	out := make([]bool, rect.Dx()*rect.Dy())
	for y := range rect.Dy() {
		srcRow := (rect.Min.Y + y) * stride
		dstRow := y * rect.Dx()
		for x := range rect.Dx() {
			out[dstRow+x] = mask[srcRow+rect.Min.X+x]
		}
	}
	return out
}

func mapQuad(q contour.Quad, t Transform) contour.Quad {
	var out contour.Quad
	for i := range 4 {
		out[i] = t.Apply(q[i])
	}
	return out
}

// sourceCrop maps a corrected-space crop back to an axis-aligned box in
// source coordinates, clamped to the source bounds.
func sourceCrop(rect image.Rectangle, toOriginal Transform, w, h int) utils.Box {
	corners := []utils.Point{
		{X: float64(rect.Min.X), Y: float64(rect.Min.Y)},
		{X: float64(rect.Max.X), Y: float64(rect.Min.Y)},
		{X: float64(rect.Max.X), Y: float64(rect.Max.Y)},
		{X: float64(rect.Min.X), Y: float64(rect.Max.Y)},
	}
	mapped := make([]utils.Point, len(corners))
	for i, p := range corners {
		mapped[i] = toOriginal.Apply(p)
	}
	bb := utils.BoundingBox(mapped)
	return utils.NewBox(
		math.Max(0, bb.MinX), math.Max(0, bb.MinY),
		math.Min(float64(w), bb.MaxX), math.Min(float64(h), bb.MaxY),
	)
}
