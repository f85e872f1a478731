// Package split divides a corrected spread image into single pages at the
// fold position.
package split

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// Side selects which page of a spread to produce.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideCenter Side = "center" // both pages with seam overlap
)

// Config holds split parameters.
type Config struct {
	Margin    int  `mapstructure:"margin"     json:"margin"     yaml:"margin"`
	SmartCrop bool `mapstructure:"smart_crop" json:"smart_crop" yaml:"smart_crop"`
}

// DefaultConfig returns split defaults.
func DefaultConfig() Config {
	return Config{
		Margin:    50,
		SmartCrop: false,
	}
}

// Pages holds the split result. Right is nil for single-side splits.
type Pages struct {
	Left  image.Image
	Right image.Image
}

// Splitter crops pages out of a spread at a given fold x-position.
type Splitter struct {
	cfg Config
}

// NewSplitter creates a splitter.
func NewSplitter(cfg Config) *Splitter {
	return &Splitter{cfg: cfg}
}

// Split crops the requested side at foldX. Center mode keeps a margin of
// overlap on both sides of the seam so no content is lost:
// left spans [0, foldX+margin], right spans [foldX-margin, width].
// A fold that leaves a requested side with zero width is an error.
func (s *Splitter) Split(img image.Image, foldX int, side Side) (Pages, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Pages{}, fmt.Errorf("split: empty input image %dx%d", w, h)
	}
	if foldX < 0 || foldX > w {
		return Pages{}, fmt.Errorf("split: fold position %d outside image width %d", foldX, w)
	}

	m := s.cfg.Margin
	leftEnd := clampInt(foldX+m, 0, w)
	rightStart := clampInt(foldX-m, 0, w)

	switch side {
	case SideLeft:
		if leftEnd == 0 {
			return Pages{}, fmt.Errorf("split: left page is empty at fold %d", foldX)
		}
		return Pages{Left: s.crop(img, 0, leftEnd)}, nil
	case SideRight:
		if rightStart == w {
			return Pages{}, fmt.Errorf("split: right page is empty at fold %d", foldX)
		}
		return Pages{Right: s.crop(img, rightStart, w)}, nil
	case SideCenter:
		if leftEnd == 0 || rightStart == w {
			return Pages{}, fmt.Errorf("split: fold %d leaves an empty page", foldX)
		}
		return Pages{
			Left:  s.crop(img, 0, leftEnd),
			Right: s.crop(img, rightStart, w),
		}, nil
	default:
		return Pages{}, fmt.Errorf("split: unknown side %q", side)
	}
}

// crop cuts the horizontal span [x0,x1), optionally trimming the outer edge
// at a detected brightness drop.
func (s *Splitter) crop(img image.Image, x0, x1 int) image.Image {
	bounds := img.Bounds()
	if s.cfg.SmartCrop {
		plane := utils.GrayPlane(img)
		if x0 == 0 {
			// left page: refine the outer left edge
			if e, ok := smartEdge(plane, x1, -1); ok {
				x0 = e
			}
		} else {
			// right page: refine the outer right edge
			if e, ok := smartEdge(plane, x0, 1); ok {
				x1 = e
			}
		}
	}
	rect := image.Rect(bounds.Min.X+x0, bounds.Min.Y, bounds.Min.X+x1, bounds.Max.Y)
	return utils.CropImageRect(img, rect)
}

// smartEdge locates the outer page edge as the outermost brightness drop
// between the seam and the image border that reaches 75% of the strongest
// drop. The profile is smoothed with a window that adapts to the image
// width.
func smartEdge(p utils.Plane, seed, dir int) (int, bool) {
	profile := make([]float64, p.Width)
	for x := range p.Width {
		var sum float64
		for y := 0; y < p.Height; y++ {
			sum += float64(p.At(x, y))
		}
		profile[x] = sum / float64(p.Height)
	}

	window := p.Width / 100
	if window < 3 {
		window = 3
	}
	smoothed := movingAverage(profile, window)

	// drops in scan direction: brightness stepping down toward background
	maxDrop := 0.0
	drops := make([]float64, p.Width)
	for x := seed; x > 0 && x < p.Width-1; x += dir {
		d := smoothed[x] - smoothed[x+dir]
		if d > drops[x] {
			drops[x] = d
		}
		if d > maxDrop {
			maxDrop = d
		}
	}
	if maxDrop <= 0 {
		return 0, false
	}

	// walk in from the border so the outermost strong drop wins; the seam
	// side of an overlapping crop has a drop of its own that must lose
	threshold := 0.75 * maxDrop
	outer := 1
	if dir > 0 {
		outer = p.Width - 2
	}
	for x := outer; x != seed; x -= dir {
		if drops[x] >= threshold {
			return x, true
		}
	}
	return 0, false
}

func movingAverage(vals []float64, window int) []float64 {
	half := window / 2
	out := make([]float64, len(vals))
	for i := range vals {
		var sum float64
		var count int
		for k := -half; k <= half; k++ {
			j := i + k
			if j < 0 || j >= len(vals) {
				continue
			}
			sum += vals[j]
			count++
		}
		out[i] = sum / float64(count)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
