package correct

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"

	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// BorderConfig controls content box refinement on the corrected image.
type BorderConfig struct {
	Margin      int `mapstructure:"margin"       json:"margin"       yaml:"margin"`
	BlurDivisor int `mapstructure:"blur_divisor" json:"blur_divisor" yaml:"blur_divisor"`
}

// DefaultBorderConfig returns border finder defaults.
func DefaultBorderConfig() BorderConfig {
	return BorderConfig{
		Margin:      200,
		BlurDivisor: 20,
	}
}

// BorderFinder locates the true content extent around a page outline whose
// edges are too irregular for the fitted quadrilateral to crop well.
type BorderFinder struct {
	cfg BorderConfig
}

// NewBorderFinder creates a border finder.
func NewBorderFinder(cfg BorderConfig) *BorderFinder {
	return &BorderFinder{cfg: cfg}
}

// Find crops a margin around the outline's bounding box, blurs heavily so
// only large regions survive, and labels each pixel content when its
// intensity sits closer to a subject sample than to the background level.
// valid marks image pixels backed by source data; rotation padding is
// replaced by the background level before blurring and never labeled, so a
// bright fill cannot widen the content box. A nil valid mask treats every
// pixel as source-backed. The returned box is in full-image coordinates.
// ok is false when the content mask came up empty; callers fall back to the
// plain bounding box.
func (f *BorderFinder) Find(img image.Image, valid []bool, quad contour.Quad, backgroundLevel float64) (utils.Box, bool) {
	bounds := img.Bounds()
	bb := utils.BoundingBox(quad.Points())
	rect := bb.Expand(float64(f.cfg.Margin)).ToRect(bounds)
	if rect.Empty() {
		return utils.Box{}, false
	}

	crop := utils.CropImageRect(img, rect)
	cw, ch := rect.Dx(), rect.Dy()
	minDim := cw
	if ch < minDim {
		minDim = ch
	}
	radius := float64(minDim) / float64(f.cfg.BlurDivisor)
	if radius < 1 {
		radius = 1
	}

	stride := bounds.Dx()
	padded := func(x, y int) bool {
		if valid == nil {
			return false
		}
		return !valid[(y+rect.Min.Y-bounds.Min.Y)*stride+(x+rect.Min.X-bounds.Min.X)]
	}

	gray := utils.GrayPlane(crop)
	for y := range ch {
		for x := range cw {
			if padded(x, y) {
				gray.Set(x, y, float32(backgroundLevel))
			}
		}
	}
	plane := utils.GrayPlane(blur.Gaussian(gray.ToGray(), radius))

	// subject sample from the outline centroid, in crop coordinates
	c := quad.Centroid()
	subject := float64(plane.At(int(c.X)-rect.Min.X, int(c.Y)-rect.Min.Y))

	minX, minY := cw, ch
	maxX, maxY := -1, -1
	for y := range ch {
		for x := range cw {
			if padded(x, y) {
				continue
			}
			v := float64(plane.At(x, y))
			if math.Abs(v-subject) >= math.Abs(v-backgroundLevel) {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return utils.Box{}, false
	}

	return utils.NewBox(
		float64(minX+rect.Min.X), float64(minY+rect.Min.Y),
		float64(maxX+rect.Min.X+1), float64(maxY+rect.Min.Y+1),
	), true
}
