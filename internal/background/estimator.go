// Package background estimates paper and background luminance statistics
// from fixed sampling regions of a page image. Corners of a scan are assumed
// to show the capture surface, the center the paper itself.
package background

import (
	"image"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// Config controls the sampling regions and derived thresholds.
type Config struct {
	// corner patch width/height as fraction of image size
	CornerFraction float64 `mapstructure:"corner_fraction" json:"corner_fraction" yaml:"corner_fraction"`
	// central sampling box bounds as fractions
	CenterLow  float64 `mapstructure:"center_low"  json:"center_low"  yaml:"center_low"`
	CenterHigh float64 `mapstructure:"center_high" json:"center_high" yaml:"center_high"`
	// percentile of corner samples for the dark estimate
	DarkPercentile float64 `mapstructure:"dark_percentile" json:"dark_percentile" yaml:"dark_percentile"`
	// percentile of center samples for the paper estimate
	PaperPercentile float64 `mapstructure:"paper_percentile" json:"paper_percentile" yaml:"paper_percentile"`
}

// DefaultConfig returns sampling defaults.
func DefaultConfig() Config {
	return Config{
		CornerFraction:  0.03,
		CenterLow:       0.30,
		CenterHigh:      0.70,
		DarkPercentile:  10,
		PaperPercentile: 90,
	}
}

// Stats holds the luminance statistics derived from one image.
type Stats struct {
	Dark          float64 // background/capture-surface luminance (corner 10th percentile)
	Paper         float64 // paper luminance (center 90th percentile)
	ContrastSpan  float64 // max(1, Paper-Dark)
	MinContrast   float64 // max(8, 0.15*ContrastSpan)
	DarkThreshold float64 // Paper - 0.35*ContrastSpan
}

// Estimator samples a grayscale plane for background statistics.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an estimator with the given configuration.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate computes luminance statistics from the corner and center regions.
func (e *Estimator) Estimate(gray utils.Plane) Stats {
	w, h := gray.Width, gray.Height
	cw := maxInt(1, int(float64(w)*e.cfg.CornerFraction))
	ch := maxInt(1, int(float64(h)*e.cfg.CornerFraction))

	corners := make([]float32, 0, 4*cw*ch)
	patches := []image.Rectangle{
		image.Rect(0, 0, cw, ch),
		image.Rect(w-cw, 0, w, ch),
		image.Rect(0, h-ch, cw, h),
		image.Rect(w-cw, h-ch, w, h),
	}
	for _, r := range patches {
		corners = appendRegion(corners, gray, r)
	}

	center := image.Rect(
		int(float64(w)*e.cfg.CenterLow), int(float64(h)*e.cfg.CenterLow),
		int(float64(w)*e.cfg.CenterHigh), int(float64(h)*e.cfg.CenterHigh),
	)
	centerVals := appendRegion(nil, gray, center)

	dark := float64(utils.Percentile(corners, e.cfg.DarkPercentile))
	paper := float64(utils.Percentile(centerVals, e.cfg.PaperPercentile))

	span := paper - dark
	if span < 1 {
		span = 1
	}
	minContrast := 0.15 * span
	if minContrast < 8 {
		minContrast = 8
	}
	return Stats{
		Dark:          dark,
		Paper:         paper,
		ContrastSpan:  span,
		MinContrast:   minContrast,
		DarkThreshold: paper - 0.35*span,
	}
}

func appendRegion(dst []float32, gray utils.Plane, r image.Rectangle) []float32 {
	r = r.Intersect(image.Rect(0, 0, gray.Width, gray.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * gray.Width
		for x := r.Min.X; x < r.Max.X; x++ {
			dst = append(dst, gray.Pix[row+x])
		}
	}
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
