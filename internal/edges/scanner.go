// Package edges locates candidate border points by scanning gradient
// profiles across the image and classifying their peaks against the
// background statistics.
package edges

import (
	"log/slog"

	"github.com/MeKo-Tech/folio/internal/background"
	"github.com/MeKo-Tech/folio/internal/gradient"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// Border identifies one side of the page.
type Border int

const (
	BorderTop Border = iota
	BorderBottom
	BorderLeft
	BorderRight
)

// String returns the lowercase border name.
func (b Border) String() string {
	switch b {
	case BorderTop:
		return "top"
	case BorderBottom:
		return "bottom"
	case BorderLeft:
		return "left"
	case BorderRight:
		return "right"
	}
	return "unknown"
}

// Config controls scanline placement and peak classification.
type Config struct {
	// number of scanlines per axis
	ScanlinesPerAxis int `mapstructure:"scanlines_per_axis" json:"scanlines_per_axis" yaml:"scanlines_per_axis"`
	// gradient threshold = gain * MinContrast
	GradientGain float64 `mapstructure:"gradient_gain" json:"gradient_gain" yaml:"gradient_gain"`
	// required peak prominence relative to peak height
	ProminenceRatio float64 `mapstructure:"prominence_ratio" json:"prominence_ratio" yaml:"prominence_ratio"`
	// samples averaged on each side of a peak
	ContextSamples int `mapstructure:"context_samples" json:"context_samples" yaml:"context_samples"`
	// directional contrast / contrast span lower bound
	MinRelativeContrast float64 `mapstructure:"min_relative_contrast" json:"min_relative_contrast" yaml:"min_relative_contrast"`
	// clip range for the brightness-ratio correction
	LuminanceClipLow  float64 `mapstructure:"luminance_clip_low"  json:"luminance_clip_low"  yaml:"luminance_clip_low"`
	LuminanceClipHigh float64 `mapstructure:"luminance_clip_high" json:"luminance_clip_high" yaml:"luminance_clip_high"`
	// peaks within this outer fraction are always accepted
	OuterAcceptFraction float64 `mapstructure:"outer_accept_fraction" json:"outer_accept_fraction" yaml:"outer_accept_fraction"`
	// accepted peaks must sit within this band around the seed
	SeedBandFraction float64 `mapstructure:"seed_band_fraction" json:"seed_band_fraction" yaml:"seed_band_fraction"`
	// outer fraction searched for the projection seed
	SeedSearchFraction float64 `mapstructure:"seed_search_fraction" json:"seed_search_fraction" yaml:"seed_search_fraction"`
}

// DefaultConfig returns scanner defaults.
func DefaultConfig() Config {
	return Config{
		ScanlinesPerAxis:    12,
		GradientGain:        1.0,
		ProminenceRatio:     0.30,
		ContextSamples:      10,
		MinRelativeContrast: 0.10,
		LuminanceClipLow:    0.5,
		LuminanceClipHigh:   2.0,
		OuterAcceptFraction: 0.02,
		SeedBandFraction:    0.05,
		SeedSearchFraction:  0.125,
	}
}

// PointSets holds accepted border candidate points for all four borders.
type PointSets struct {
	Top    []utils.Point
	Bottom []utils.Point
	Left   []utils.Point
	Right  []utils.Point
}

// Get returns the point set for a border.
func (p PointSets) Get(b Border) []utils.Point {
	switch b {
	case BorderTop:
		return p.Top
	case BorderBottom:
		return p.Bottom
	case BorderLeft:
		return p.Left
	case BorderRight:
		return p.Right
	}
	return nil
}

// Scanner extracts border candidate points from a gradient field.
type Scanner struct {
	cfg Config
}

// NewScanner creates a scanner with the given configuration.
func NewScanner(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan walks scanlines on both axes and returns per-border point sets.
func (s *Scanner) Scan(field gradient.Field, bg background.Stats) PointSets {
	w := field.AbsGX.Width
	h := field.AbsGX.Height

	seeds := s.projectionSeeds(field)
	slog.Debug("border projection seeds",
		"top", seeds[BorderTop], "bottom", seeds[BorderBottom],
		"left", seeds[BorderLeft], "right", seeds[BorderRight])

	var out PointSets
	n := s.cfg.ScanlinesPerAxis

	// Horizontal scanlines across x yield left/right candidates.
	for i := range n {
		y := (i + 1) * h / (n + 1)
		intensity := rowProfile(field.SmoothV, y)
		grad := rowProfile(field.AbsGX, y)
		for _, px := range s.scanProfile(intensity, grad, bg, BorderLeft, seeds[BorderLeft], w) {
			out.Left = append(out.Left, utils.Point{X: float64(px), Y: float64(y)})
		}
		for _, px := range s.scanProfile(intensity, grad, bg, BorderRight, seeds[BorderRight], w) {
			out.Right = append(out.Right, utils.Point{X: float64(px), Y: float64(y)})
		}
	}

	// Vertical scanlines across y yield top/bottom candidates.
	for i := range n {
		x := (i + 1) * w / (n + 1)
		intensity := colProfile(field.SmoothH, x)
		grad := colProfile(field.AbsGY, x)
		for _, py := range s.scanProfile(intensity, grad, bg, BorderTop, seeds[BorderTop], h) {
			out.Top = append(out.Top, utils.Point{X: float64(x), Y: float64(py)})
		}
		for _, py := range s.scanProfile(intensity, grad, bg, BorderBottom, seeds[BorderBottom], h) {
			out.Bottom = append(out.Bottom, utils.Point{X: float64(x), Y: float64(py)})
		}
	}

	slog.Debug("border candidates",
		"top", len(out.Top), "bottom", len(out.Bottom),
		"left", len(out.Left), "right", len(out.Right))
	return out
}

// scanProfile finds and classifies peaks for one border along one profile,
// then applies the seed band filter. Returned values are profile indices.
func (s *Scanner) scanProfile(intensity, grad []float32, bg background.Stats,
	border Border, seed int, dim int,
) []int {
	thr := float32(s.cfg.GradientGain * bg.MinContrast)
	peaks := findPeaks(grad, thr, s.cfg.ProminenceRatio)

	band := int(s.cfg.SeedBandFraction * float64(dim))
	accepted := make([]int, 0, 2)
	for _, pk := range peaks {
		if !s.classifyPeak(pk, intensity, grad, bg, border) {
			continue
		}
		if seed >= 0 && absInt(pk-seed) > band {
			continue
		}
		accepted = append(accepted, pk)
	}
	return accepted
}

// classifyPeak decides whether a gradient peak is a plausible border crossing.
func (s *Scanner) classifyPeak(pk int, intensity, grad []float32,
	bg background.Stats, border Border,
) bool {
	n := len(intensity)
	outer := int(s.cfg.OuterAcceptFraction * float64(n))
	if pk <= outer || pk >= n-1-outer {
		// Borders hugging the frame edge leave no room for context sampling.
		return true
	}

	before := sideMean(intensity, pk, -1, s.cfg.ContextSamples)
	after := sideMean(intensity, pk, +1, s.cfg.ContextSamples)

	// Inside lies toward the image center: after the peak for top/left,
	// before it for bottom/right.
	var contrast float64
	switch border {
	case BorderTop, BorderLeft:
		contrast = after - before
	case BorderBottom, BorderRight:
		contrast = before - after
	}

	// Luminance weighting: bright local neighborhoods inflate gradients, dark
	// ones suppress them; normalize before comparing against the threshold.
	local := (before + after) / 2
	meanAll := meanOf(intensity)
	ratio := 1.0
	if meanAll > 0 {
		ratio = local / meanAll
	}
	if ratio < s.cfg.LuminanceClipLow {
		ratio = s.cfg.LuminanceClipLow
	} else if ratio > s.cfg.LuminanceClipHigh {
		ratio = s.cfg.LuminanceClipHigh
	}
	adjusted := float64(grad[pk]) / ratio

	if contrast < bg.MinContrast {
		return false
	}
	if contrast/bg.ContrastSpan < s.cfg.MinRelativeContrast {
		return false
	}
	return adjusted >= s.cfg.GradientGain*bg.MinContrast
}

// projectionSeeds locates, per border, the position of the strongest mean
// gradient response within the outer eighth of that side. A seed of -1 means
// no usable response was found and the band filter is skipped.
func (s *Scanner) projectionSeeds(field gradient.Field) map[Border]int {
	w := field.AbsGX.Width
	h := field.AbsGX.Height

	colMeans := make([]float64, w)
	for x := range w {
		var sum float64
		for y := range h {
			sum += float64(field.AbsGX.Pix[y*w+x])
		}
		colMeans[x] = sum / float64(h)
	}
	rowMeans := make([]float64, h)
	for y := range h {
		var sum float64
		row := y * w
		for x := range w {
			sum += float64(field.AbsGY.Pix[row+x])
		}
		rowMeans[y] = sum / float64(w)
	}

	eighthW := int(s.cfg.SeedSearchFraction * float64(w))
	eighthH := int(s.cfg.SeedSearchFraction * float64(h))
	return map[Border]int{
		BorderLeft:   argmaxRange(colMeans, 0, eighthW),
		BorderRight:  argmaxRange(colMeans, w-eighthW, w),
		BorderTop:    argmaxRange(rowMeans, 0, eighthH),
		BorderBottom: argmaxRange(rowMeans, h-eighthH, h),
	}
}

func rowProfile(p utils.Plane, y int) []float32 {
	return p.Pix[y*p.Width : (y+1)*p.Width]
}

func colProfile(p utils.Plane, x int) []float32 {
	out := make([]float32, p.Height)
	for y := range p.Height {
		out[y] = p.Pix[y*p.Width+x]
	}
	return out
}

// sideMean averages up to count samples on one side of idx (dir ±1),
// excluding idx itself.
func sideMean(vals []float32, idx, dir, count int) float64 {
	var sum float64
	n := 0
	for k := 1; k <= count; k++ {
		i := idx + dir*k
		if i < 0 || i >= len(vals) {
			break
		}
		sum += float64(vals[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func meanOf(vals []float32) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += float64(v)
	}
	return sum / float64(len(vals))
}

func argmaxRange(vals []float64, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > len(vals) {
		hi = len(vals)
	}
	if lo >= hi {
		return -1
	}
	best := lo
	for i := lo + 1; i < hi; i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	if vals[best] <= 0 {
		return -1
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
