// Package linefit fits a border line through a noisy candidate point set.
// Two fixed strategies are provided: random-sample consensus and a
// closed-form total-least-squares fit with residual trimming. The strategy
// is chosen at construction, not probed at runtime.
package linefit

import (
	"errors"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// ErrInsufficientData is returned when fewer than MinPoints points are given.
var ErrInsufficientData = errors.New("linefit: insufficient points for a fit")

// MinPoints is the minimum point count a fit requires.
const MinPoints = 3

// Orientation describes the dominant direction of a point set.
type Orientation int

const (
	OrientationHorizontal Orientation = iota
	OrientationVertical
)

// DominantOrientation compares coordinate variances: a set spread mostly in
// y belongs to a vertical border.
func DominantOrientation(pts []utils.Point) Orientation {
	var sx, sy, sxx, syy float64
	n := float64(len(pts))
	if n == 0 {
		return OrientationHorizontal
	}
	for _, p := range pts {
		sx += p.X
		sy += p.Y
		sxx += p.X * p.X
		syy += p.Y * p.Y
	}
	varX := sxx/n - (sx/n)*(sx/n)
	varY := syy/n - (sy/n)*(sy/n)
	if varY > varX {
		return OrientationVertical
	}
	return OrientationHorizontal
}

// Line holds normalized coefficients of ax+by+c=0 plus the inlier mask over
// the generating point set.
type Line struct {
	A, B, C float64
	Inliers []bool
}

// Residual returns the perpendicular distance from p to the line.
func (l Line) Residual(p utils.Point) float64 {
	return math.Abs(l.A*p.X + l.B*p.Y + l.C)
}

// InlierCount returns the number of set entries in the inlier mask.
func (l Line) InlierCount() int {
	n := 0
	for _, in := range l.Inliers {
		if in {
			n++
		}
	}
	return n
}

// Config holds consensus-fitting parameters.
type Config struct {
	// consensus iterations upper bound
	MaxTrials int `mapstructure:"max_trials" json:"max_trials" yaml:"max_trials"`
	// stopping confidence
	Confidence float64 `mapstructure:"confidence" json:"confidence" yaml:"confidence"`
	// residual threshold = max(base, gain*scale), scale = max(w,h)/divisor
	ResidualBase float64 `mapstructure:"residual_base" json:"residual_base" yaml:"residual_base"`
	ResidualGain float64 `mapstructure:"residual_gain" json:"residual_gain" yaml:"residual_gain"`
	ScaleDivisor float64 `mapstructure:"scale_divisor" json:"scale_divisor" yaml:"scale_divisor"`
	// worst residual fraction trimmed by the closed-form fit
	TrimFraction float64 `mapstructure:"trim_fraction" json:"trim_fraction" yaml:"trim_fraction"`
	// minimal sample-pair separation in pixels
	MinPairSpread float64 `mapstructure:"min_pair_spread" json:"min_pair_spread" yaml:"min_pair_spread"`
}

// DefaultConfig returns fitting defaults.
func DefaultConfig() Config {
	return Config{
		MaxTrials:     200,
		Confidence:    0.995,
		ResidualBase:  3,
		ResidualGain:  20,
		ScaleDivisor:  2000,
		TrimFraction:  0.20,
		MinPairSpread: 2,
	}
}

// ResidualThreshold derives the inlier residual threshold for an image size.
func (c Config) ResidualThreshold(width, height int) float64 {
	dim := width
	if height > dim {
		dim = height
	}
	scale := float64(dim) / c.ScaleDivisor
	thr := c.ResidualGain * scale
	if thr < c.ResidualBase {
		thr = c.ResidualBase
	}
	return thr
}

// Strategy fits a line through a point set with the given inlier threshold.
type Strategy interface {
	Fit(pts []utils.Point, threshold float64) (Line, error)
}

// Fitter runs a fixed strategy over border point sets.
type Fitter struct {
	strategy Strategy
}

// NewFitter creates a fitter with the given strategy.
func NewFitter(strategy Strategy) *Fitter {
	return &Fitter{strategy: strategy}
}

// Fit validates the point count and delegates to the strategy.
func (f *Fitter) Fit(pts []utils.Point, threshold float64) (Line, error) {
	if len(pts) < MinPoints {
		return Line{}, ErrInsufficientData
	}
	return f.strategy.Fit(pts, threshold)
}

// Consensus implements random-sample consensus: repeated two-point fits
// scored by inlier count, refined with a total-least-squares fit over the
// winning inlier set.
type Consensus struct {
	cfg Config
	rng *rand.Rand
}

// NewConsensus creates a consensus strategy with an injected random source
// so fits are reproducible in tests.
func NewConsensus(cfg Config, rng *rand.Rand) *Consensus {
	return &Consensus{cfg: cfg, rng: rng}
}

// Fit runs the consensus loop.
func (s *Consensus) Fit(pts []utils.Point, threshold float64) (Line, error) {
	if len(pts) < MinPoints {
		return Line{}, ErrInsufficientData
	}

	bestCount := 0
	var bestLine Line
	trials := s.cfg.MaxTrials
	n := len(pts)

	for t := 0; t < trials; t++ {
		i := s.rng.Intn(n)
		j := s.rng.Intn(n)
		if i == j {
			continue
		}
		a, b := pts[i], pts[j]
		if utils.Dist(a, b) < s.cfg.MinPairSpread {
			continue
		}
		line, ok := lineThrough(a, b)
		if !ok {
			continue
		}
		count := countInliers(line, pts, threshold)
		if count <= bestCount {
			continue
		}
		bestCount = count
		bestLine = line

		// Shrink the trial budget once the inlier ratio supports the
		// requested stopping confidence.
		w := float64(count) / float64(n)
		if denom := math.Log(1 - w*w); denom < 0 {
			needed := int(math.Ceil(math.Log(1-s.cfg.Confidence) / denom))
			if needed < trials {
				trials = maxInt(t+1, needed)
			}
		}
	}

	if bestCount < MinPoints {
		return Line{}, ErrInsufficientData
	}

	// Refine on the consensus set.
	mask := inlierMask(bestLine, pts, threshold)
	inliers := selectPoints(pts, mask)
	refined, ok := totalLeastSquares(inliers)
	if ok {
		bestLine = refined
	}
	bestLine.Inliers = inlierMask(bestLine, pts, threshold)
	return bestLine, nil
}

// TrimmedTLS is the closed-form fallback: one total-least-squares fit with
// the worst residual fraction discarded as pseudo-outliers, then a refit.
type TrimmedTLS struct {
	TrimFraction float64
}

// NewTrimmedTLS creates the closed-form strategy.
func NewTrimmedTLS(trimFraction float64) *TrimmedTLS {
	return &TrimmedTLS{TrimFraction: trimFraction}
}

// Fit performs the trimmed fit.
func (s *TrimmedTLS) Fit(pts []utils.Point, threshold float64) (Line, error) {
	if len(pts) < MinPoints {
		return Line{}, ErrInsufficientData
	}
	first, ok := totalLeastSquares(pts)
	if !ok {
		return Line{}, ErrInsufficientData
	}

	keep := len(pts) - int(s.TrimFraction*float64(len(pts)))
	if keep < MinPoints {
		keep = MinPoints
	}
	if keep < len(pts) {
		trimmed := trimWorst(first, pts, keep)
		if refit, ok := totalLeastSquares(trimmed); ok {
			first = refit
		}
	}
	first.Inliers = inlierMask(first, pts, threshold)
	return first, nil
}

// lineThrough builds the normalized line through two points.
func lineThrough(p, q utils.Point) (Line, bool) {
	dx, dy := q.X-p.X, q.Y-p.Y
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return Line{}, false
	}
	a, b := -dy/norm, dx/norm
	return Line{A: a, B: b, C: -(a*p.X + b*p.Y)}, true
}

// totalLeastSquares fits ax+by+c=0 minimizing perpendicular residuals via
// the minor principal axis of the point covariance.
func totalLeastSquares(pts []utils.Point) (Line, bool) {
	n := float64(len(pts))
	if n < 2 {
		return Line{}, false
	}
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= n
	cy /= n

	var sxx, sxy, syy float64
	for _, p := range pts {
		dx, dy := p.X-cx, p.Y-cy
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}

	// Smaller eigenvalue of the 2x2 covariance; its eigenvector is the normal.
	tr := sxx + syy
	det := math.Sqrt((sxx-syy)*(sxx-syy) + 4*sxy*sxy)
	lambda := (tr - det) / 2

	a, b := sxy, lambda-sxx
	if math.Hypot(a, b) < 1e-12 {
		a, b = lambda-syy, sxy
	}
	norm := math.Hypot(a, b)
	if norm < 1e-12 {
		// Perfectly isotropic or degenerate spread.
		return Line{}, false
	}
	a /= norm
	b /= norm
	return Line{A: a, B: b, C: -(a*cx + b*cy)}, true
}

func countInliers(l Line, pts []utils.Point, threshold float64) int {
	n := 0
	for _, p := range pts {
		if l.Residual(p) <= threshold {
			n++
		}
	}
	return n
}

func inlierMask(l Line, pts []utils.Point, threshold float64) []bool {
	mask := make([]bool, len(pts))
	for i, p := range pts {
		mask[i] = l.Residual(p) <= threshold
	}
	return mask
}

func selectPoints(pts []utils.Point, mask []bool) []utils.Point {
	out := make([]utils.Point, 0, len(pts))
	for i, p := range pts {
		if mask[i] {
			out = append(out, p)
		}
	}
	return out
}

// trimWorst keeps the `keep` points with the smallest residuals.
func trimWorst(l Line, pts []utils.Point, keep int) []utils.Point {
	type scored struct {
		p utils.Point
		r float64
	}
	s := make([]scored, len(pts))
	for i, p := range pts {
		s[i] = scored{p: p, r: l.Residual(p)}
	}
	// insertion sort by residual; point sets are small
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j].r > v.r {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
	out := make([]utils.Point, keep)
	for i := range keep {
		out[i] = s[i].p
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
