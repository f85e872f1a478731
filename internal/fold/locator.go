// Package fold locates the gutter shadow of an open book spread as a
// brightness valley in a central vertical strip.
package fold

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// Estimate is a fold position in image coordinates with a confidence score
// in [0,1].
type Estimate struct {
	X          float64
	Confidence float64
}

// Config holds fold detection parameters.
type Config struct {
	StripStart         float64 `mapstructure:"strip_start"          json:"strip_start"          yaml:"strip_start"`
	StripEnd           float64 `mapstructure:"strip_end"            json:"strip_end"            yaml:"strip_end"`
	Iterations         int     `mapstructure:"iterations"           json:"iterations"           yaml:"iterations"`
	RowsPerIteration   int     `mapstructure:"rows_per_iteration"   json:"rows_per_iteration"   yaml:"rows_per_iteration"`
	RowRejectSigma     float64 `mapstructure:"row_reject_sigma"     json:"row_reject_sigma"     yaml:"row_reject_sigma"`
	SmoothFraction     float64 `mapstructure:"smooth_fraction"      json:"smooth_fraction"      yaml:"smooth_fraction"`
	RefineWindow       int     `mapstructure:"refine_window"        json:"refine_window"        yaml:"refine_window"`
	ProminenceSigma    float64 `mapstructure:"prominence_sigma"     json:"prominence_sigma"     yaml:"prominence_sigma"`
	MinSpacingFraction float64 `mapstructure:"min_spacing_fraction" json:"min_spacing_fraction" yaml:"min_spacing_fraction"`
	PenaltyThreshold   float64 `mapstructure:"penalty_threshold"    json:"penalty_threshold"    yaml:"penalty_threshold"`
	PenaltyDivisor     float64 `mapstructure:"penalty_divisor"      json:"penalty_divisor"      yaml:"penalty_divisor"`
	ExclusionFraction  float64 `mapstructure:"exclusion_fraction"   json:"exclusion_fraction"   yaml:"exclusion_fraction"`
}

// DefaultConfig returns fold detection defaults.
func DefaultConfig() Config {
	return Config{
		StripStart:         0.40,
		StripEnd:           0.60,
		Iterations:         20,
		RowsPerIteration:   60,
		RowRejectSigma:     1.5,
		SmoothFraction:     0.01,
		RefineWindow:       15,
		ProminenceSigma:    3.0,
		MinSpacingFraction: 0.10,
		PenaltyThreshold:   10,
		PenaltyDivisor:     30,
		ExclusionFraction:  0.10,
	}
}

// Locator estimates the fold position. It never fails; degraded input
// yields a low-confidence estimate instead.
type Locator struct {
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger
}

// NewLocator creates a locator. The random source drives the disjoint row
// partitions, so estimates are reproducible for a fixed seed.
func NewLocator(cfg Config, rng *rand.Rand, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{cfg: cfg, rng: rng, logger: logger}
}

// Locate runs fold detection over the default central strip.
func (l *Locator) Locate(p utils.Plane) Estimate {
	x0 := int(l.cfg.StripStart * float64(p.Width))
	x1 := int(l.cfg.StripEnd * float64(p.Width))
	return l.LocateRange(p, x0, x1)
}

// LocateRange runs fold detection over the strip [x0,x1).
func (l *Locator) LocateRange(p utils.Plane, x0, x1 int) Estimate {
	if x0 < 0 {
		x0 = 0
	}
	if x1 > p.Width {
		x1 = p.Width
	}
	roiW := x1 - x0
	if p.Empty() || roiW < 3 || p.Height < 1 {
		return Estimate{X: float64(p.Width) / 2, Confidence: 0}
	}

	iterations := l.cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}

	// disjoint random row partition shared by all iterations
	perm := l.rng.Perm(p.Height)
	chunk := p.Height / iterations
	if chunk > l.cfg.RowsPerIteration {
		chunk = l.cfg.RowsPerIteration
	}
	if chunk < 1 {
		chunk = 1
		if iterations > p.Height {
			iterations = p.Height
		}
	}

	accum := make([]float64, roiW)
	positions := make([]float64, 0, iterations)

	for it := range iterations {
		rows := perm[it*chunk : (it+1)*chunk]
		profile := l.iterationProfile(p, x0, roiW, rows)
		if profile == nil {
			continue
		}
		detrend(profile)
		for i, v := range profile {
			accum[i] += v
		}

		smoothed := boxSmooth(profile, l.smoothKernel(roiW))
		raw := argmin(smoothed)
		positions = append(positions, l.refine(smoothed, raw))
	}

	if len(positions) == 0 {
		return Estimate{X: float64(x0 + roiW/2), Confidence: 0}
	}
	for i := range accum {
		accum[i] /= float64(len(positions))
	}

	return l.decide(accum, positions, x0, roiW)
}

// iterationProfile builds the enhanced brightness profile (mean plus std
// per column) over the given rows, after rejecting rows whose mean
// deviates too far from the iteration's row mean.
func (l *Locator) iterationProfile(p utils.Plane, x0, roiW int, rows []int) []float64 {
	means := make([]float64, len(rows))
	for i, y := range rows {
		var sum float64
		for x := range roiW {
			sum += float64(p.At(x0+x, y))
		}
		means[i] = sum / float64(roiW)
	}
	rowMean, rowStd := utils.MeanStd(means)

	kept := rows[:0:0]
	for i, y := range rows {
		if math.Abs(means[i]-rowMean) <= l.cfg.RowRejectSigma*rowStd {
			kept = append(kept, y)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	profile := make([]float64, roiW)
	n := float64(len(kept))
	for x := range roiW {
		var sum, sumSq float64
		for _, y := range kept {
			v := float64(p.At(x0+x, y))
			sum += v
			sumSq += v * v
		}
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		profile[x] = mean + math.Sqrt(variance)
	}
	return profile
}

// decide turns the averaged profile and per-iteration positions into the
// final estimate.
func (l *Locator) decide(profile, positions []float64, x0, roiW int) Estimate {
	_, sigma := utils.MeanStd(profile)
	posMean, posStd := utils.MeanStd(positions)

	// A featureless profile has no valley to report.
	if sigma < 1e-9 {
		return Estimate{X: float64(x0) + posMean, Confidence: 0}
	}

	minima := localMinima(profile, l.cfg.ProminenceSigma*sigma,
		int(l.cfg.MinSpacingFraction*float64(roiW)))

	var pos, base float64
	switch {
	case len(minima) == 1:
		pos, base = float64(minima[0]), 1.0
	case len(minima) >= 2 && len(minima) <= 3:
		center := float64(roiW) / 2
		best := minima[0]
		for _, m := range minima[1:] {
			if math.Abs(float64(m)-center) < math.Abs(float64(best)-center) {
				best = m
			}
		}
		pos, base = float64(best), 0.7
	default:
		// no clear valley, average the per-iteration estimates
		pos, base = posMean, 0.5
	}

	consistency := consistencyScore(posStd / float64(roiW))
	quality := (base + consistency) / 2

	if quality >= 0.6 {
		variability := profileVariability(profile, int(pos), int(l.cfg.ExclusionFraction*float64(roiW)))
		if variability > l.cfg.PenaltyThreshold {
			quality -= variability / l.cfg.PenaltyDivisor
		}
	}
	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}

	l.logger.Debug("fold located", "x", float64(x0)+pos, "confidence", quality,
		"minima", len(minima), "spread", posStd)
	return Estimate{X: float64(x0) + pos, Confidence: quality}
}

// refine fits a parabola to a window around the raw minimum and takes its
// vertex. A degenerate fit falls back to the raw index.
func (l *Locator) refine(profile []float64, raw int) float64 {
	lo := raw - l.cfg.RefineWindow
	hi := raw + l.cfg.RefineWindow
	if lo < 0 {
		lo = 0
	}
	if hi > len(profile)-1 {
		hi = len(profile) - 1
	}
	if hi-lo < 2 {
		return float64(raw)
	}

	// least-squares quadratic fit over the window
	var s0, s1, s2, s3, s4, t0, t1, t2 float64
	for i := lo; i <= hi; i++ {
		x := float64(i - raw)
		y := profile[i]
		s0++
		s1 += x
		s2 += x * x
		s3 += x * x * x
		s4 += x * x * x * x
		t0 += y
		t1 += x * y
		t2 += x * x * y
	}
	// solve the 3x3 normal equations for y = a*x^2 + b*x + c
	d := s4*(s2*s0-s1*s1) - s3*(s3*s0-s1*s2) + s2*(s3*s1-s2*s2)
	if math.Abs(d) < 1e-12 {
		return float64(raw)
	}
	a := (t2*(s2*s0-s1*s1) - s3*(t1*s0-t0*s1) + s2*(t1*s1-t0*s2)) / d
	b := (s4*(t1*s0-t0*s1) - t2*(s3*s0-s1*s2) + s2*(s3*t0-s2*t1)) / d
	if a <= 1e-12 {
		return float64(raw)
	}
	vertex := -b / (2 * a)
	if math.Abs(vertex) > float64(l.cfg.RefineWindow) {
		return float64(raw)
	}
	return float64(raw) + vertex
}

func (l *Locator) smoothKernel(roiW int) int {
	k := int(l.cfg.SmoothFraction * float64(roiW))
	if k < 3 {
		k = 3
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// detrend subtracts the least-squares line from the profile in place.
func detrend(profile []float64) {
	n := float64(len(profile))
	var sx, sy, sxx, sxy float64
	for i, v := range profile {
		x := float64(i)
		sx += x
		sy += v
		sxx += x * x
		sxy += x * v
	}
	d := n*sxx - sx*sx
	if math.Abs(d) < 1e-12 {
		return
	}
	slope := (n*sxy - sx*sy) / d
	intercept := (sy - slope*sx) / n
	for i := range profile {
		profile[i] -= slope*float64(i) + intercept
	}
}

// boxSmooth applies a centered moving average with an odd kernel.
func boxSmooth(profile []float64, kernel int) []float64 {
	half := kernel / 2
	out := make([]float64, len(profile))
	for i := range profile {
		var sum float64
		var count int
		for k := -half; k <= half; k++ {
			j := i + k
			if j < 0 || j >= len(profile) {
				continue
			}
			sum += profile[j]
			count++
		}
		out[i] = sum / float64(count)
	}
	return out
}

func argmin(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v < vals[best] {
			best = i
		}
	}
	return best
}

// localMinima finds profile valleys with at least the given prominence and
// mutual spacing, deepest first within each spacing window.
func localMinima(profile []float64, prominence float64, minSpacing int) []int {
	var candidates []int
	for i := 1; i < len(profile)-1; i++ {
		if profile[i] > profile[i-1] || profile[i] >= profile[i+1] {
			continue
		}
		if valleyProminence(profile, i) < prominence {
			continue
		}
		candidates = append(candidates, i)
	}

	// enforce spacing, keeping the deeper of any close pair
	var out []int
	for _, c := range candidates {
		replaced := false
		for j, o := range out {
			if absInt(c-o) < minSpacing {
				if profile[c] < profile[o] {
					out[j] = c
				}
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

// valleyProminence walks outward from a valley to the nearest deeper sample
// on each side and measures the lower of the two enclosing ridges.
func valleyProminence(profile []float64, i int) float64 {
	leftRidge := profile[i]
	for j := i - 1; j >= 0; j-- {
		if profile[j] < profile[i] {
			break
		}
		if profile[j] > leftRidge {
			leftRidge = profile[j]
		}
	}
	rightRidge := profile[i]
	for j := i + 1; j < len(profile); j++ {
		if profile[j] < profile[i] {
			break
		}
		if profile[j] > rightRidge {
			rightRidge = profile[j]
		}
	}
	ridge := leftRidge
	if rightRidge < ridge {
		ridge = rightRidge
	}
	return ridge - profile[i]
}

// consistencyScore bands the relative spread of per-iteration estimates.
func consistencyScore(relativeSpread float64) float64 {
	switch {
	case relativeSpread <= 0.01:
		return 1.0
	case relativeSpread <= 0.02:
		return 0.8
	case relativeSpread <= 0.05:
		return 0.6
	case relativeSpread <= 0.10:
		return 0.4
	default:
		return 0.2
	}
}

// profileVariability is the standard deviation of the profile with a window
// around the chosen fold excluded.
func profileVariability(profile []float64, pos, window int) float64 {
	vals := make([]float64, 0, len(profile))
	for i, v := range profile {
		if absInt(i-pos) <= window {
			continue
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return 0
	}
	_, std := utils.MeanStd(vals)
	return std
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
