package contour

import (
	"image"
	"log/slog"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/folio/internal/background"
	"github.com/MeKo-Tech/folio/internal/edges"
	"github.com/MeKo-Tech/folio/internal/linefit"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// Source names how a page outline was obtained.
type Source string

const (
	SourceGradient Source = "gradient" // four fitted border lines intersected
	SourcePolygon  Source = "polygon"  // binary mask fallback
	SourceNone     Source = "none"     // no plausible outline found
)

// Quad is a page outline in corner order top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]utils.Point

// Points returns the corners as a slice.
func (q Quad) Points() []utils.Point {
	return []utils.Point{q[0], q[1], q[2], q[3]}
}

// Centroid returns the corner average.
func (q Quad) Centroid() utils.Point {
	return utils.Centroid(q.Points())
}

// Result is a resolved page outline. Quad is nil when no outline was
// accepted; Angle is the estimated skew in degrees either way.
type Result struct {
	Quad   *Quad
	Angle  float64
	Source Source
	Reject string // why the line-fit outline was rejected, empty otherwise
}

// Config holds outline resolution parameters.
type Config struct {
	MinCoverage    float64         `mapstructure:"min_coverage"    json:"min_coverage"    yaml:"min_coverage"`
	FallbackDilate int             `mapstructure:"fallback_dilate" json:"fallback_dilate" yaml:"fallback_dilate"`
	AngleSamples   int             `mapstructure:"angle_samples"   json:"angle_samples"   yaml:"angle_samples"`
	OutsideWeight  float64         `mapstructure:"outside_weight"  json:"outside_weight"  yaml:"outside_weight"`
	Fit            linefit.Config  `mapstructure:"fit"             json:"fit"             yaml:"fit"`
	Recovery       RecoveryConfig  `mapstructure:"recovery"        json:"recovery"        yaml:"recovery"`
}

// DefaultConfig returns resolver defaults.
func DefaultConfig() Config {
	return Config{
		MinCoverage:    0.60,
		FallbackDilate: 5,
		AngleSamples:   24,
		OutsideWeight:  0.2,
		Fit:            linefit.DefaultConfig(),
		Recovery:       DefaultRecoveryConfig(),
	}
}

// Resolver turns border point sets into a page quadrilateral and skew angle.
type Resolver struct {
	cfg       Config
	logger    *slog.Logger
	primary   *linefit.Fitter
	secondary *linefit.Fitter
	recoverer *Recoverer
}

// NewResolver creates a resolver. The random source seeds consensus line
// fitting so results are reproducible.
func NewResolver(cfg Config, rng *rand.Rand, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cfg:       cfg,
		logger:    logger,
		primary:   linefit.NewFitter(linefit.NewConsensus(cfg.Fit, rng)),
		secondary: linefit.NewFitter(linefit.NewTrimmedTLS(cfg.Fit.TrimFraction)),
		recoverer: NewRecoverer(cfg.Recovery),
	}
}

// Resolve fits the four borders, intersects them and validates the result,
// degrading to the binary-mask polygon when fitting fails or the outline is
// implausible. It never fails outright; an unusable image yields SourceNone.
func (r *Resolver) Resolve(p utils.Plane, stats background.Stats, points edges.PointSets) Result {
	defer r.recoverer.Release()

	lines, complete := r.fitBorders(p, points)

	if complete {
		if quad, reject := r.assembleQuad(p, lines); reject == "" {
			angle := r.skewAngle(p, quad, stats)
			return Result{Quad: &quad, Angle: angle, Source: SourceGradient}
		} else if poly, ok := fallbackPolygon(p, stats.DarkThreshold, r.cfg.FallbackDilate); ok {
			quad := orderQuad(poly)
			angle := r.skewAngle(p, quad, stats)
			return Result{Quad: &quad, Angle: angle, Source: SourcePolygon, Reject: reject}
		} else {
			r.logger.Debug("outline rejected and mask fallback failed", "reason", reject)
			return Result{Source: SourceNone, Reject: reject}
		}
	}

	if poly, ok := fallbackPolygon(p, stats.DarkThreshold, r.cfg.FallbackDilate); ok {
		quad := orderQuad(poly)
		angle := r.skewAngle(p, quad, stats)
		return Result{Quad: &quad, Angle: angle, Source: SourcePolygon, Reject: "missing-border"}
	}

	r.logger.Debug("no page outline found")
	return Result{Source: SourceNone, Reject: "missing-border"}
}

// fitBorders fits a line per border, probing for replacement points when a
// scan came back sparse. complete is true when all four lines exist.
func (r *Resolver) fitBorders(p utils.Plane, points edges.PointSets) (map[edges.Border]linefit.Line, bool) {
	threshold := r.cfg.Fit.ResidualThreshold(p.Width, p.Height)
	borders := []edges.Border{edges.BorderTop, edges.BorderBottom, edges.BorderLeft, edges.BorderRight}
	opposites := map[edges.Border]edges.Border{
		edges.BorderTop:    edges.BorderBottom,
		edges.BorderBottom: edges.BorderTop,
		edges.BorderLeft:   edges.BorderRight,
		edges.BorderRight:  edges.BorderLeft,
	}

	lines := make(map[edges.Border]linefit.Line, 4)
	complete := true
	for _, b := range borders {
		pts := points.Get(b)
		if len(pts) < r.cfg.Recovery.MinPoints {
			pts = r.recoverer.Recover(p, b, points.Get(opposites[b]))
			r.logger.Debug("border points recovered", "border", b.String(), "count", len(pts))
		}

		line, err := r.primary.Fit(pts, threshold)
		if err != nil {
			line, err = r.secondary.Fit(pts, threshold)
		}
		if err != nil {
			r.logger.Debug("border line unavailable", "border", b.String(), "points", len(pts))
			complete = false
			continue
		}
		lines[b] = line
	}
	return lines, complete
}

// assembleQuad intersects the four border lines and validates coverage.
// An empty reject string means the quadrilateral was accepted.
func (r *Resolver) assembleQuad(p utils.Plane, lines map[edges.Border]linefit.Line) (Quad, string) {
	tl, ok1 := lineIntersection(lines[edges.BorderLeft], lines[edges.BorderTop])
	tr, ok2 := lineIntersection(lines[edges.BorderTop], lines[edges.BorderRight])
	br, ok3 := lineIntersection(lines[edges.BorderRight], lines[edges.BorderBottom])
	bl, ok4 := lineIntersection(lines[edges.BorderBottom], lines[edges.BorderLeft])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Quad{}, "parallel-borders"
	}

	quad := Quad{tl, tr, br, bl}
	width := ((tr.X - tl.X) + (br.X - bl.X)) / 2
	height := ((bl.Y - tl.Y) + (br.Y - tr.Y)) / 2
	if width < r.cfg.MinCoverage*float64(p.Width) || height < r.cfg.MinCoverage*float64(p.Height) {
		return Quad{}, "coverage"
	}
	return quad, ""
}

// lineIntersection solves the two-line system and reports failure for
// near-parallel pairs.
func lineIntersection(l1, l2 linefit.Line) (utils.Point, bool) {
	det := l1.A*l2.B - l2.A*l1.B
	if math.Abs(det) < 1e-9 {
		return utils.Point{}, false
	}
	x := (l1.B*l2.C - l2.B*l1.C) / det
	y := (l1.C*l2.A - l2.C*l1.A) / det
	return utils.Point{X: x, Y: y}, true
}

// orderQuad sorts four arbitrary corners into TL, TR, BR, BL order.
func orderQuad(pts []utils.Point) Quad {
	var q Quad
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		sum, diff := p.X+p.Y, p.X-p.Y
		if sum < minSum {
			minSum = sum
			q[0] = p // top-left
		}
		if sum > maxSum {
			maxSum = sum
			q[2] = p // bottom-right
		}
		if diff > maxDiff {
			maxDiff = diff
			q[1] = p // top-right
		}
		if diff < minDiff {
			minDiff = diff
			q[3] = p // bottom-left
		}
	}
	return q
}

// skewAngle estimates page rotation from the quadrilateral's sides.
// Each side's deviation from its nearest axis is weighted by whether the
// side's intensity looks like page interior or background, an outlier pass
// drops sides more than one weighted sigma out, and an angle smaller than
// the remaining spread is treated as noise.
func (r *Resolver) skewAngle(p utils.Plane, quad Quad, stats background.Stats) float64 {
	inside := insideMean(p, quad)
	outside := stats.Dark

	devs := make([]float64, 0, 4)
	weights := make([]float64, 0, 4)
	for i := range 4 {
		a, b := quad[i], quad[(i+1)%4]
		devs = append(devs, sideDeviation(a, b))

		m := sideIntensity(p, a, b, r.cfg.AngleSamples)
		w := r.cfg.OutsideWeight
		if math.Abs(m-inside) <= math.Abs(m-outside) {
			w = 1.0
		}
		weights = append(weights, w)
	}

	mean, sigma := weightedStats(devs, weights)

	// drop outlier sides and recompute
	kd := devs[:0:0]
	kw := weights[:0:0]
	for i, d := range devs {
		if math.Abs(d-mean) <= sigma {
			kd = append(kd, d)
			kw = append(kw, weights[i])
		}
	}
	if len(kd) > 0 {
		mean, sigma = weightedStats(kd, kw)
	}

	if math.Abs(mean) < sigma {
		return 0
	}
	return mean
}

// sideDeviation returns the side's angular deviation in degrees from the
// nearest image axis.
func sideDeviation(a, b utils.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx < 0 {
			dx, dy = -dx, -dy
		}
		return math.Atan2(dy, dx) * 180 / math.Pi
	}
	if dy < 0 {
		dx, dy = -dx, -dy
	}
	return math.Atan2(dy, dx)*180/math.Pi - 90
}

// sideIntensity samples the plane along a side and returns the mean value.
func sideIntensity(p utils.Plane, a, b utils.Point, samples int) float64 {
	if samples < 2 {
		samples = 2
	}
	var sum float64
	for i := range samples {
		t := float64(i) / float64(samples-1)
		x := int(a.X + t*(b.X-a.X))
		y := int(a.Y + t*(b.Y-a.Y))
		sum += float64(p.At(x, y))
	}
	return sum / float64(samples)
}

// insideMean samples the central half of the quadrilateral's bounding box.
func insideMean(p utils.Plane, quad Quad) float64 {
	bb := utils.BoundingBox(quad.Points())
	w, h := bb.Width(), bb.Height()
	return p.RegionMean(image.Rect(
		int(bb.MinX+0.25*w), int(bb.MinY+0.25*h),
		int(bb.MaxX-0.25*w), int(bb.MaxY-0.25*h),
	))
}

func weightedStats(vals, weights []float64) (float64, float64) {
	var sw, swv float64
	for i, v := range vals {
		sw += weights[i]
		swv += weights[i] * v
	}
	if sw == 0 {
		return 0, 0
	}
	mean := swv / sw
	var svar float64
	for i, v := range vals {
		svar += weights[i] * (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(svar / sw)
}
