package contour

import (
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/MeKo-Tech/folio/internal/edges"
	"github.com/MeKo-Tech/folio/internal/mempool"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// RecoveryConfig controls the fallback probing used when an edge scan left
// a border with too few points.
type RecoveryConfig struct {
	MinPoints        int     `mapstructure:"min_points"        json:"min_points"        yaml:"min_points"`
	ProbeCount       int     `mapstructure:"probe_count"       json:"probe_count"       yaml:"probe_count"`
	JumpThreshold    float32 `mapstructure:"jump_threshold"    json:"jump_threshold"    yaml:"jump_threshold"`
	MedianSize       float64 `mapstructure:"median_size"       json:"median_size"       yaml:"median_size"`
	CloseKernel      int     `mapstructure:"close_kernel"      json:"close_kernel"      yaml:"close_kernel"`
	BinarizeRatio    float32 `mapstructure:"binarize_ratio"    json:"binarize_ratio"    yaml:"binarize_ratio"`
	DefaultInset     float64 `mapstructure:"default_inset"     json:"default_inset"     yaml:"default_inset"`
	SearchBand       float64 `mapstructure:"search_band"       json:"search_band"       yaml:"search_band"`
	ProbeEdgeMargin  float64 `mapstructure:"probe_edge_margin" json:"probe_edge_margin" yaml:"probe_edge_margin"`
}

// DefaultRecoveryConfig returns recovery defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		MinPoints:       5,
		ProbeCount:      12,
		JumpThreshold:   15,
		MedianSize:      3,
		CloseKernel:     3,
		BinarizeRatio:   0.6,
		DefaultInset:    0.04,
		SearchBand:      0.12,
		ProbeEdgeMargin: 0.05,
	}
}

// Recoverer rebuilds a sparse border point set by probing a cleaned binary
// page mask for intensity jumps near the border's expected position.
type Recoverer struct {
	cfg RecoveryConfig

	// cached per image
	filtered utils.Plane
	mask     []bool
}

// NewRecoverer creates a recoverer.
func NewRecoverer(cfg RecoveryConfig) *Recoverer {
	return &Recoverer{cfg: cfg}
}

// Release returns pooled buffers. Call once per processed image.
func (r *Recoverer) Release() {
	if r.mask != nil {
		mempool.PutBool(r.mask)
		r.mask = nil
	}
	r.filtered = utils.Plane{}
}

// prepare builds the median-filtered plane and closed binary mask once per
// image; subsequent borders reuse them.
func (r *Recoverer) prepare(p utils.Plane) {
	if !r.filtered.Empty() {
		return
	}
	med := effect.Median(p.ToGray(), r.cfg.MedianSize)
	r.filtered = utils.GrayPlane(med)

	thr := float32(r.filtered.Mean()) * r.cfg.BinarizeRatio
	r.mask = binarizePlane(r.filtered, thr)
	r.mask = closeBool(r.mask, p.Width, p.Height, r.cfg.CloseKernel)
}

// Recover probes for replacement points along the given border. The
// returned set may still be empty; the caller decides what that means.
func (r *Recoverer) Recover(p utils.Plane, border edges.Border, opposite []utils.Point) []utils.Point {
	r.prepare(p)

	expected := r.expectedPosition(p, border, opposite)
	w, h := p.Width, p.Height

	axisLen := h // probe positions run along the border axis
	perpLen := w // the probe itself walks the perpendicular axis
	if border == edges.BorderTop || border == edges.BorderBottom {
		axisLen, perpLen = w, h
	}

	band := int(r.cfg.SearchBand * float64(perpLen))
	if band < 4 {
		band = 4
	}
	lo := clamp(int(expected)-band, 0, perpLen-2)
	hi := clamp(int(expected)+band, 1, perpLen-1)

	margin := int(r.cfg.ProbeEdgeMargin * float64(axisLen))
	pts := make([]utils.Point, 0, r.cfg.ProbeCount)

	for i := range r.cfg.ProbeCount {
		along := margin + (axisLen-2*margin)*i/(r.cfg.ProbeCount-1)
		pos, ok := r.probe(border, along, lo, hi, expected)
		if !ok {
			continue
		}
		if border == edges.BorderTop || border == edges.BorderBottom {
			pts = append(pts, utils.Point{X: float64(along), Y: pos})
		} else {
			pts = append(pts, utils.Point{X: pos, Y: float64(along)})
		}
	}
	return pts
}

// probe walks [lo,hi] on the perpendicular axis at the given coordinate and
// returns the jump position nearest to the expected one.
func (r *Recoverer) probe(border edges.Border, along, lo, hi int, expected float64) (float64, bool) {
	best := -1.0
	bestDist := math.Inf(1)

	sample := func(pos int) float32 {
		if border == edges.BorderTop || border == edges.BorderBottom {
			return r.filtered.At(along, pos)
		}
		return r.filtered.At(pos, along)
	}
	masked := func(pos int) bool {
		if border == edges.BorderTop || border == edges.BorderBottom {
			return r.mask[pos*r.filtered.Width+along]
		}
		return r.mask[along*r.filtered.Width+pos]
	}

	for pos := lo; pos < hi; pos++ {
		d := sample(pos+1) - sample(pos)
		if d < 0 {
			d = -d
		}
		if d <= r.cfg.JumpThreshold {
			continue
		}
		// require the mask to flip across the jump, otherwise it is content
		if masked(pos) == masked(pos+1) {
			continue
		}
		dist := math.Abs(float64(pos) - expected)
		if dist < bestDist {
			bestDist = dist
			best = float64(pos)
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// expectedPosition mirrors the opposite border's median across the image,
// or falls back to a default inset from the near edge.
func (r *Recoverer) expectedPosition(p utils.Plane, border edges.Border, opposite []utils.Point) float64 {
	w, h := float64(p.Width), float64(p.Height)
	perp := w
	if border == edges.BorderTop || border == edges.BorderBottom {
		perp = h
	}

	if len(opposite) > 0 {
		vals := make([]float64, len(opposite))
		for i, pt := range opposite {
			if border == edges.BorderTop || border == edges.BorderBottom {
				vals[i] = pt.Y
			} else {
				vals[i] = pt.X
			}
		}
		sort.Float64s(vals)
		med := vals[len(vals)/2]
		// mirror the opposite border's inset onto this side
		return perp - med
	}

	inset := r.cfg.DefaultInset * perp
	switch border {
	case edges.BorderTop, edges.BorderLeft:
		return inset
	default:
		return perp - inset
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
