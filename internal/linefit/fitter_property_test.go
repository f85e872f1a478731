package linefit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/folio/internal/utils"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConsensusFit_InlierRecoveryProperty verifies that consensus fitting
// recovers at least 80% of the true inliers under moderate contamination.
func TestConsensusFit_InlierRecoveryProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("recovers most true inliers despite outliers", prop.ForAll(
		func(seed int64, intercept float64, slopeMilli int) bool {
			rng := rand.New(rand.NewSource(seed))
			slope := float64(slopeMilli) / 1000

			const nInliers = 40
			pts := make([]utils.Point, 0, nInliers+10)
			for i := range nInliers {
				x := float64(i) * 5
				pts = append(pts, utils.Point{
					X: x,
					Y: intercept + slope*x + (rng.Float64()*2-1)*0.5,
				})
			}
			// 20% contamination well outside the residual threshold
			for i := range 10 {
				pts = append(pts, utils.Point{
					X: float64(i) * 20,
					Y: intercept + 50 + rng.Float64()*100,
				})
			}

			line, err := NewConsensus(DefaultConfig(), rng).Fit(pts, 3)
			if err != nil {
				return false
			}

			recovered := 0
			for i := range nInliers {
				if line.Inliers[i] {
					recovered++
				}
			}
			return recovered >= int(0.8*nInliers)
		},
		gen.Int64Range(1, 1000),
		gen.Float64Range(-50, 50),
		gen.IntRange(-200, 200),
	))

	properties.TestingRun(t)
}

// TestConsensusFit_ResidualBoundProperty verifies that every reported inlier
// actually lies within the residual threshold.
func TestConsensusFit_ResidualBoundProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("inlier mask respects the residual threshold", prop.ForAll(
		func(seed int64, threshold float64) bool {
			rng := rand.New(rand.NewSource(seed))

			pts := make([]utils.Point, 30)
			for i := range pts {
				pts[i] = utils.Point{
					X: rng.Float64() * 200,
					Y: rng.Float64() * 200,
				}
			}

			line, err := NewConsensus(DefaultConfig(), rng).Fit(pts, threshold)
			if err != nil {
				// random scatter can fail to reach a consensus set
				return true
			}

			for i, p := range pts {
				if line.Inliers[i] && line.Residual(p) > threshold+1e-9 {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 1000),
		gen.Float64Range(1, 10),
	))

	properties.TestingRun(t)
}

// TestTrimmedTLS_ExactLineProperty verifies the closed-form fit is exact on
// collinear points regardless of orientation.
func TestTrimmedTLS_ExactLineProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("collinear points fit with zero residual", prop.ForAll(
		func(angleDeg int, offset float64) bool {
			theta := float64(angleDeg) * math.Pi / 180
			dx, dy := math.Cos(theta), math.Sin(theta)

			pts := make([]utils.Point, 12)
			for i := range pts {
				d := float64(i) * 7
				pts[i] = utils.Point{X: offset + d*dx, Y: offset/2 + d*dy}
			}

			line, err := NewTrimmedTLS(0.2).Fit(pts, 3)
			if err != nil {
				return false
			}
			for _, p := range pts {
				if line.Residual(p) > 1e-6 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 179),
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}
