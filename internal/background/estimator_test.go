package background

import (
	"testing"

	"github.com/MeKo-Tech/folio/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagePlane paints a bright page rectangle on a dark surround.
func pagePlane(w, h, inset int, dark, paper float32) utils.Plane {
	p := utils.NewPlane(w, h)
	for y := range h {
		for x := range w {
			v := dark
			if x >= inset && x < w-inset && y >= inset && y < h-inset {
				v = paper
			}
			p.Set(x, y, v)
		}
	}
	return p
}

func TestEstimateSeparatesPaperAndBackground(t *testing.T) {
	p := pagePlane(400, 560, 60, 40, 220)
	stats := NewEstimator(DefaultConfig()).Estimate(p)

	assert.InDelta(t, 40, stats.Dark, 2)
	assert.InDelta(t, 220, stats.Paper, 2)
	assert.InDelta(t, 180, stats.ContrastSpan, 4)
	require.Greater(t, stats.Paper, stats.Dark)
}

func TestEstimateDerivedThresholds(t *testing.T) {
	p := pagePlane(400, 560, 60, 40, 220)
	stats := NewEstimator(DefaultConfig()).Estimate(p)

	assert.InDelta(t, 0.15*stats.ContrastSpan, stats.MinContrast, 1e-9)
	assert.InDelta(t, stats.Paper-0.35*stats.ContrastSpan, stats.DarkThreshold, 1e-9)
	assert.Greater(t, stats.DarkThreshold, stats.Dark)
	assert.Less(t, stats.DarkThreshold, stats.Paper)
}

func TestEstimateLowContrastFloors(t *testing.T) {
	// nearly uniform input: span floors at 1, min contrast at 8
	p := pagePlane(200, 200, 30, 128, 128)
	stats := NewEstimator(DefaultConfig()).Estimate(p)

	assert.Equal(t, 1.0, stats.ContrastSpan)
	assert.Equal(t, 8.0, stats.MinContrast)
}

func TestEstimateTinyImage(t *testing.T) {
	p := utils.NewPlane(4, 4)
	for i := range p.Pix {
		p.Pix[i] = 100
	}

	stats := NewEstimator(DefaultConfig()).Estimate(p)
	assert.InDelta(t, 100, stats.Dark, 1)
	assert.InDelta(t, 100, stats.Paper, 1)
}
