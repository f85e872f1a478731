package correct

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/folio/internal/utils"
)

func TestIdentityApply(t *testing.T) {
	p := utils.Point{X: 13.5, Y: -7.25}
	got := Identity().Apply(p)
	assert.Equal(t, p, got)
}

func TestTranslationApply(t *testing.T) {
	got := Translation(10, -4).Apply(utils.Point{X: 1, Y: 2})
	assert.InDelta(t, 11.0, got.X, 1e-12)
	assert.InDelta(t, -2.0, got.Y, 1e-12)
}

func TestRotationAboutFixesCenter(t *testing.T) {
	center := utils.Point{X: 50, Y: 80}
	rot := RotationAbout(center, 37.0)
	got := rot.Apply(center)
	assert.InDelta(t, center.X, got.X, 1e-9)
	assert.InDelta(t, center.Y, got.Y, 1e-9)
}

func TestRotationAboutClockwise(t *testing.T) {
	// 90 degrees clockwise about the origin in y-down coordinates sends
	// (1,0) to (0,1).
	rot := RotationAbout(utils.Point{}, 90)
	got := rot.Apply(utils.Point{X: 1, Y: 0})
	assert.InDelta(t, 0.0, got.X, 1e-9)
	assert.InDelta(t, 1.0, got.Y, 1e-9)
}

func TestThenRunsReceiverFirst(t *testing.T) {
	// scale by rotation then translate differs from the reverse order
	rot := RotationAbout(utils.Point{}, 90)
	tr := Translation(10, 0)

	got := rot.Then(tr).Apply(utils.Point{X: 1, Y: 0})
	assert.InDelta(t, 10.0, got.X, 1e-9)
	assert.InDelta(t, 1.0, got.Y, 1e-9)

	got = tr.Then(rot).Apply(utils.Point{X: 1, Y: 0})
	assert.InDelta(t, 0.0, got.X, 1e-9)
	assert.InDelta(t, 11.0, got.Y, 1e-9)
}

func TestInvertRoundTrip(t *testing.T) {
	fwd := RotationAbout(utils.Point{X: 120, Y: 90}, 11.3).Then(Translation(-14, 33))
	inv, ok := fwd.Invert()
	require.True(t, ok)

	points := []utils.Point{
		{X: 0, Y: 0},
		{X: 640, Y: 0},
		{X: 640, Y: 480},
		{X: 0, Y: 480},
		{X: 123.4, Y: 56.7},
	}
	for _, p := range points {
		back := inv.Apply(fwd.Apply(p))
		assert.InDelta(t, p.X, back.X, 1e-9)
		assert.InDelta(t, p.Y, back.Y, 1e-9)
	}
}

func TestInvertSingular(t *testing.T) {
	_, ok := Transform{}.Invert()
	assert.False(t, ok)

	// rank-deficient projection onto the x axis
	_, ok = Transform{A: 1, B: 2, D: 2, E: 4}.Invert()
	assert.False(t, ok)
}

func TestRotationRoundTripSubPixel(t *testing.T) {
	// mapping through a rotation and back must stay within a pixel for
	// every angle a scanner realistically produces
	for _, deg := range []float64{-15, -5, -1.5, -0.2, 0.2, 1.5, 5, 15} {
		fwd := RotationAbout(utils.Point{X: 300, Y: 400}, deg)
		inv, ok := fwd.Invert()
		require.True(t, ok)

		p := utils.Point{X: 37, Y: 711}
		back := inv.Apply(fwd.Apply(p))
		assert.LessOrEqual(t, math.Abs(back.X-p.X), 1.0, "angle %.1f", deg)
		assert.LessOrEqual(t, math.Abs(back.Y-p.Y), 1.0, "angle %.1f", deg)
	}
}
