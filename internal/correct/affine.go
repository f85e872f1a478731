// Package correct straightens a detected page: rotation about the contour
// centroid on a minimal canvas, padding masking, and margin-aware cropping.
package correct

import (
	"math"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// Transform is a 2x3 affine matrix. A point maps as
// (A*x + B*y + C, D*x + E*y + F).
type Transform struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, E: 1}
}

// Translation returns a pure translation.
func Translation(dx, dy float64) Transform {
	return Transform{A: 1, C: dx, E: 1, F: dy}
}

// RotationAbout returns a rotation by degrees around center. Positive
// angles rotate clockwise in image coordinates (y grows downward).
func RotationAbout(center utils.Point, degrees float64) Transform {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Transform{
		A: cos, B: -sin, C: center.X - cos*center.X + sin*center.Y,
		D: sin, E: cos, F: center.Y - sin*center.X - cos*center.Y,
	}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p utils.Point) utils.Point {
	return utils.Point{
		X: t.A*p.X + t.B*p.Y + t.C,
		Y: t.D*p.X + t.E*p.Y + t.F,
	}
}

// Then composes transforms: the receiver runs first, u second.
func (t Transform) Then(u Transform) Transform {
	return Transform{
		A: u.A*t.A + u.B*t.D,
		B: u.A*t.B + u.B*t.E,
		C: u.A*t.C + u.B*t.F + u.C,
		D: u.D*t.A + u.E*t.D,
		E: u.D*t.B + u.E*t.E,
		F: u.D*t.C + u.E*t.F + u.F,
	}
}

// Invert returns the inverse transform, failing on a singular matrix.
func (t Transform) Invert() (Transform, bool) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < 1e-12 {
		return Transform{}, false
	}
	ia := t.E / det
	ib := -t.B / det
	id := -t.D / det
	ie := t.A / det
	return Transform{
		A: ia, B: ib, C: -(ia*t.C + ib*t.F),
		D: id, E: ie, F: -(id*t.C + ie*t.F),
	}, true
}
