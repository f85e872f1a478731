package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyA4Portrait(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// 21.0 x 29.7 cm at 300 dpi
	r := c.Classify(2480, 3508, 300)
	assert.Equal(t, ClassA4, r.Class)
	assert.Equal(t, OrientationPortrait, r.Orientation)
	assert.Greater(t, r.Confidence, 0.95)
}

func TestClassifyA4LandscapeExcluded(t *testing.T) {
	// A4 in landscape is ambiguous with half an A3 spread and is never
	// reported
	c := NewClassifier(DefaultConfig())

	r := c.Classify(3508, 2480, 300)
	assert.Equal(t, ClassUnknown, r.Class)
	assert.Equal(t, OrientationLandscape, r.Orientation)
	assert.Zero(t, r.Confidence)
	assert.False(t, IsSpreadCandidate(r))
}

func TestClassifyA3Spread(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// 42.0 x 29.7 cm at 300 dpi, the shape of two facing A4 pages
	r := c.Classify(4961, 3508, 300)
	assert.Equal(t, ClassA3, r.Class)
	assert.Equal(t, OrientationLandscape, r.Orientation)
	assert.Greater(t, r.Confidence, 0.9)
	assert.True(t, IsSpreadCandidate(r))
}

func TestClassifyLetter(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	r := c.Classify(2550, 3300, 300)
	assert.Equal(t, ClassLetter, r.Class)
	assert.Equal(t, OrientationPortrait, r.Orientation)
	assert.Greater(t, r.Confidence, 0.95)
}

func TestClassifyLegalAtLowerDPI(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// 21.59 x 35.56 cm at 200 dpi
	r := c.Classify(1700, 2800, 200)
	assert.Equal(t, ClassLegal, r.Class)
	assert.Equal(t, OrientationPortrait, r.Orientation)
}

func TestClassifyA5Landscape(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	r := c.Classify(2480, 1748, 300)
	assert.Equal(t, ClassA5, r.Class)
	assert.Equal(t, OrientationLandscape, r.Orientation)
	assert.False(t, IsSpreadCandidate(r))
}

func TestClassifyTabloidSpread(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// 43.18 x 27.94 cm at 300 dpi
	r := c.Classify(5100, 3300, 300)
	assert.Equal(t, ClassTabloid, r.Class)
	assert.True(t, IsSpreadCandidate(r))
}

func TestClassifyUnknownDPIFallsBackToAspect(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// landscape with the 42:29.7 spread aspect, resolution unknown
	r := c.Classify(4240, 3000, 0)
	assert.Equal(t, ClassA3, r.Class)
	assert.Equal(t, OrientationLandscape, r.Orientation)
	assert.Greater(t, r.Confidence, 0.9)
	assert.True(t, IsSpreadCandidate(r))
}

func TestClassifyUnknownDPISquareImage(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	r := c.Classify(1000, 1000, 0)
	assert.Equal(t, ClassUnknown, r.Class)
	assert.Zero(t, r.Confidence)
	assert.False(t, IsSpreadCandidate(r))
}

func TestClassifyDegenerateDimensions(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	r := c.Classify(0, 100, 300)
	assert.Equal(t, ClassUnknown, r.Class)
	assert.Zero(t, r.Confidence)
}

func TestClassifyOffSizeImage(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// far from every table entry
	r := c.Classify(500, 3200, 300)
	assert.Equal(t, ClassUnknown, r.Class)
	assert.Zero(t, r.Confidence)
}

func TestIsSpreadCandidatePortraitNever(t *testing.T) {
	r := Result{Class: ClassA3, Orientation: OrientationPortrait, Confidence: 1}
	assert.False(t, IsSpreadCandidate(r))
}
