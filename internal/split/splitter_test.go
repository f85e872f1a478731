package split

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// spreadImage paints two bright pages on a dark background with a seam at
// foldX.
func spreadImage(w, h, foldX, inset int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := uint8(20)
			onLeft := x >= inset && x < foldX-2
			onRight := x > foldX+2 && x < w-inset
			if y >= inset && y < h-inset && (onLeft || onRight) {
				v = 230
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestSplitCenterWidths(t *testing.T) {
	img := spreadImage(800, 600, 400, 40)

	s := NewSplitter(Config{Margin: 50})
	pages, err := s.Split(img, 400, SideCenter)
	require.NoError(t, err)
	require.NotNil(t, pages.Left)
	require.NotNil(t, pages.Right)

	// left spans [0, fold+margin], right spans [fold-margin, width]
	assert.Equal(t, 450, pages.Left.Bounds().Dx())
	assert.Equal(t, 450, pages.Right.Bounds().Dx())
	assert.Equal(t, 600, pages.Left.Bounds().Dy())
	assert.Equal(t, 600, pages.Right.Bounds().Dy())
}

func TestSplitSingleSides(t *testing.T) {
	img := spreadImage(800, 600, 400, 40)
	s := NewSplitter(Config{Margin: 30})

	pages, err := s.Split(img, 400, SideLeft)
	require.NoError(t, err)
	assert.NotNil(t, pages.Left)
	assert.Nil(t, pages.Right)
	assert.Equal(t, 430, pages.Left.Bounds().Dx())

	pages, err = s.Split(img, 400, SideRight)
	require.NoError(t, err)
	assert.Nil(t, pages.Left)
	assert.NotNil(t, pages.Right)
	assert.Equal(t, 430, pages.Right.Bounds().Dx())
}

func TestSplitMarginClamping(t *testing.T) {
	img := spreadImage(200, 100, 180, 10)
	s := NewSplitter(Config{Margin: 50})

	// fold near the right edge: the left page clamps to the full width
	pages, err := s.Split(img, 180, SideCenter)
	require.NoError(t, err)
	assert.Equal(t, 200, pages.Left.Bounds().Dx())
	assert.Equal(t, 70, pages.Right.Bounds().Dx())
}

func TestSplitEmptySideRejected(t *testing.T) {
	img := spreadImage(200, 100, 100, 10)
	s := NewSplitter(Config{Margin: 0})

	// a fold on the border leaves nothing for the requested side
	_, err := s.Split(img, 0, SideLeft)
	assert.Error(t, err)

	_, err = s.Split(img, 200, SideRight)
	assert.Error(t, err)

	_, err = s.Split(img, 0, SideCenter)
	assert.Error(t, err)

	// the opposite side is still a valid full-width page
	pages, err := s.Split(img, 0, SideRight)
	require.NoError(t, err)
	assert.Equal(t, 200, pages.Right.Bounds().Dx())
}

func TestSplitFoldOutOfRange(t *testing.T) {
	img := spreadImage(200, 100, 100, 10)
	s := NewSplitter(DefaultConfig())

	_, err := s.Split(img, -1, SideCenter)
	assert.Error(t, err)

	_, err = s.Split(img, 201, SideCenter)
	assert.Error(t, err)
}

func TestSplitEmptyImage(t *testing.T) {
	s := NewSplitter(DefaultConfig())
	_, err := s.Split(image.NewGray(image.Rect(0, 0, 0, 0)), 0, SideCenter)
	assert.Error(t, err)
}

func TestSplitUnknownSide(t *testing.T) {
	img := spreadImage(200, 100, 100, 10)
	s := NewSplitter(DefaultConfig())

	_, err := s.Split(img, 100, Side("middle"))
	assert.Error(t, err)
}

func TestSplitSmartCropTrimsBackground(t *testing.T) {
	// 100 dark columns on the outer left, then page content
	img := spreadImage(800, 600, 400, 100)

	s := NewSplitter(Config{Margin: 50, SmartCrop: true})
	pages, err := s.Split(img, 400, SideLeft)
	require.NoError(t, err)

	// the outer edge moves inward to the brightness drop near x=100
	assert.Less(t, pages.Left.Bounds().Dx(), 450)
	assert.Greater(t, pages.Left.Bounds().Dx(), 250)
}

func TestSmartEdgeFindsDrop(t *testing.T) {
	// bright plateau from 60 to the seam, dark outside
	img := spreadImage(400, 200, 395, 60)
	plane := utils.GrayPlane(img)

	e, ok := smartEdge(plane, 200, -1)
	require.True(t, ok)
	assert.InDelta(t, 60, e, 8)
}

func TestSmartEdgeFlatProfile(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 50))
	for y := range 50 {
		for x := range 100 {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	_, ok := smartEdge(utils.GrayPlane(img), 50, -1)
	assert.False(t, ok)
}

func TestMovingAverageWindow(t *testing.T) {
	out := movingAverage([]float64{0, 0, 9, 0, 0}, 3)
	assert.InDelta(t, 3.0, out[1], 1e-12)
	assert.InDelta(t, 3.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
	assert.InDelta(t, 0.0, out[0], 1e-12)
}
