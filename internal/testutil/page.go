package testutil

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PageConfig describes a synthetic scanned page: a bright paper rectangle
// on a darker scanner background, optionally rotated, noisy, or folded.
type PageConfig struct {
	Width      int
	Height     int
	Background uint8   // background gray level
	Paper      uint8   // paper gray level
	Inset      int     // background border around the paper on each side
	Rotation   float64 // clockwise degrees applied to the whole canvas
	Noise      float64 // per-pixel uniform noise amplitude in gray levels
	TextLines  int     // number of dummy text lines drawn on the paper
	FoldX      int     // fold column in canvas coordinates, 0 disables
	FoldDepth  uint8   // brightness drop at the fold center
	FoldWidth  int     // half width of the fold shadow
	Seed       int64
}

// DefaultPageConfig returns a plain upright page on a dark background.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Width:      400,
		Height:     560,
		Background: 48,
		Paper:      225,
		Inset:      60,
		FoldWidth:  18,
		Seed:       1,
	}
}

// PaperRect returns the paper rectangle before rotation.
func (cfg PageConfig) PaperRect() image.Rectangle {
	return image.Rect(cfg.Inset, cfg.Inset, cfg.Width-cfg.Inset, cfg.Height-cfg.Inset)
}

// GeneratePage renders the configured page. Rotation keeps the full canvas
// and fills the revealed corners with the background level, matching how a
// skewed sheet appears on a scanner bed.
func GeneratePage(cfg PageConfig) image.Image {
	rng := rand.New(rand.NewSource(cfg.Seed))
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))

	paper := cfg.PaperRect()
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			level := cfg.Background
			pt := image.Pt(x, y)
			if pt.In(paper) {
				level = cfg.Paper
			}
			img.SetRGBA(x, y, grayRGBA(level))
		}
	}

	if cfg.TextLines > 0 {
		drawTextLines(img, paper, cfg.TextLines)
	}

	if cfg.FoldX > 0 {
		applyFoldShadow(img, cfg.FoldX, cfg.FoldWidth, cfg.FoldDepth)
	}

	var out image.Image = img
	if cfg.Rotation != 0 {
		rotated := imaging.Rotate(img, -cfg.Rotation, color.Gray{Y: cfg.Background})
		// Rotate grows the canvas; crop back to the original size around
		// the center so callers get predictable dimensions.
		out = imaging.CropCenter(rotated, cfg.Width, cfg.Height)
	}

	if cfg.Noise > 0 {
		out = addNoise(out, rng, cfg.Noise)
	}

	return out
}

// GenerateSpread renders a two-page book spread with a fold shadow at the
// horizontal center of the paper.
func GenerateSpread(cfg PageConfig) image.Image {
	if cfg.Width <= cfg.Height {
		cfg.Width, cfg.Height = cfg.Height, cfg.Width
	}
	cfg.FoldX = cfg.Width / 2
	if cfg.FoldDepth == 0 {
		cfg.FoldDepth = 70
	}
	return GeneratePage(cfg)
}

func grayRGBA(level uint8) color.RGBA {
	return color.RGBA{R: level, G: level, B: level, A: 255}
}

// applyFoldShadow darkens a vertical band with a triangular profile that
// peaks at the fold column.
func applyFoldShadow(img *image.RGBA, foldX, halfWidth int, depth uint8) {
	if halfWidth <= 0 {
		halfWidth = 18
	}
	b := img.Bounds()
	for x := foldX - halfWidth; x <= foldX+halfWidth; x++ {
		if x < b.Min.X || x >= b.Max.X {
			continue
		}
		frac := 1.0 - math.Abs(float64(x-foldX))/float64(halfWidth)
		drop := int(frac * float64(depth))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			c := img.RGBAAt(x, y)
			level := int(c.R) - drop
			if level < 0 {
				level = 0
			}
			img.SetRGBA(x, y, grayRGBA(uint8(level)))
		}
	}
}

func drawTextLines(img *image.RGBA, paper image.Rectangle, lines int) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 6
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 30}),
		Face: face,
	}
	y := paper.Min.Y + 20
	for i := 0; i < lines && y < paper.Max.Y-10; i++ {
		drawer.Dot = fixed.P(paper.Min.X+14, y)
		drawer.DrawString("Lorem ipsum dolor sit amet")
		y += lineHeight
	}
}

func addNoise(img image.Image, rng *rand.Rand, amplitude float64) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			gray := float64(r+g+bl) / 3.0 / 257.0
			gray += (rng.Float64()*2 - 1) * amplitude
			if gray < 0 {
				gray = 0
			} else if gray > 255 {
				gray = 255
			}
			out.SetRGBA(x, y, grayRGBA(uint8(gray)))
		}
	}
	return out
}

// SaveImage writes an image for debugging failed tests.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	err := imaging.Save(img, path)
	require.NoError(t, err, "Failed to save image to %s", path)
}

// LoadImage reads a test image from disk.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err, "Failed to load image from %s", path)
	return img
}

// CompareImages reports whether two images have identical dimensions and
// per-pixel gray levels within tolerance.
func CompareImages(a, b image.Image, tolerance int) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ra, ga, ba, _ := a.At(x, y).RGBA()
			rb, gb, bb, _ := b.At(x, y).RGBA()
			la := int(ra+ga+ba) / 3 / 257
			lb := int(rb+gb+bb) / 3 / 257
			diff := la - lb
			if diff < 0 {
				diff = -diff
			}
			if diff > tolerance {
				return false
			}
		}
	}
	return true
}
