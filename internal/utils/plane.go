package utils

import (
	"image"
	"math"
	"sort"

	"github.com/MeKo-Tech/folio/internal/mempool"
)

// Plane is a single-channel float32 raster on a 0..255 intensity scale.
// All geometry stages operate on planes; the source image is converted once
// and treated as read-only afterwards.
type Plane struct {
	Pix    []float32
	Width  int
	Height int
}

// NewPlane allocates a zeroed plane of the given dimensions.
func NewPlane(w, h int) Plane {
	return Plane{Pix: make([]float32, w*h), Width: w, Height: h}
}

// At returns the value at (x, y). Coordinates outside the plane are clamped
// to the nearest edge pixel, which is the behavior convolution passes rely on.
func (p Plane) At(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= p.Width {
		x = p.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.Height {
		y = p.Height - 1
	}
	return p.Pix[y*p.Width+x]
}

// Set writes the value at (x, y). Out-of-bounds writes are ignored.
func (p Plane) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return
	}
	p.Pix[y*p.Width+x] = v
}

// Clone returns a deep copy of the plane.
func (p Plane) Clone() Plane {
	out := Plane{Pix: make([]float32, len(p.Pix)), Width: p.Width, Height: p.Height}
	copy(out.Pix, p.Pix)
	return out
}

// Empty reports whether the plane has no pixels.
func (p Plane) Empty() bool { return p.Width <= 0 || p.Height <= 0 || len(p.Pix) == 0 }

// Mean returns the mean intensity of the plane.
func (p Plane) Mean() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.Pix {
		sum += float64(v)
	}
	return sum / float64(len(p.Pix))
}

// RegionMean returns the mean intensity inside rect, clamped to the plane.
func (p Plane) RegionMean(rect image.Rectangle) float64 {
	rect = rect.Intersect(image.Rect(0, 0, p.Width, p.Height))
	if rect.Empty() {
		return 0
	}
	var sum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := y * p.Width
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += float64(p.Pix[row+x])
		}
	}
	return sum / float64(rect.Dx()*rect.Dy())
}

// GrayPlane converts an image to a luminance plane using ITU-R BT.601 weights,
// the same conversion the edge-detection references use.
func GrayPlane(img image.Image) Plane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := NewPlane(w, h)
	if gray, ok := img.(*image.Gray); ok {
		for y := range h {
			row := y * w
			srcRow := (y+bounds.Min.Y-gray.Rect.Min.Y)*gray.Stride - gray.Rect.Min.X + bounds.Min.X
			for x := range w {
				out.Pix[row+x] = float32(gray.Pix[srcRow+x])
			}
		}
		return out
	}
	for y := range h {
		row := y * w
		for x := range w {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out.Pix[row+x] = float32(lum)
		}
	}
	return out
}

// ToGray renders the plane back into an 8-bit grayscale image, clamping
// values to [0, 255]. Useful for feeding planes to image-based filters.
func (p Plane) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range p.Pix {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		img.Pix[i] = uint8(v + 0.5)
	}
	return img
}

// Percentile returns the p-th percentile (0..100) of vals using
// nearest-rank selection on a sorted copy. Returns 0 for empty input.
func Percentile(vals []float32, pct float64) float32 {
	if len(vals) == 0 {
		return 0
	}
	sorted := mempool.GetFloat32(len(vals))
	defer mempool.PutFloat32(sorted)
	copy(sorted, vals)
	sorted = sorted[:len(vals)]
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(pct/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// MeanStd returns the mean and population standard deviation of vals.
func MeanStd(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var variance float64
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vals))
	return mean, math.Sqrt(variance)
}
