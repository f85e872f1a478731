// Package gradient builds directionally smoothed luminance planes and Sobel
// gradient magnitude fields used by the border scanners. Smoothing along a
// border's own direction keeps the border response coherent while content
// noise perpendicular to it is averaged away.
package gradient

import (
	"log/slog"
	"math"

	"github.com/MeKo-Tech/folio/internal/mempool"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// Config controls kernel sizing for the directional blurs.
// Kernel sizes scale with image dimensions and are forced odd.
type Config struct {
	LargeKernelDivisor int `mapstructure:"large_kernel_divisor" json:"large_kernel_divisor" yaml:"large_kernel_divisor"`
	SmallKernelDivisor int `mapstructure:"small_kernel_divisor" json:"small_kernel_divisor" yaml:"small_kernel_divisor"`
	MinLargeKernel     int `mapstructure:"min_large_kernel"     json:"min_large_kernel"     yaml:"min_large_kernel"`
	MinSmallKernel     int `mapstructure:"min_small_kernel"     json:"min_small_kernel"     yaml:"min_small_kernel"`
}

// DefaultConfig returns sensible defaults for scanned pages.
func DefaultConfig() Config {
	return Config{
		LargeKernelDivisor: 20,
		SmallKernelDivisor: 100,
		MinLargeKernel:     15,
		MinSmallKernel:     5,
	}
}

// Field holds the smoothed planes and gradient magnitude fields for one image.
// All planes have the same dimensions as the input.
type Field struct {
	// SmoothV is blurred with a small horizontal and large vertical kernel;
	// vertical borders stay sharp across x.
	SmoothV utils.Plane
	// SmoothH is the mirror: large horizontal, small vertical kernel.
	SmoothH utils.Plane
	// AbsGX is |Sobel dx| computed on SmoothV (responds to left/right borders).
	AbsGX utils.Plane
	// AbsGY is |Sobel dy| computed on SmoothH (responds to top/bottom borders).
	AbsGY utils.Plane
}

// Builder computes gradient fields from a grayscale plane.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder with the given configuration.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build computes both smoothed planes and their gradient magnitudes.
func (b *Builder) Build(gray utils.Plane) Field {
	w, h := gray.Width, gray.Height
	small := forceOdd(maxInt(b.cfg.MinSmallKernel, minInt(w, h)/b.cfg.SmallKernelDivisor))
	largeX := forceOdd(maxInt(b.cfg.MinLargeKernel, w/b.cfg.LargeKernelDivisor))
	largeY := forceOdd(maxInt(b.cfg.MinLargeKernel, h/b.cfg.LargeKernelDivisor))

	slog.Debug("building gradient field",
		"width", w, "height", h,
		"small_kernel", small, "large_kernel_x", largeX, "large_kernel_y", largeY)

	smoothV := gaussianBlurSeparable(gray, small, largeY)
	smoothH := gaussianBlurSeparable(gray, largeX, small)

	return Field{
		SmoothV: smoothV,
		SmoothH: smoothH,
		AbsGX:   sobelAbs(smoothV, true),
		AbsGY:   sobelAbs(smoothH, false),
	}
}

// gaussianBlurSeparable applies a separable Gaussian blur with independent
// horizontal (kx) and vertical (ky) kernel sizes. Border pixels are clamped.
func gaussianBlurSeparable(src utils.Plane, kx, ky int) utils.Plane {
	w, h := src.Width, src.Height
	tmpBuf := mempool.GetFloat32(w * h)
	defer mempool.PutFloat32(tmpBuf)
	tmp := utils.Plane{Pix: tmpBuf[:w*h], Width: w, Height: h}
	out := utils.NewPlane(w, h)

	kernX := gaussianKernel(kx)
	kernY := gaussianKernel(ky)
	rx := kx / 2
	ry := ky / 2

	// Horizontal pass
	for y := range h {
		row := y * w
		for x := range w {
			var sum float32
			for k := -rx; k <= rx; k++ {
				sum += src.At(x+k, y) * kernX[k+rx]
			}
			tmp.Pix[row+x] = sum
		}
	}
	// Vertical pass
	for y := range h {
		row := y * w
		for x := range w {
			var sum float32
			for k := -ry; k <= ry; k++ {
				sum += tmp.At(x, y+k) * kernY[k+ry]
			}
			out.Pix[row+x] = sum
		}
	}
	return out
}

// gaussianKernel returns a normalized 1-D Gaussian kernel of the given odd
// size. Sigma follows the usual size-derived formula so callers only choose
// kernel extents.
func gaussianKernel(size int) []float32 {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	r := size / 2
	kern := make([]float32, size)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kern[i+r] = float32(v)
		sum += v
	}
	for i := range kern {
		kern[i] = float32(float64(kern[i]) / sum)
	}
	return kern
}

// sobelAbs computes the absolute Sobel response along x (dx=true) or y.
func sobelAbs(src utils.Plane, dx bool) utils.Plane {
	w, h := src.Width, src.Height
	out := utils.NewPlane(w, h)
	for y := range h {
		row := y * w
		for x := range w {
			var g float32
			if dx {
				g = (src.At(x+1, y-1) - src.At(x-1, y-1)) +
					2*(src.At(x+1, y)-src.At(x-1, y)) +
					(src.At(x+1, y+1) - src.At(x-1, y+1))
			} else {
				g = (src.At(x-1, y+1) - src.At(x-1, y-1)) +
					2*(src.At(x, y+1)-src.At(x, y-1)) +
					(src.At(x+1, y+1) - src.At(x+1, y-1))
			}
			if g < 0 {
				g = -g
			}
			out.Pix[row+x] = g
		}
	}
	return out
}

func forceOdd(v int) int {
	if v%2 == 0 {
		return v + 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
