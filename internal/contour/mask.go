// Package contour resolves the page outline: border lines fitted from edge
// scan points, a binary-mask polygon fallback, and the skew angle of the
// resulting quadrilateral.
package contour

import (
	"github.com/MeKo-Tech/folio/internal/mempool"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// binarizePlane builds a page mask: true where the pixel is at least t.
// The mask comes from the pool; callers release it with mempool.PutBool.
func binarizePlane(p utils.Plane, t float32) []bool {
	mask := mempool.GetBool(p.Width * p.Height)
	for i, v := range p.Pix {
		if v >= t {
			mask[i] = true
		}
	}
	return mask
}

// dilateBool expands true regions with a square kernel.
func dilateBool(mask []bool, w, h, kernelSize int) []bool {
	if kernelSize <= 1 {
		return mask
	}
	out := mempool.GetBool(w * h)
	half := kernelSize / 2
	for y := range h {
		for x := range w {
			set := false
			for ky := -half; ky <= half && !set; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx >= 0 && nx < w && ny >= 0 && ny < h && mask[ny*w+nx] {
						set = true
						break
					}
				}
			}
			out[y*w+x] = set
		}
	}
	mempool.PutBool(mask)
	return out
}

// erodeBool shrinks true regions with a square kernel.
func erodeBool(mask []bool, w, h, kernelSize int) []bool {
	if kernelSize <= 1 {
		return mask
	}
	out := mempool.GetBool(w * h)
	half := kernelSize / 2
	for y := range h {
		for x := range w {
			keep := true
			for ky := -half; ky <= half && keep; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx < 0 || nx >= w || ny < 0 || ny >= h || !mask[ny*w+nx] {
						keep = false
						break
					}
				}
			}
			out[y*w+x] = keep
		}
	}
	mempool.PutBool(mask)
	return out
}

// closeBool fills small gaps: dilation followed by erosion.
func closeBool(mask []bool, w, h, kernelSize int) []bool {
	mask = dilateBool(mask, w, h, kernelSize)
	return erodeBool(mask, w, h, kernelSize)
}
