package contour

import (
	"github.com/MeKo-Tech/folio/internal/mempool"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// fallbackPolygon extracts the page outline from a binary mask: threshold,
// dilate, take the largest component and approximate its traced boundary.
// Only an approximation with exactly four vertices is accepted.
func fallbackPolygon(p utils.Plane, darkThreshold float64, dilateKernel int) ([]utils.Point, bool) {
	mask := binarizePlane(p, float32(darkThreshold))
	mask = dilateBool(mask, p.Width, p.Height, dilateKernel)
	defer mempool.PutBool(mask)

	comps, labels := connectedComponents(mask, p.Width, p.Height)
	label, st := largestComponent(comps)
	if label == 0 {
		return nil, false
	}

	poly := traceMoore(labels, p.Width, p.Height, label, st)
	if len(poly) < 4 {
		return nil, false
	}

	epsilon := 0.02 * utils.PolygonPerimeter(poly)
	if epsilon < 2 {
		epsilon = 2
	}
	approx := utils.SimplifyPolygon(poly, epsilon)
	if len(approx) != 4 {
		return nil, false
	}
	return approx, true
}
