package utils

import "math"

// SimplifyPolygon reduces a traced outline with Douglas-Peucker at the given
// tolerance. Endpoints are always kept so a closed outline stays closed.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}

	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true

	type span struct{ lo, hi int }
	stack := []span{{0, len(pts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi <= s.lo+1 {
			continue
		}

		far, maxDist := -1, epsilon
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(pts[i], pts[s.lo], pts[s.hi]); d > maxDist {
				far, maxDist = i, d
			}
		}
		if far >= 0 {
			keep[far] = true
			stack = append(stack, span{s.lo, far}, span{far, s.hi})
		}
	}

	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// segmentDistance returns the distance from p to the segment ab, treating a
// degenerate segment as a point.
func segmentDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(vx, vy)
	if length == 0 {
		return Dist(p, a)
	}
	return math.Abs((p.X-a.X)*vy-(p.Y-a.Y)*vx) / length
}

// PolygonPerimeter returns the closed-polygon perimeter length.
func PolygonPerimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := range pts {
		total += Dist(pts[i], pts[(i+1)%len(pts)])
	}
	return total
}
