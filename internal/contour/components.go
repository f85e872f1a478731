package contour

import "container/list"

// compStats holds per-component pixel count and bounding box.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// connectedComponents labels 4-connected components in the mask. Labels
// start at 1; the returned stats slice is indexed by label-1.
func connectedComponents(mask []bool, w, h int) ([]compStats, []int) {
	labels := make([]int, w*h)
	var comps []compStats
	label := 1

	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask[idx] && labels[idx] == 0 {
				comps = append(comps, floodComponent(mask, labels, w, h, x, y, label))
				label++
			}
		}
	}
	return comps, labels
}

// floodComponent runs BFS from a seed pixel, labeling the whole component.
func floodComponent(mask []bool, labels []int, w, h, startX, startY, label int) compStats {
	startIdx := startY*w + startX
	st := compStats{minX: startX, minY: startY, maxX: startX, maxY: startY}

	q := list.New()
	q.PushBack(startIdx)
	labels[startIdx] = label

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w

		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}

		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx >= 0 && nx < w && ny >= 0 && ny < h {
				ni := ny*w + nx
				if mask[ni] && labels[ni] == 0 {
					labels[ni] = label
					q.PushBack(ni)
				}
			}
		}
	}
	return st
}

// largestComponent returns the label and stats of the biggest component,
// or label 0 when the mask is empty.
func largestComponent(comps []compStats) (int, compStats) {
	best, bestLabel := compStats{}, 0
	for i, c := range comps {
		if c.count > best.count {
			best = c
			bestLabel = i + 1
		}
	}
	return bestLabel, best
}
