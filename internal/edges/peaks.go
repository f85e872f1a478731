package edges

// findPeaks returns indices of local maxima in vals that exceed threshold
// and have a prominence of at least promRatio times their own height.
// Prominence is measured against the higher of the two valley floors found
// walking outward until a taller sample appears.
func findPeaks(vals []float32, threshold float32, promRatio float64) []int {
	var peaks []int
	for i := 1; i < len(vals)-1; i++ {
		v := vals[i]
		if v < threshold {
			continue
		}
		if v < vals[i-1] || v <= vals[i+1] {
			continue
		}
		if peakProminence(vals, i) >= promRatio*float64(v) {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// peakProminence walks outward from the peak in both directions, tracking
// the lowest valley reached before any sample higher than the peak.
func peakProminence(vals []float32, idx int) float64 {
	peak := vals[idx]

	leftValley := peak
	for i := idx - 1; i >= 0; i-- {
		if vals[i] > peak {
			break
		}
		if vals[i] < leftValley {
			leftValley = vals[i]
		}
	}
	rightValley := peak
	for i := idx + 1; i < len(vals); i++ {
		if vals[i] > peak {
			break
		}
		if vals[i] < rightValley {
			rightValley = vals[i]
		}
	}

	floor := leftValley
	if rightValley > floor {
		floor = rightValley
	}
	return float64(peak - floor)
}
