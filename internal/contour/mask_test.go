package contour

import (
	"testing"

	"github.com/MeKo-Tech/folio/internal/mempool"
	"github.com/MeKo-Tech/folio/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinarizePlane(t *testing.T) {
	p := utils.NewPlane(3, 1)
	p.Set(0, 0, 10)
	p.Set(1, 0, 100)
	p.Set(2, 0, 200)

	mask := binarizePlane(p, 100)
	defer mempool.PutBool(mask)

	assert.False(t, mask[0])
	assert.True(t, mask[1])
	assert.True(t, mask[2])
}

func TestDilateBoolExpandsRegion(t *testing.T) {
	w, h := 7, 7
	mask := mempool.GetBool(w * h)
	mask[3*w+3] = true

	out := dilateBool(mask, w, h, 3)
	defer mempool.PutBool(out)

	count := 0
	for _, v := range out {
		if v {
			count++
		}
	}
	assert.Equal(t, 9, count)
	assert.True(t, out[2*w+2])
	assert.True(t, out[4*w+4])
	assert.False(t, out[0])
}

func TestErodeBoolShrinksRegion(t *testing.T) {
	w, h := 7, 7
	mask := mempool.GetBool(w * h)
	for y := 2; y <= 4; y++ {
		for x := 2; x <= 4; x++ {
			mask[y*w+x] = true
		}
	}

	out := erodeBool(mask, w, h, 3)
	defer mempool.PutBool(out)

	count := 0
	for _, v := range out {
		if v {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, out[3*w+3])
}

func TestCloseBoolFillsGaps(t *testing.T) {
	w, h := 9, 3
	mask := mempool.GetBool(w * h)
	// horizontal run with a one-pixel gap
	for _, x := range []int{1, 2, 3, 5, 6, 7} {
		mask[1*w+x] = true
	}

	out := closeBool(mask, w, h, 3)
	defer mempool.PutBool(out)

	assert.True(t, out[1*w+4], "gap should be closed")
}

func TestConnectedComponentsLabeling(t *testing.T) {
	w, h := 8, 4
	mask := make([]bool, w*h)
	// two disjoint blobs
	mask[1*w+1] = true
	mask[1*w+2] = true
	mask[2*w+1] = true
	mask[2*w+6] = true

	comps, labels := connectedComponents(mask, w, h)
	require.Len(t, comps, 2)

	label, st := largestComponent(comps)
	assert.Equal(t, 3, st.count)
	assert.Equal(t, 1, st.minX)
	assert.Equal(t, 2, st.maxX)
	assert.Equal(t, label, labels[1*w+1])
	assert.NotEqual(t, label, labels[2*w+6])
}

func TestLargestComponentEmptyMask(t *testing.T) {
	comps, _ := connectedComponents(make([]bool, 16), 4, 4)
	label, st := largestComponent(comps)
	assert.Equal(t, 0, label)
	assert.Equal(t, 0, st.count)
}
