package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketRounding(t *testing.T) {
	assert.Equal(t, 1024, bucket(0))
	assert.Equal(t, 1024, bucket(1))
	assert.Equal(t, 1024, bucket(1024))
	assert.Equal(t, 2048, bucket(1025))
	assert.Equal(t, 2048, bucket(2048))
	assert.Equal(t, 1024*1024, bucket(1024*1024-7))
}

func TestGetFloat32Length(t *testing.T) {
	for _, n := range []int{1, 100, 1024, 1025, 50000} {
		buf := GetFloat32(n)
		require.Len(t, buf, n)
		assert.GreaterOrEqual(t, cap(buf), bucket(n))
		PutFloat32(buf)
	}
}

func TestGetBoolIsCleared(t *testing.T) {
	buf := GetBool(2000)
	require.Len(t, buf, 2000)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	// A fresh buffer must come back all false even if it was reused.
	buf = GetBool(2000)
	require.Len(t, buf, 2000)
	for i, v := range buf {
		require.False(t, v, "element %d not cleared", i)
	}
	PutBool(buf)
}

func TestPutNilIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		PutFloat32(nil)
		PutBool(nil)
	})
}

func TestShortenedBufferRoundTrip(t *testing.T) {
	buf := GetFloat32(3000)
	// Callers may reslice before returning; the pool restores full capacity.
	PutFloat32(buf[:10])

	buf = GetFloat32(3000)
	assert.Len(t, buf, 3000)
	PutFloat32(buf)
}

func TestConcurrentAccess(t *testing.T) {
	const goroutines = 32

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := range goroutines {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				n := 512 + (id+i)%4096
				f := GetFloat32(n)
				b := GetBool(n)
				for j := range f {
					f[j] = float32(j)
				}
				PutFloat32(f)
				PutBool(b)
			}
		}(g)
	}
	wg.Wait()
}

func BenchmarkGetPutFloat32(b *testing.B) {
	for b.Loop() {
		buf := GetFloat32(640 * 480)
		PutFloat32(buf)
	}
}
