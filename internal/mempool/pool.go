// Package mempool provides sized buffer pools for the []float32 planes and
// []bool masks allocated on the hot path of scan processing.
package mempool

import (
	"sync"
)

const bucketStep = 1024

// bucket rounds n up to the next multiple of bucketStep so buffers of
// similar size share one pool.
func bucket(n int) int {
	if n <= bucketStep {
		return bucketStep
	}
	return ((n + bucketStep - 1) / bucketStep) * bucketStep
}

// pool maps a size bucket to a sync.Pool of []T buffers.
type pool[T any] struct {
	buckets sync.Map
}

func (s *pool[T]) forBucket(b int) *sync.Pool {
	if p, ok := s.buckets.Load(b); ok {
		return p.(*sync.Pool) //nolint:forcetypeassert // only *sync.Pool is stored
	}
	p, _ := s.buckets.LoadOrStore(b, &sync.Pool{New: func() any { return make([]T, b) }})
	return p.(*sync.Pool) //nolint:forcetypeassert // only *sync.Pool is stored
}

// get returns a buffer with length n, drawn from the bucket covering n.
func (s *pool[T]) get(n int) []T {
	b := bucket(n)
	buf, ok := s.forBucket(b).Get().([]T)
	if !ok || cap(buf) < b {
		buf = make([]T, b)
	}
	return buf[:n]
}

// put hands a buffer back. Nil slices are ignored.
func (s *pool[T]) put(buf []T) {
	if buf == nil {
		return
	}
	buf = buf[:cap(buf)]
	s.forBucket(bucket(cap(buf))).Put(buf) //nolint:staticcheck // slice header copy is fine here
}

var (
	float32s pool[float32]
	bools    pool[bool]
)

// GetFloat32 retrieves a []float32 buffer of length n. The contents are
// undefined. Return it via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	return float32s.get(n)
}

// PutFloat32 returns a buffer to the pool. Nil is allowed.
func PutFloat32(buf []float32) {
	float32s.put(buf)
}

// GetBool retrieves a []bool buffer of length n with all elements false.
// Return it via PutBool when done.
func GetBool(n int) []bool {
	buf := bools.get(n)
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a buffer to the pool. Nil is allowed.
func PutBool(buf []bool) {
	bools.put(buf)
}
