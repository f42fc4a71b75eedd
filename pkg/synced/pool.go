// Package synced holds small concurrency-safe reuse primitives shared
// across the engine — currently a generic object pool used to recycle
// OpContext values across async enqueue/stop cycles without per-op
// allocation.
package synced

import "sync"

// BatchPool is a high-throughput generic object pool. The main goal is to
// minimize allocations by reusing objects instead of allocating one per op:
// under a sustained workload at thousands of ops/sec, an unpooled OpContext
// per cycle would otherwise churn the GC continuously.
type BatchPool[T any] struct {
	pool      *sync.Pool
	allocFunc func() T
}

// NewBatchPool creates a new BatchPool backed by allocFunc.
func NewBatchPool[T any](allocFunc func() T) *BatchPool[T] {
	bp := &BatchPool[T]{allocFunc: allocFunc}
	bp.pool = &sync.Pool{
		New: func() any {
			return allocFunc()
		},
	}
	return bp
}

// Get retrieves an object from the pool, allocating if necessary. Never
// returns nil unless allocFunc does.
func (bp *BatchPool[T]) Get() T {
	return bp.pool.Get().(T)
}

// Put returns an object to the pool for future reuse. Callers must reset any
// per-use state on the object before calling Put; BatchPool does not do this
// for them.
func (bp *BatchPool[T]) Put(v T) {
	bp.pool.Put(v)
}
