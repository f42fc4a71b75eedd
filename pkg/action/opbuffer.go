package action

import (
	"sync"

	"github.com/jshook/engineblock/pkg/synced"
)

// OpBuffer is the stride-local result buffer: it owns a batch of OpContexts
// by index, borrowed from a shared pool in ascending cycle order, and
// re-orders async completions — which may land out of cycle order as the
// action finishes them — back into strict cycle order before dispatching
// sinks and releasing contexts to the pool.
type OpBuffer struct {
	mu       sync.Mutex
	pool     *synced.BatchPool[*OpContext]
	contexts []*OpContext
}

// NewOpBuffer builds a buffer drawing fresh contexts from pool.
func NewOpBuffer(pool *synced.BatchPool[*OpContext]) *OpBuffer {
	return &OpBuffer{pool: pool}
}

// Borrow pulls a context from the pool, assigns it the next index in this
// buffer, and returns it ready for SetCycle/SetWaitTime/AddSink/Enqueue.
// Callers must Borrow in ascending cycle order within a stride; Drain
// depends on that ordering to deliver results in cycle order.
func (b *OpBuffer) Borrow() *OpContext {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := b.pool.Get()
	ctx.markEnqueued()
	ctx.bufferIndex = len(b.contexts)
	b.contexts = append(b.contexts, ctx)
	return ctx
}

// Len returns how many contexts this buffer currently owns.
func (b *OpBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.contexts)
}

// AllDone reports whether every context owned by this buffer has completed.
func (b *OpBuffer) AllDone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.contexts {
		if !c.IsDone() {
			return false
		}
	}
	return true
}

// Drain dispatches every owned context's sinks in cycle order, releases the
// contexts back to the pool, and empties the buffer for reuse by the next
// stride. Callers must only call Drain once AllDone reports true.
func (b *OpBuffer) Drain() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ctx := range b.contexts {
		for _, s := range ctx.sinks {
			s.OnOpComplete(ctx)
		}
		ctx.reset()
		b.pool.Put(ctx)
	}
	b.contexts = b.contexts[:0]
}
