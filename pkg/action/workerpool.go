package action

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jshook/engineblock/pkg/buffer"
)

// WorkPoolAction is a ready-to-use AsyncAction: it enqueues OpContexts onto
// a lock-free ring buffer and drains them with a fixed pool of worker
// goroutines that each run a caller-supplied function and Stop the context
// with its result. It exists for activities that don't need a bespoke
// AsyncAction — a connection pool, a queue client — and are happy with an
// in-process worker pool instead.
type WorkPoolAction struct {
	ring    *buffer.RingBuffer[*OpContext]
	work    func(ctx context.Context, cycle int64) (int32, error)
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending atomic.Int64
}

// errResult is the result code recorded when work returns an error. Result
// codes are clamped to [0,255] before reaching the tracker, so this must be
// a positive failure class, never negative — a negative code clamps to 0
// (success) and silently erases the failure.
const errResult = 255

// NewWorkPoolAction builds a WorkPoolAction with the given ring capacity
// (must be a power of two) and worker count, running work for each cycle.
func NewWorkPoolAction(queueSize, workers int, work func(ctx context.Context, cycle int64) (int32, error)) *WorkPoolAction {
	return &WorkPoolAction{
		ring:    buffer.NewRingBuffer[*OpContext](queueSize),
		work:    work,
		workers: workers,
	}
}

// NewOpContext satisfies AsyncAction's allocation hook.
func (a *WorkPoolAction) NewOpContext() *OpContext {
	return NewOpContext()
}

// Init launches the worker pool, satisfying the Startable capability.
func (a *WorkPoolAction) Init(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	for i := 0; i < a.workers; i++ {
		a.wg.Add(1)
		go a.runWorker()
	}
	return nil
}

func (a *WorkPoolAction) runWorker() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}
		opCtx, ok := a.ring.Pop()
		if !ok {
			time.Sleep(time.Microsecond)
			continue
		}
		result, err := a.work(a.ctx, opCtx.GetCycle())
		if err != nil {
			result = errResult
		}
		opCtx.Stop(result)
		a.pending.Add(-1)
	}
}

// Enqueue pushes ctx onto the ring, returning false (backpressure, not an
// error) if it's full.
func (a *WorkPoolAction) Enqueue(ctx *OpContext) bool {
	if !a.ring.Push(ctx) {
		return false
	}
	a.pending.Add(1)
	return true
}

// AwaitCompletion blocks up to timeoutMs until no accepted context is still
// pending (every one has been run by a worker), returning false on timeout.
func (a *WorkPoolAction) AwaitCompletion(timeoutMs int64) bool {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	for a.pending.Load() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// Close stops the worker pool and waits for in-flight work to return.
func (a *WorkPoolAction) Close() error {
	a.cancel()
	a.wg.Wait()
	return nil
}
