package action

import (
	"sync/atomic"
	"time"
)

// Sink receives a completed OpContext. Motor registers a small adapter that
// forwards each completed context to its Output.
type Sink interface {
	OnOpComplete(ctx *OpContext)
}

// OpContext carries one async op's lifecycle from enqueue to completion. It
// holds a back-index into its owning OpBuffer, never a back-pointer: the
// buffer reaches into a context to read its state and dispatch sinks, but a
// context never calls back into the buffer. That asymmetry is what breaks
// the buffer<->context<->sink reference cycle an equivalent OOP design tends
// to accumulate.
type OpContext struct {
	cycle         int64
	waitTimeNanos int64
	enqueuedAtNs  int64
	result        int32
	done          atomic.Bool
	finalRespNs   int64

	sinks []Sink

	bufferIndex int // position within the owning OpBuffer; -1 when unowned
}

// NewOpContext builds an unowned, idle context ready for Borrow.
func NewOpContext() *OpContext {
	return &OpContext{bufferIndex: -1}
}

func (c *OpContext) SetCycle(cycle int64)    { c.cycle = cycle }
func (c *OpContext) GetCycle() int64         { return c.cycle }
func (c *OpContext) SetWaitTime(nanos int64) { c.waitTimeNanos = nanos }
func (c *OpContext) GetWaitTime() int64      { return c.waitTimeNanos }

// AddSink registers a listener to be notified when this context completes.
// Dispatch is performed by the owning OpBuffer on drain, not by Stop, so a
// context never needs a reference back to the buffer that owns it.
func (c *OpContext) AddSink(s Sink) {
	c.sinks = append(c.sinks, s)
}

// markEnqueued records the enqueue time used to compute the final response
// time once Stop is called. Called by OpBuffer.Borrow, which Motor calls
// immediately before handing the context to Action.Enqueue.
func (c *OpContext) markEnqueued() {
	c.enqueuedAtNs = time.Now().UnixNano()
}

// Stop is called exactly once by the action that accepted this context from
// Enqueue. It records the result, the elapsed response time, and marks the
// context done.
func (c *OpContext) Stop(result int32) {
	c.result = result
	c.finalRespNs = time.Now().UnixNano() - c.enqueuedAtNs
	c.done.Store(true)
}

// IsDone reports whether Stop has been called.
func (c *OpContext) IsDone() bool { return c.done.Load() }

// GetResult returns the result code passed to Stop; meaningless before
// IsDone reports true.
func (c *OpContext) GetResult() int32 { return c.result }

// GetFinalResponseTime returns the nanoseconds between enqueue and Stop.
func (c *OpContext) GetFinalResponseTime() int64 { return c.finalRespNs }

// reset clears a context for reuse from the pool, keeping the sinks slice's
// backing array to avoid reallocating it on every borrow.
func (c *OpContext) reset() {
	c.cycle = 0
	c.waitTimeNanos = 0
	c.enqueuedAtNs = 0
	c.result = 0
	c.done.Store(false)
	c.finalRespNs = 0
	c.sinks = c.sinks[:0]
	c.bufferIndex = -1
}
