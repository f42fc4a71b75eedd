// Package action defines the Action contract Motor dispatches cycles
// into — a sync variant that processes one cycle per call, and an async
// variant that enqueues an OpContext and completes it later from another
// goroutine — plus the OpContext/OpBuffer machinery that carries results
// back to Motor in cycle order without the sync/async action ever needing a
// pointer back into the buffer that owns it.
package action

import "context"

// Startable is an optional capability an Action may implement to receive
// setup before the first cycle.
type Startable interface {
	Init(ctx context.Context) error
}

// Stoppable is an optional capability an Action may implement to release
// resources when its owning activity shuts down.
type Stoppable interface {
	Close() error
}

// SyncAction processes one cycle per call and returns its result code
// immediately, blocking the calling Motor for the duration of the call.
type SyncAction interface {
	RunCycle(cycle int64) (int32, error)
}

// MultiPhaseAction is an optional capability of a SyncAction: after
// RunCycle, Motor repeatedly calls RunPhase until Incomplete reports false,
// acquiring the phase rate limiter once per phase.
type MultiPhaseAction interface {
	SyncAction
	RunPhase(cycle int64) (int32, error)
	Incomplete() bool
}

// AsyncAction enqueues an OpContext and completes it later, typically from a
// callback on an I/O completion thread. The action promises exactly one
// Stop call per context it accepts from Enqueue.
type AsyncAction interface {
	NewOpContext() *OpContext
	// Enqueue submits ctx for processing. A false return means the action's
	// internal queue is full; Motor treats this as backpressure and retries
	// rather than as an error.
	Enqueue(ctx *OpContext) bool
	// AwaitCompletion blocks up to timeoutMs for all outstanding contexts to
	// complete, returning false on timeout.
	AwaitCompletion(timeoutMs int64) bool
}
