package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jshook/engineblock/pkg/ratespec"
	"github.com/jshook/engineblock/pkg/utils"
)

// fillInterval is the target spacing between refills. Real spacing will
// drift above this under scheduler jitter; TokenFiller passes the actual
// elapsed time to Refill rather than assuming the interval was hit exactly.
const fillInterval = time.Millisecond

// TokenFiller runs a dedicated background goroutine that periodically tops
// up a TokenPool from the wall clock, the companion mechanism to the
// ticks-accumulator limiters for callers who want a pollable pool of tokens
// rather than a blocking Acquire call.
type TokenFiller struct {
	mu   sync.Mutex
	pool *TokenPool
	spec ratespec.RateSpec

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTokenFiller builds a filler around a fresh pool sized for spec, primed
// with one op's worth of tokens so early callers don't stall waiting for the
// first tick.
func NewTokenFiller(spec ratespec.RateSpec) *TokenFiller {
	pool := NewTokenPoolFromRateSpec(spec)
	pool.Refill(spec.OpNanos())
	return &TokenFiller{pool: pool, spec: spec}
}

// Pool returns the filler's underlying TokenPool.
func (f *TokenFiller) Pool() *TokenPool {
	return f.pool
}

// Apply reconfigures the underlying pool for a new rate spec without
// restarting the filler goroutine.
func (f *TokenFiller) Apply(spec ratespec.RateSpec) {
	f.mu.Lock()
	f.spec = spec
	f.mu.Unlock()
	f.pool.Apply(spec)
}

// Start launches the filler goroutine. Safe to call once; a second call on
// an already-started filler is a no-op.
func (f *TokenFiller) Start(ctx context.Context) *TokenFiller {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return f
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.run(ctx)
	return f
}

func (f *TokenFiller) run(ctx context.Context) {
	defer close(f.done)

	lastRefillAt := time.Now()
	for range utils.NewTicker(ctx, fillInterval) {
		now := time.Now()
		delta := now.Sub(lastRefillAt)
		lastRefillAt = now
		f.pool.Refill(delta.Nanoseconds())
	}
}

// Stop cancels the filler goroutine and waits for it to exit.
func (f *TokenFiller) Stop() {
	f.mu.Lock()
	cancel := f.cancel
	done := f.done
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
