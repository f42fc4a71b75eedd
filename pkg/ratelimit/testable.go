package ratelimit

import (
	"sync/atomic"

	"github.com/jshook/engineblock/pkg/ratespec"
)

// manualClock is a settable clock for deterministic rate-limiter tests,
// mirroring the reference TestableAverageRateLimiter's injected AtomicLong.
type manualClock struct {
	nanos atomic.Int64
}

func (c *manualClock) NowNanos() int64 { return c.nanos.Load() }

// Set installs a new reading and returns the previous one.
func (c *manualClock) Set(n int64) int64 { return c.nanos.Swap(n) }

// NewTestableAverageRateLimiter builds an AverageRateLimiter driven by a
// caller-controlled clock instead of the wall clock, so acquisition behavior
// can be pinned down exactly in tests without real sleeps.
func NewTestableAverageRateLimiter(spec ratespec.RateSpec) (*AverageRateLimiter, *manualClock, error) {
	clk := &manualClock{}
	l, err := newTestableAverageRateLimiter(spec, clk)
	return l, clk, err
}
