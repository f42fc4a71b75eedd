package ratelimit

import "github.com/jshook/engineblock/pkg/ratespec"

// RateLimiter is the contract the Motor drives: block the caller until the
// next grant is due, report coordinated-omission delay, and accept online
// reconfiguration without losing accumulated delay.
type RateLimiter interface {
	// Start is idempotent; it sets the internal clock origin on first call.
	Start()
	// Acquire blocks until the next grant (at the limiter's op rate) is due.
	Acquire() int64
	// AcquireNanos grants a caller-specified nanosecond budget, used for
	// stride-sized allowances.
	AcquireNanos(nanos int64) int64
	// Update reconfigures the limiter in place; accumulated delay survives.
	Update(spec ratespec.RateSpec) error
	GetRate() float64
	GetStrictness() float64
	GetTotalSchedulingDelay() int64
	GetRateSchedulingDelay() int64
	GetRateSpec() ratespec.RateSpec
}

// clock abstracts System.nanoTime()-equivalent access so tests can inject a
// deterministic timeline (see NewTestableAverageRateLimiter).
type clock interface {
	NowNanos() int64
}

type systemClock struct{}

func (systemClock) NowNanos() int64 { return nowNanos() }
