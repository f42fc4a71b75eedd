package ratelimit

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/jshook/engineblock/pkg/ratespec"
)

// AverageRateLimiter schedules grants against a monotonic ticks accumulator
// shared by every caller. Each Acquire atomically reserves the next
// nanosecond window on the timeline; the window's start time determines
// whether the caller sleeps (early) or is allowed to proceed immediately
// (on time or late). Lateness beyond the caller's own window is, by default,
// partially absorbed back into the timeline so that slow starts don't grant
// unlimited bursting later (gap-closing), with the absorbed fraction set by
// strictness.
//
// Concurrent Acquire calls are linearized by the atomic add on ticksNanos:
// the i-th successful grant reserves ticksNanos0 + i*opTicks regardless of
// which goroutine got there first. The blocking sleep happens outside of any
// lock, so throughput scales with cores.
type AverageRateLimiter struct {
	mu sync.Mutex // guards reconfiguration (rate/strictness); Acquire never takes it

	clk clock

	ticksNanos   atomic.Int64 // T: the authoritative schedule
	lastSeen     atomic.Int64 // L: most recent wall-clock reading observed by any caller
	accumDelay   atomic.Int64 // cumulative delay preserved across Update calls
	started      atomic.Bool
	opTicks      int64 // nanoseconds per grant at the current rate
	rate         float64
	strictness   float64
	burstShift   uint // gap-closing shift: 0 = close all gaps, 63 = close ~none
	reportCODelay bool
	spec         ratespec.RateSpec
}

// NewAverageRateLimiter builds a limiter for the given spec. Call Start
// before the first Acquire.
func NewAverageRateLimiter(spec ratespec.RateSpec) (*AverageRateLimiter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	l := &AverageRateLimiter{clk: systemClock{}}
	l.applyLocked(spec)
	return l, nil
}

// newTestableAverageRateLimiter injects a deterministic clock, mirroring the
// reference TestableAverageRateLimiter used to pin down scheduling behavior
// in unit tests without real sleeps.
func newTestableAverageRateLimiter(spec ratespec.RateSpec, clk clock) (*AverageRateLimiter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	l := &AverageRateLimiter{clk: clk}
	l.applyLocked(spec)
	return l, nil
}

func (l *AverageRateLimiter) applyLocked(spec ratespec.RateSpec) {
	l.spec = spec
	l.rate = spec.OpsPerSec
	l.strictness = spec.Strictness
	l.reportCODelay = spec.ReportCODelay
	l.opTicks = spec.OpNanos()
	l.burstShift = burstShiftFor(spec.Strictness)
}

// burstShiftFor converts strictness in [0,1] to an integer right-shift used
// to close scheduling gaps: strictness=1 closes gaps immediately (shift=0,
// no burst credit); strictness=0 preserves all gaps (shift=63, effectively
// full bursting); intermediate values are clz(strictness * 2^63).
func burstShiftFor(strictness float64) uint {
	if strictness >= 1.0 {
		return 0
	}
	if strictness <= 0.0 {
		return 63
	}
	longsize := uint64(strictness * float64(1<<63))
	shift := bits.LeadingZeros64(longsize)
	if shift > 63 {
		shift = 63
	}
	return uint(shift)
}

// Start sets the clock origin. Idempotent.
func (l *AverageRateLimiter) Start() {
	if l.started.CompareAndSwap(false, true) {
		now := l.clk.NowNanos()
		l.ticksNanos.Store(now)
		l.lastSeen.Store(now)
	}
}

// Acquire grants one op's worth of nanoseconds (1e9/rate).
func (l *AverageRateLimiter) Acquire() int64 {
	return l.AcquireNanos(l.opTicks)
}

// AcquireNanos implements the core scheduling algorithm described in
// EngineBlock's rate limiting design: atomically reserve a window on the
// ticks timeline, then either report the caller as already-late (no locking
// needed, the timeline moved on without them), absorb a fraction of a fresh
// gap (gap-closing), or sleep until the window opens.
func (l *AverageRateLimiter) AcquireNanos(nanos int64) int64 {
	sched := l.ticksNanos.Add(nanos) - nanos // pre-add value
	seen := l.lastSeen.Load()

	if sched < seen {
		// The timeline has already moved past this caller's window; some
		// other caller observed a later wall-clock time first.
		if l.reportCODelay {
			return (seen - sched) + l.accumDelay.Load()
		}
		return 0
	}

	now := l.clk.NowNanos()
	l.lastSeen.Store(now)
	gap := now - sched

	if gap > 0 {
		// Caller is late relative to its own scheduled window: optionally
		// fast-forward the timeline to absorb some of the unused budget so
		// that a slow start doesn't buy unlimited burst credit later.
		closing := gap >> l.burstShift
		if closing > 0 {
			l.ticksNanos.Add(closing)
		}
		if l.reportCODelay {
			return gap + l.accumDelay.Load()
		}
		return 0
	}

	// Caller is early: sleep until its window opens.
	sleepNanos(-gap)
	return 0
}

// Update reconfigures rate/strictness online. Accumulated delay is rolled
// into accumDelay before the rate changes so that GetTotalSchedulingDelay
// stays continuous across the update.
func (l *AverageRateLimiter) Update(spec ratespec.RateSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if (l.rate != spec.OpsPerSec || l.strictness != spec.Strictness) && l.started.Load() {
		// Move the live rate delay into accumDelay and restart the ticks
		// timeline at now, so the total is the same just after the update
		// as just before it.
		now := l.clk.NowNanos()
		if l.reportCODelay {
			l.accumDelay.Add(now - l.ticksNanos.Load())
		}
		l.ticksNanos.Store(now)
	}
	l.applyLocked(spec)
	return nil
}

func (l *AverageRateLimiter) GetRate() float64              { return l.rate }
func (l *AverageRateLimiter) GetStrictness() float64        { return l.strictness }
func (l *AverageRateLimiter) GetRateSpec() ratespec.RateSpec { return l.spec }

// GetRateSchedulingDelay reports how far the wall clock has pulled ahead of
// the ticks timeline right now (0 if delay reporting is disabled).
func (l *AverageRateLimiter) GetRateSchedulingDelay() int64 {
	if !l.reportCODelay {
		return 0
	}
	return l.clk.NowNanos() - l.ticksNanos.Load()
}

// GetTotalSchedulingDelay adds the live rate-scheduling delay to whatever
// was accumulated across prior Update calls.
func (l *AverageRateLimiter) GetTotalSchedulingDelay() int64 {
	if !l.reportCODelay {
		return 0
	}
	return l.GetRateSchedulingDelay() + l.accumDelay.Load()
}
