package ratelimit

import (
	"sync"

	"github.com/jshook/engineblock/pkg/ratespec"
)

// TokenPool is a two-bucket token accumulator used as an alternative to the
// nanosecond ticks-accumulator limiters (AverageRateLimiter / StrictRateLimiter)
// for finer- or coarser-grained bursting. An active bucket holds tokens ready
// for immediate use and fills up to activeCap = maxActive * burstRatio;
// overflow beyond that spills into a waiting bucket capped at maxActive,
// after which further overflow is discarded.
type TokenPool struct {
	mu sync.Mutex

	maxActive int64
	activeCap int64
	active    int64
	waiting   int64

	burstRatio float64
}

// NewTokenPool builds a pool with the given active capacity and burst ratio
// (ratio >= 1; activeCap = maxActive * ratio, the waiting bucket caps at
// maxActive).
func NewTokenPool(maxActive int64, burstRatio float64) *TokenPool {
	if burstRatio < 1 {
		burstRatio = 1
	}
	return &TokenPool{
		maxActive:  maxActive,
		burstRatio: burstRatio,
		activeCap:  int64(float64(maxActive) * burstRatio),
	}
}

// NewTokenPoolFromRateSpec sizes a pool for one second of tokens at the
// spec's rate, with burst headroom proportional to (1 - strictness).
func NewTokenPoolFromRateSpec(spec ratespec.RateSpec) *TokenPool {
	maxActive := int64(spec.OpsPerSec)
	if maxActive < 1 {
		maxActive = 1
	}
	burstRatio := 1.0 + (1.0-spec.Strictness)
	return NewTokenPool(maxActive, burstRatio)
}

// Refill adds nanos to the pool at full proportion. See RefillProportional.
func (p *TokenPool) Refill(nanos int64) int64 {
	return p.RefillProportional(nanos, 1.0)
}

// RefillProportional adds nanos (scaled by proportion, for jitter-adjusted
// fills) to the active bucket, capped at activeCap (maxActive * burstRatio);
// the overflow spills into the waiting bucket, capped at maxActive; anything
// beyond that is discarded. Returns the resulting active pool size.
func (p *TokenPool) RefillProportional(nanos int64, proportion float64) int64 {
	if proportion < 1.0 {
		nanos = int64(float64(nanos) * proportion)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.active += nanos
	if p.active > p.activeCap {
		overflow := p.active - p.activeCap
		p.active = p.activeCap
		p.waiting += overflow
		if p.waiting > p.maxActive {
			p.waiting = p.maxActive
		}
	}
	return p.active
}

// TakeUpTo removes up to n tokens from the active pool, returning the amount
// actually taken.
func (p *TokenPool) TakeUpTo(n int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	take := n
	if take > p.active {
		take = p.active
	}
	p.active -= take
	return take
}

// Apply rescales maxActive and activeCap for a new rate spec, preserving the
// ratio of fullness in both buckets.
func (p *TokenPool) Apply(spec ratespec.RateSpec) {
	newMaxActive := int64(spec.OpsPerSec)
	if newMaxActive < 1 {
		newMaxActive = 1
	}
	newBurstRatio := 1.0 + (1.0 - spec.Strictness)
	newActiveCap := int64(float64(newMaxActive) * newBurstRatio)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activeCap > 0 {
		p.active = int64(float64(p.active) / float64(p.activeCap) * float64(newActiveCap))
	}
	if p.maxActive > 0 {
		p.waiting = int64(float64(p.waiting) / float64(p.maxActive) * float64(newMaxActive))
	}
	p.maxActive = newMaxActive
	p.activeCap = newActiveCap
	p.burstRatio = newBurstRatio
}

// ActivePool returns the current size of the active bucket.
func (p *TokenPool) ActivePool() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// WaitPool returns the current size of the waiting (burst) bucket.
func (p *TokenPool) WaitPool() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}
