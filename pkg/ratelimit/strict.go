package ratelimit

import "github.com/jshook/engineblock/pkg/ratespec"

// StrictRateLimiter is the strictness=1.0 specialization of AverageRateLimiter:
// gap-closing is unconditional (burstShift=0), so no caller ever accrues
// burst credit from a slow start. It is kept as a distinct constructor,
// rather than folded into AverageRateLimiter's Update path, so that callers
// who want isochronous pacing can say so without relying on a strictness
// value surviving a later reconfiguration.
type StrictRateLimiter struct {
	*AverageRateLimiter
}

// NewStrictRateLimiter builds a limiter that ignores whatever strictness is
// present in spec and pins it to 1.0.
func NewStrictRateLimiter(spec ratespec.RateSpec) (*StrictRateLimiter, error) {
	spec.Strictness = 1.0
	avg, err := NewAverageRateLimiter(spec)
	if err != nil {
		return nil, err
	}
	return &StrictRateLimiter{AverageRateLimiter: avg}, nil
}

// Update pins strictness back to 1.0 regardless of what the caller passes,
// matching the contract that a StrictRateLimiter never loosens into bursting.
func (l *StrictRateLimiter) Update(spec ratespec.RateSpec) error {
	spec.Strictness = 1.0
	return l.AverageRateLimiter.Update(spec)
}
