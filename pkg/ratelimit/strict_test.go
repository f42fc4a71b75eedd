package ratelimit

import (
	"testing"

	"github.com/jshook/engineblock/pkg/ratespec"
)

func TestStrictRateLimiterPinsStrictness(t *testing.T) {
	l, err := NewStrictRateLimiter(ratespec.RateSpec{OpsPerSec: 1000, Strictness: 0.2})
	if err != nil {
		t.Fatalf("NewStrictRateLimiter: %v", err)
	}
	if got := l.GetStrictness(); got != 1.0 {
		t.Fatalf("GetStrictness() = %v, want 1.0", got)
	}

	if err := l.Update(ratespec.RateSpec{OpsPerSec: 500, Strictness: 0.0}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := l.GetStrictness(); got != 1.0 {
		t.Fatalf("GetStrictness() after update = %v, want 1.0", got)
	}
	if got := l.GetRate(); got != 500 {
		t.Fatalf("GetRate() after update = %v, want 500", got)
	}
}
