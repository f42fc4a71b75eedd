package ratelimit

import (
	"testing"

	"github.com/jshook/engineblock/pkg/ratespec"
)

func TestAverageRateLimiterAcquireOnTime(t *testing.T) {
	spec := ratespec.RateSpec{OpsPerSec: 1000, Strictness: 1.0} // 1ms/op
	l, clk, err := NewTestableAverageRateLimiter(spec)
	if err != nil {
		t.Fatalf("NewTestableAverageRateLimiter: %v", err)
	}
	clk.Set(0)
	l.Start()

	// First grant reserves [0, 1ms) and is due at 0. Clock reads exactly on time.
	clk.Set(0)
	if d := l.AcquireNanos(l.GetRateSpec().OpNanos()); d != 0 {
		t.Fatalf("on-time acquire returned delay %d, want 0", d)
	}
}

func TestAverageRateLimiterReportsCODelayWhenLate(t *testing.T) {
	spec := ratespec.RateSpec{OpsPerSec: 1000, Strictness: 1.0, ReportCODelay: true}
	l, clk, err := NewTestableAverageRateLimiter(spec)
	if err != nil {
		t.Fatalf("NewTestableAverageRateLimiter: %v", err)
	}
	clk.Set(0)
	l.Start()

	// Caller shows up 5ms late for its first 1ms window.
	clk.Set(5_000_000)
	d := l.Acquire()
	if d <= 0 {
		t.Fatalf("expected positive CO delay, got %d", d)
	}
}

func TestAverageRateLimiterUpdatePreservesAccumDelay(t *testing.T) {
	// Strictness 0.0 keeps the late caller's gap on the timeline (no
	// gap-closing), so the delay before the update is 10ms - 1ms = 9ms.
	spec := ratespec.RateSpec{OpsPerSec: 1000, Strictness: 0.0, ReportCODelay: true}
	l, clk, err := NewTestableAverageRateLimiter(spec)
	if err != nil {
		t.Fatalf("NewTestableAverageRateLimiter: %v", err)
	}
	clk.Set(0)
	l.Start()
	clk.Set(10_000_000)
	l.Acquire() // accrue some scheduling delay

	before := l.GetTotalSchedulingDelay()
	if before <= 0 {
		t.Fatalf("expected positive delay before update, got %d", before)
	}

	if err := l.Update(ratespec.RateSpec{OpsPerSec: 2000, Strictness: 1.0, ReportCODelay: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if l.GetRate() != 2000 {
		t.Fatalf("GetRate() = %v, want 2000", l.GetRate())
	}
	if after := l.GetTotalSchedulingDelay(); after != before {
		t.Fatalf("GetTotalSchedulingDelay() = %d after Update, want %d (unchanged)", after, before)
	}
}

func TestAverageRateLimiterRejectsInvalidSpec(t *testing.T) {
	_, err := NewAverageRateLimiter(ratespec.RateSpec{OpsPerSec: -1})
	if err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestBurstShiftForBoundaries(t *testing.T) {
	if s := burstShiftFor(1.0); s != 0 {
		t.Fatalf("burstShiftFor(1.0) = %d, want 0", s)
	}
	if s := burstShiftFor(0.0); s != 63 {
		t.Fatalf("burstShiftFor(0.0) = %d, want 63", s)
	}
	mid := burstShiftFor(0.5)
	if mid == 0 || mid == 63 {
		t.Fatalf("burstShiftFor(0.5) = %d, want strictly between 0 and 63", mid)
	}
}
