package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jshook/engineblock/pkg/ratespec"
)

func TestTokenFillerRefillsPool(t *testing.T) {
	spec := ratespec.RateSpec{OpsPerSec: 1000, Strictness: 1.0}
	f := NewTokenFiller(spec)

	ctx, cancel := context.WithCancel(context.Background())
	f.Start(ctx)
	defer cancel()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if f.Pool().ActivePool() > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := f.Pool().ActivePool(); got <= 0 {
		t.Fatalf("ActivePool() = %d, want > 0 after filler ticks", got)
	}
	f.Stop()
}

func TestTokenFillerStopIsIdempotentAfterStart(t *testing.T) {
	spec := ratespec.RateSpec{OpsPerSec: 1000, Strictness: 1.0}
	f := NewTokenFiller(spec)
	f.Start(context.Background())
	f.Stop()
	// Calling Stop a second time must not hang or panic.
	f.Stop()
}
