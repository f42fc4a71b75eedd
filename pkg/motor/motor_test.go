package motor

import (
	"sync"
	"testing"
	"time"

	"github.com/jshook/engineblock/pkg/action"
	"github.com/jshook/engineblock/pkg/cycle"
	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
	"github.com/jshook/engineblock/pkg/output"
	"github.com/jshook/engineblock/pkg/ratelimit"
	"github.com/jshook/engineblock/pkg/ratespec"
	"github.com/jshook/engineblock/pkg/tracker"
)

type collectingOutput struct {
	mu      sync.Mutex
	results []output.CycleResult
}

func (o *collectingOutput) OnCycleResult(r output.CycleResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, r)
}

func (o *collectingOutput) OnCycleResultSegment(seg *tracker.CycleResultsSegment) {}

func (o *collectingOutput) snapshot() []output.CycleResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]output.CycleResult, len(o.results))
	copy(out, o.results)
	return out
}

type syncDoubler struct{}

func (syncDoubler) RunCycle(c int64) (int32, error) {
	return int32(c % 5), nil
}

func TestMotorSyncDrainsAllCycles(t *testing.T) {
	in := cycle.NewBoundedInput(0, 50)
	out := &collectingOutput{}

	mo := New(Config{
		SlotID:     0,
		Alias:      "test",
		Input:      in,
		Output:     out,
		SyncAction: syncDoubler{},
		Stride:     10,
		Metrics:    enginemetrics.NewSet(),
	})

	mo.Run()

	if mo.State().Get().String() != "Stopped" {
		t.Fatalf("final state = %v, want Stopped", mo.State().Get())
	}
	results := out.snapshot()
	if len(results) != 50 {
		t.Fatalf("got %d results, want 50", len(results))
	}
	for i, r := range results {
		if r.Cycle != int64(i) {
			t.Fatalf("results[%d].Cycle = %d, want %d", i, r.Cycle, int64(i))
		}
	}
}

type asyncEchoAction struct {
	mu      sync.Mutex
	pending []*action.OpContext
}

func (a *asyncEchoAction) NewOpContext() *action.OpContext {
	return action.NewOpContext()
}

func (a *asyncEchoAction) Enqueue(ctx *action.OpContext) bool {
	a.mu.Lock()
	a.pending = append(a.pending, ctx)
	a.mu.Unlock()
	go func() {
		time.Sleep(time.Millisecond)
		ctx.Stop(0)
	}()
	return true
}

func (a *asyncEchoAction) AwaitCompletion(timeoutMs int64) bool {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	for time.Now().Before(deadline) {
		a.mu.Lock()
		allDone := true
		for _, c := range a.pending {
			if !c.IsDone() {
				allDone = false
				break
			}
		}
		a.mu.Unlock()
		if allDone {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestMotorAsyncDrainsAllCycles(t *testing.T) {
	in := cycle.NewBoundedInput(0, 20)
	out := &collectingOutput{}
	aa := &asyncEchoAction{}

	mo := New(Config{
		SlotID:      0,
		Alias:       "test",
		Input:       in,
		Output:      out,
		AsyncAction: aa,
		Stride:      5,
		Metrics:     enginemetrics.NewSet(),
	})

	mo.Run()

	results := out.snapshot()
	if len(results) != 20 {
		t.Fatalf("got %d async results, want 20", len(results))
	}
}

func TestMotorRequestStopHaltsLoop(t *testing.T) {
	in := cycle.NewUnboundedInput(0)
	out := &collectingOutput{}
	rl, err := ratelimit.NewAverageRateLimiter(ratespec.RateSpec{OpsPerSec: 50_000, Strictness: 1.0})
	if err != nil {
		t.Fatalf("NewAverageRateLimiter: %v", err)
	}

	mo := New(Config{
		SlotID:     0,
		Alias:      "test",
		Input:      in,
		Output:     out,
		SyncAction: syncDoubler{},
		CycleRate:  rl,
		Stride:     50,
		Metrics:    enginemetrics.NewSet(),
	})

	done := make(chan struct{})
	go func() {
		mo.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	mo.State().RequestStop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("motor did not stop within timeout after RequestStop")
	}
	if mo.State().Get().String() != "Stopped" {
		t.Fatalf("final state = %v, want Stopped", mo.State().Get())
	}
}
