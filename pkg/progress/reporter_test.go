package progress

import (
	"context"
	"testing"
	"time"

	"github.com/jshook/engineblock/pkg/activity"
	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
)

func TestReporterStopClosesRunLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := []*activity.SlotStateTracker{
		activity.NewSlotStateTracker(0),
		activity.NewSlotStateTracker(1),
	}
	r := NewReporter(ctx, 1000, "demo", states, enginemetrics.NewSet())

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	r.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after Stop")
	}
}
