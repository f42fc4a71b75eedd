package action

import (
	"testing"

	"github.com/jshook/engineblock/pkg/synced"
)

func newTestPool() *synced.BatchPool[*OpContext] {
	return synced.NewBatchPool(NewOpContext)
}

type recordingSink struct {
	completed []int64
}

func (s *recordingSink) OnOpComplete(ctx *OpContext) {
	s.completed = append(s.completed, ctx.GetCycle())
}

func TestOpBufferDrainsInBorrowOrder(t *testing.T) {
	buf := NewOpBuffer(newTestPool())
	sink := &recordingSink{}

	cycles := []int64{10, 11, 12, 13}
	var ctxs []*OpContext
	for _, c := range cycles {
		ctx := buf.Borrow()
		ctx.SetCycle(c)
		ctx.AddSink(sink)
		ctxs = append(ctxs, ctx)
	}

	if buf.AllDone() {
		t.Fatalf("buffer should not be done before any Stop call")
	}

	// Complete out of order: 12, 10, 13, 11.
	ctxs[2].Stop(0)
	ctxs[0].Stop(0)
	ctxs[3].Stop(0)
	ctxs[1].Stop(0)

	if !buf.AllDone() {
		t.Fatalf("buffer should be done after every context Stop()s")
	}

	buf.Drain()

	want := []int64{10, 11, 12, 13}
	if len(sink.completed) != len(want) {
		t.Fatalf("sink saw %d completions, want %d", len(sink.completed), len(want))
	}
	for i, c := range want {
		if sink.completed[i] != c {
			t.Fatalf("completed[%d] = %d, want %d (must be in borrow/cycle order)", i, sink.completed[i], c)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("buffer should be empty after Drain, got Len()=%d", buf.Len())
	}
}

func TestOpContextFinalResponseTime(t *testing.T) {
	ctx := NewOpContext()
	ctx.SetCycle(5)
	ctx.markEnqueued()
	ctx.Stop(0)
	if ctx.GetFinalResponseTime() < 0 {
		t.Fatalf("GetFinalResponseTime() = %d, want >= 0", ctx.GetFinalResponseTime())
	}
	if !ctx.IsDone() {
		t.Fatalf("expected context to be done after Stop")
	}
}

func TestOpContextPoolReuseClearsState(t *testing.T) {
	pool := newTestPool()
	ctx := pool.Get()
	ctx.SetCycle(99)
	ctx.Stop(3)
	ctx.reset()
	pool.Put(ctx)

	reused := pool.Get()
	if reused.GetCycle() != 0 || reused.IsDone() {
		t.Fatalf("reused context carried stale state: cycle=%d done=%v", reused.GetCycle(), reused.IsDone())
	}
}
