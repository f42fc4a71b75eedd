package cycle

import (
	"sync"
	"testing"
)

func TestBoundedInputPartitionsWithoutOverlap(t *testing.T) {
	in := NewBoundedInput(0, 1000)

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				seg := in.GetInputSegment(7)
				if seg == nil {
					return
				}
				mu.Lock()
				for c := seg.PeekNext(); c != ExhaustedCycle; {
					if seen[c] {
						t.Errorf("cycle %d claimed twice", c)
					}
					seen[c] = true
					seg.Next()
					c = seg.PeekNext()
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Fatalf("claimed %d distinct cycles, want 1000", len(seen))
	}
}

func TestBoundedInputExhaustion(t *testing.T) {
	in := NewBoundedInput(0, 5)
	seg := in.GetInputSegment(10)
	if seg == nil || seg.Len() != 5 {
		t.Fatalf("expected a 5-cycle segment clipped to range")
	}
	if got := in.GetInputSegment(1); got != nil {
		t.Fatalf("expected nil after exhaustion, got %+v", got)
	}
}

func TestBoundedInputRequestStop(t *testing.T) {
	in := NewBoundedInput(0, 1000)
	in.RequestStop()
	if got := in.GetInputSegment(1); got != nil {
		t.Fatalf("expected nil after RequestStop, got %+v", got)
	}
}

func TestUnboundedInputNeverExhausts(t *testing.T) {
	in := NewUnboundedInput(0)
	first := in.GetInputSegment(3)
	second := in.GetInputSegment(3)
	if first.First() != 0 || second.First() != 3 {
		t.Fatalf("expected contiguous segments, got %d and %d", first.First(), second.First())
	}
	in.RequestStop()
	if got := in.GetInputSegment(1); got != nil {
		t.Fatalf("expected nil after RequestStop, got %+v", got)
	}
}
