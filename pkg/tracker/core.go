package tracker

import (
	"fmt"
	"sync"
)

// CycleResultsSegment is the batch of ordered result codes GetSegment hands
// back to a consumer: cycles [First, First+len(Results)) in ascending order,
// every one of them fully marked before the segment was returned.
type CycleResultsSegment struct {
	First   int64
	Results []byte
}

// Len returns how many cycles the segment covers.
func (s *CycleResultsSegment) Len() int {
	return len(s.Results)
}

// CoreTracker is the concurrency kernel: a ring of ExtentCount extents of
// size ExtentSize covering [min, max), coordinating one writer side
// (mark_result, called concurrently by any number of Motors) against one
// logical reader side (get_segment, the Output pipeline's consumer) in
// strict cycle order, with backpressure in both directions.
//
// windowBaseIdx is the global extent index resident at ring[windowBaseIdx %
// extentCount]; it only advances when the reader has fully consumed an
// extent, which frees that ring slot for reuse by the extent that next
// enters the window. writeFrontier is the first cycle that has not yet been
// contiguously marked; readFrontier is the first cycle not yet delivered to
// a consumer. The invariant readFrontier <= writeFrontier always holds,
// which guarantees the extent at windowBaseIdx is never released before it
// is fully marked.
type CoreTracker struct {
	mu       sync.Mutex
	roomCond *sync.Cond // writers wait here when the ring is full
	dataCond *sync.Cond // readers wait here for more contiguous marks

	min, max    int64
	extentSize  int
	extentCount int
	ring        []*Extent

	windowBaseIdx int64
	writeFrontier int64
	readFrontier  int64
	finished      bool
}

// NewCoreTracker builds a tracker covering [min, max) backed by extentCount
// extents of extentSize cycles each.
func NewCoreTracker(min, max int64, extentSize, extentCount int) (*CoreTracker, error) {
	if min > max {
		return nil, fmt.Errorf("tracker: min %d > max %d", min, max)
	}
	if extentSize <= 0 {
		return nil, fmt.Errorf("tracker: extentSize must be > 0, got %d", extentSize)
	}
	if extentCount <= 0 {
		return nil, fmt.Errorf("tracker: extentCount must be > 0, got %d", extentCount)
	}

	t := &CoreTracker{
		min:           min,
		max:           max,
		extentSize:    extentSize,
		extentCount:   extentCount,
		ring:          make([]*Extent, extentCount),
		writeFrontier: min,
		readFrontier:  min,
	}
	t.roomCond = sync.NewCond(&t.mu)
	t.dataCond = sync.NewCond(&t.mu)

	for i := 0; i < extentCount; i++ {
		base, size := t.sizeForIdx(int64(i))
		if size == 0 {
			size = extentSize // placeholder capacity; Contains() will never match beyond max
		}
		t.ring[i] = NewExtent(base, size)
	}
	return t, nil
}

// sizeForIdx returns the base cycle and actual (possibly clipped, possibly
// zero) size of the extent at global index idx within [min, max).
func (t *CoreTracker) sizeForIdx(idx int64) (base int64, size int) {
	base = t.min + idx*int64(t.extentSize)
	if base >= t.max {
		return base, 0
	}
	end := base + int64(t.extentSize)
	if end > t.max {
		end = t.max
	}
	return base, int(end - base)
}

// MarkResult records result r for cycle c. It blocks the caller if c's
// extent lies beyond the current ring window (backpressure: the ring is
// full awaiting the consumer to drain it further).
func (t *CoreTracker) MarkResult(c int64, r int32) error {
	if c < t.min || c >= t.max {
		return fmt.Errorf("tracker: cycle %d out of range [%d, %d)", c, t.min, t.max)
	}
	idx := (c - t.min) / int64(t.extentSize)

	t.mu.Lock()
	for idx >= t.windowBaseIdx+int64(t.extentCount) {
		t.roomCond.Wait()
	}
	if idx < t.windowBaseIdx {
		t.mu.Unlock()
		return fmt.Errorf("tracker: cycle %d already retired from the tracker window", c)
	}

	ext := t.ring[idx%int64(t.extentCount)]
	if err := ext.MarkResult(c, r); err != nil {
		t.mu.Unlock()
		return err
	}

	t.advanceWriteFrontierLocked()
	t.dataCond.Broadcast()
	t.mu.Unlock()
	return nil
}

// advanceWriteFrontierLocked pushes writeFrontier past every contiguous run
// of fully-marked extents starting at its current extent. Must be called
// with mu held.
func (t *CoreTracker) advanceWriteFrontierLocked() {
	for {
		wIdx := (t.writeFrontier - t.min) / int64(t.extentSize)
		if wIdx >= t.windowBaseIdx+int64(t.extentCount) {
			return // that extent has not entered the ring window yet
		}
		base, size := t.sizeForIdx(wIdx)
		if size == 0 {
			return // reached max
		}
		ext := t.ring[wIdx%int64(t.extentCount)]
		if !ext.IsFull() {
			return
		}
		t.writeFrontier = base + int64(size)
	}
}

// GetSegment blocks until size contiguous cycles have been marked (or the
// tracker is Flush()ed, in which case it returns whatever is available,
// possibly fewer than size), then returns them in ascending cycle order and
// advances the read frontier. A nil, nil return means the tracker has been
// Flush()ed and no marked cycle is available past the read frontier.
func (t *CoreTracker) GetSegment(size int) (*CycleResultsSegment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("tracker: segment size must be > 0, got %d", size)
	}

	t.mu.Lock()
	for {
		avail := t.writeFrontier - t.readFrontier
		if avail >= int64(size) || t.finished {
			break
		}
		t.dataCond.Wait()
	}

	avail := t.writeFrontier - t.readFrontier
	if avail <= 0 {
		t.mu.Unlock()
		return nil, nil
	}
	n := int64(size)
	if avail < n {
		n = avail
	}

	start := t.readFrontier
	data := make([]byte, n)
	cur := start
	remaining := n
	for remaining > 0 {
		idx := (cur - t.min) / int64(t.extentSize)
		ext := t.ring[idx%int64(t.extentCount)]
		off := int(cur - ext.Base())
		take := remaining
		if room := int64(ext.Size() - off); take > room {
			take = room
		}
		ext.CopyRange(data[n-remaining:], off, int(take))
		cur += take
		remaining -= take
	}
	t.readFrontier += n

	t.releaseConsumedExtentsLocked()
	t.roomCond.Broadcast()
	t.mu.Unlock()

	return &CycleResultsSegment{First: start, Results: data}, nil
}

// releaseConsumedExtentsLocked slides the ring window forward over every
// extent the reader has fully passed, recycling each freed slot for the
// extent that next enters the window. Must be called with mu held.
func (t *CoreTracker) releaseConsumedExtentsLocked() {
	for {
		base, size := t.sizeForIdx(t.windowBaseIdx)
		if size == 0 || base+int64(size) > t.readFrontier {
			return
		}
		slot := t.windowBaseIdx % int64(t.extentCount)
		newIdx := t.windowBaseIdx + int64(t.extentCount)
		if newBase, newSize := t.sizeForIdx(newIdx); newSize > 0 {
			if newSize == t.ring[slot].Size() {
				t.ring[slot].Reset(newBase)
			} else {
				t.ring[slot] = NewExtent(newBase, newSize) // clipped last extent
			}
		}
		t.windowBaseIdx++
	}
}

// Flush marks the tracker finished: any consumer blocked in GetSegment, or
// any future call, returns immediately with whatever has already been
// contiguously marked rather than waiting for size more cycles. It does not
// fabricate marks for cycles that were never written; it only unblocks
// drainage of what is genuinely available.
func (t *CoreTracker) Flush() {
	t.mu.Lock()
	t.finished = true
	t.dataCond.Broadcast()
	t.mu.Unlock()
}

// WriteFrontier returns the first cycle not yet contiguously marked.
func (t *CoreTracker) WriteFrontier() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeFrontier
}

// ReadFrontier returns the first cycle not yet delivered to a consumer.
func (t *CoreTracker) ReadFrontier() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readFrontier
}

// IsDrained reports whether every cycle in [min, max) has been delivered to
// a consumer.
func (t *CoreTracker) IsDrained() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readFrontier >= t.max
}
