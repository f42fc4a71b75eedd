package cycle

import "sync/atomic"

// Input produces cycle segments of a requested stride. A nil Segment from
// GetInputSegment signals permanent exhaustion; the Motor transitions its
// slot to Finished and never calls GetInputSegment again.
type Input interface {
	GetInputSegment(stride int32) *Segment
}

// Startable is an optional capability an Input may implement to receive a
// start notification before the first segment is pulled.
type Startable interface {
	Start()
}

// Stoppable is an optional capability an Input may implement to receive a
// cooperative stop request, e.g. to unblock a segment source that would
// otherwise produce forever.
type Stoppable interface {
	RequestStop()
}

// BoundedInput is the reference Input: it issues segments sequentially over
// a finite [Min, Max) range and returns nil once the range is exhausted,
// matching the "no worker owns a range by construction" partitioning rule —
// every GetInputSegment call atomically claims the next disjoint span.
type BoundedInput struct {
	min, max int64
	cursor   atomic.Int64
	stopped  atomic.Bool
}

// NewBoundedInput builds an Input over the half-open range [min, max).
func NewBoundedInput(min, max int64) *BoundedInput {
	in := &BoundedInput{min: min, max: max}
	in.cursor.Store(min)
	return in
}

// GetInputSegment claims the next stride-sized span and returns it as a
// Segment, or nil if the range is exhausted or RequestStop was called.
func (in *BoundedInput) GetInputSegment(stride int32) *Segment {
	if stride <= 0 {
		stride = 1
	}
	if in.stopped.Load() {
		return nil
	}
	for {
		cur := in.cursor.Load()
		if cur >= in.max {
			return nil
		}
		end := cur + int64(stride)
		if end > in.max {
			end = in.max
		}
		if in.cursor.CompareAndSwap(cur, end) {
			return NewSegment(cur, end-cur)
		}
	}
}

// RequestStop makes every subsequent GetInputSegment call return nil,
// regardless of how much range remains, matching the Input's optional
// Stoppable capability.
func (in *BoundedInput) RequestStop() {
	in.stopped.Store(true)
}

// Remaining reports how many cycles have not yet been claimed by a segment.
// It is advisory only: concurrent claims can make the value stale the
// instant it is read.
func (in *BoundedInput) Remaining() int64 {
	left := in.max - in.cursor.Load()
	if left < 0 {
		return 0
	}
	return left
}

// UnboundedInput issues strictly increasing segments starting at Min with no
// upper bound; it never signals exhaustion on its own and relies on an
// external RequestStop (e.g. from a scenario's duration limit) to terminate
// the activity.
type UnboundedInput struct {
	cursor  atomic.Int64
	stopped atomic.Bool
}

// NewUnboundedInput builds an Input that starts issuing cycles at min.
func NewUnboundedInput(min int64) *UnboundedInput {
	in := &UnboundedInput{}
	in.cursor.Store(min)
	return in
}

func (in *UnboundedInput) GetInputSegment(stride int32) *Segment {
	if stride <= 0 {
		stride = 1
	}
	if in.stopped.Load() {
		return nil
	}
	first := in.cursor.Add(int64(stride)) - int64(stride)
	return NewSegment(first, int64(stride))
}

func (in *UnboundedInput) RequestStop() {
	in.stopped.Store(true)
}
