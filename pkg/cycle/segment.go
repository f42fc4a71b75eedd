// Package cycle defines the cycle-number sequence types that Input hands to
// Motor: a finite, single-consumer batch of monotonically increasing cycle
// numbers, consumed one at a time until exhausted.
package cycle

import "sync/atomic"

// ExhaustedCycle is the negative sentinel returned by Next once a Segment
// has yielded every cycle in its range.
const ExhaustedCycle int64 = -1

// Segment is an ordered, finite, consumable-once range of cycles
// [First, First+Len). It is not safe for concurrent use: a segment is
// produced by an Input and fully drained by exactly one Motor.
type Segment struct {
	first   int64
	length  int64
	cursor  atomic.Int64 // next offset to hand out, 0-based
}

// NewSegment builds a segment covering [first, first+length).
func NewSegment(first, length int64) *Segment {
	return &Segment{first: first, length: length}
}

// Len returns the total number of cycles in the segment, consumed or not.
func (s *Segment) Len() int64 {
	return s.length
}

// First returns the first cycle in the segment's range.
func (s *Segment) First() int64 {
	return s.first
}

// PeekNext returns the next cycle that Next would return, without consuming
// it, or ExhaustedCycle if the segment is already drained.
func (s *Segment) PeekNext() int64 {
	off := s.cursor.Load()
	if off >= s.length {
		return ExhaustedCycle
	}
	return s.first + off
}

// Next returns the next cycle in the segment and advances the cursor, or
// ExhaustedCycle once every cycle has been handed out. The cursor advance is
// atomic so a Segment can be safely peeked from a different goroutine than
// the one draining it, though draining itself remains single-consumer.
func (s *Segment) Next() int64 {
	off := s.cursor.Add(1) - 1
	if off >= s.length {
		return ExhaustedCycle
	}
	return s.first + off
}

// IsExhausted reports whether every cycle in the segment has been consumed.
func (s *Segment) IsExhausted() bool {
	return s.cursor.Load() >= s.length
}

// Remaining returns how many cycles have not yet been consumed.
func (s *Segment) Remaining() int64 {
	left := s.length - s.cursor.Load()
	if left < 0 {
		return 0
	}
	return left
}
