// Package output defines the sink contract Motor delivers completed cycle
// results to, downstream of the Core Tracker.
package output

import "github.com/jshook/engineblock/pkg/tracker"

// CycleResult is a single completed cycle's outcome, the unit Output
// receives from the sync branch's per-cycle path.
type CycleResult struct {
	Cycle  int64
	Result int32
}

// Output is the sink for completed cycle results. Every Output implements
// both methods: one receives per-cycle results, the other whole ordered
// segments from the Core Tracker. An Output that only wants one kind leaves
// the other method empty.
type Output interface {
	OnCycleResult(r CycleResult)
	OnCycleResultSegment(seg *tracker.CycleResultsSegment)
}
