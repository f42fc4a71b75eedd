// Package motor implements the per-thread iteration harness: pull a
// segment from Input, throttle through the rate limiters, dispatch each
// cycle into a sync or async Action, push results to Output, and track
// timers and slot state throughout. One Motor is one OS thread's worth of
// work; an activity runs as many Motors in parallel as its thread count
// calls for.
package motor

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jshook/engineblock/pkg/action"
	"github.com/jshook/engineblock/pkg/activity"
	"github.com/jshook/engineblock/pkg/cycle"
	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
	"github.com/jshook/engineblock/pkg/output"
	"github.com/jshook/engineblock/pkg/ratelimit"
	"github.com/jshook/engineblock/pkg/synced"
)

// asyncAwaitTimeoutMs is the default grace period Motor gives an async
// action to drain its outstanding ops once the input is exhausted.
const asyncAwaitTimeoutMs = 60_000

// Motor is the per-slot worker. It owns its SlotStateTracker exclusively;
// external code may read the state but never write it directly.
type Motor struct {
	slotID int
	alias  string

	input  cycle.Input
	output output.Output

	cycleRate  ratelimit.RateLimiter
	strideRate ratelimit.RateLimiter
	phaseRate  ratelimit.RateLimiter

	syncAction  action.SyncAction
	asyncAction action.AsyncAction
	async       bool

	stride int32

	state *activity.SlotStateTracker
	m     *enginemetrics.Set

	opPool *synced.BatchPool[*action.OpContext]
}

// Config carries everything a Motor needs at construction.
type Config struct {
	SlotID      int
	Alias       string
	Input       cycle.Input
	Output      output.Output
	CycleRate   ratelimit.RateLimiter
	StrideRate  ratelimit.RateLimiter
	PhaseRate   ratelimit.RateLimiter
	SyncAction  action.SyncAction
	AsyncAction action.AsyncAction
	Stride      int32
	Metrics     *enginemetrics.Set
}

// New builds a Motor from cfg. Exactly one of SyncAction/AsyncAction must be
// set; that is a configuration error the caller (the activity binder, which
// knows which kind of action it loaded) is expected to have already
// checked.
func New(cfg Config) *Motor {
	stride := cfg.Stride
	if stride <= 0 {
		stride = 1
	}
	allocFunc := action.NewOpContext
	if cfg.AsyncAction != nil {
		allocFunc = cfg.AsyncAction.NewOpContext
	}
	return &Motor{
		slotID:      cfg.SlotID,
		alias:       cfg.Alias,
		input:       cfg.Input,
		output:      cfg.Output,
		cycleRate:   cfg.CycleRate,
		strideRate:  cfg.StrideRate,
		phaseRate:   cfg.PhaseRate,
		syncAction:  cfg.SyncAction,
		asyncAction: cfg.AsyncAction,
		async:       cfg.AsyncAction != nil,
		stride:      stride,
		state:       activity.NewSlotStateTracker(cfg.SlotID),
		m:           cfg.Metrics,
		opPool:      synced.NewBatchPool(allocFunc),
	}
}

// State returns the Motor's slot state tracker for external observation and
// RequestStop.
func (mo *Motor) State() *activity.SlotStateTracker {
	return mo.state
}

// Run executes the worker loop until the slot reaches Finished, Stopping, or
// Errored. It is meant to be called as the body of its own goroutine/thread;
// Run blocks until the Motor's work is done.
func (mo *Motor) Run() {
	if !mo.state.Start() || !mo.state.Run() {
		log.Error().Int("slot", mo.slotID).Msg("motor failed to reach Running state")
		return
	}

	if mo.cycleRate != nil {
		mo.cycleRate.Start()
	}
	if mo.strideRate != nil {
		mo.strideRate.Start()
	}
	if mo.phaseRate != nil {
		mo.phaseRate.Start()
	}

	for mo.state.Get() == activity.Running {
		if !mo.runSegment() {
			break
		}
	}

	if mo.async && mo.asyncAction != nil {
		if !mo.asyncAction.AwaitCompletion(asyncAwaitTimeoutMs) {
			log.Warn().Int("slot", mo.slotID).Msg("async completion timed out; abandoning outstanding ops")
		}
	}
	mo.state.Stop()
}

// runSegment pulls one segment from Input and drains it, returning false
// when the worker loop should stop entirely (input exhausted or slot state
// changed away from Running).
func (mo *Motor) runSegment() bool {
	readTimer := mo.timer(mo.m.ReadInputTimer)
	start := time.Now()
	seg := mo.input.GetInputSegment(mo.stride)
	readTimer.ObserveNanos(time.Since(start).Nanoseconds())

	if seg == nil {
		mo.state.Finish()
		return false
	}

	var strideDelay int64
	if mo.strideRate != nil {
		strideDelay = mo.strideRate.Acquire()
	}
	strideStart := time.Now()

	if mo.async {
		mo.drainSegmentAsync(seg)
	} else {
		mo.drainSegmentSync(seg)
	}

	strideElapsed := time.Since(strideStart).Nanoseconds()
	mo.timer(mo.m.StridesTimer).ObserveNanos(strideElapsed + strideDelay)

	return mo.state.Get() == activity.Running
}

// drainSegmentSync runs every cycle in seg through the sync action,
// buffering results for the whole segment before emitting to Output.
func (mo *Motor) drainSegmentSync(seg *cycle.Segment) {
	results := make([]output.CycleResult, 0, seg.Len())

	for mo.state.Get() == activity.Running {
		c := seg.Next()
		if c == cycle.ExhaustedCycle {
			break
		}

		var cycleDelay int64
		if mo.cycleRate != nil {
			cycleDelay = mo.cycleRate.Acquire()
		}
		cycleStart := time.Now()

		r, err := mo.syncAction.RunCycle(c)
		if err != nil {
			log.Error().Err(err).Int64("cycle", c).Msg("action fault on cycle")
			mo.state.Error()
			return
		}

		if mp, ok := mo.syncAction.(action.MultiPhaseAction); ok {
			for mp.Incomplete() {
				var phaseDelay int64
				if mo.phaseRate != nil {
					phaseDelay = mo.phaseRate.Acquire()
				}
				phaseStart := time.Now()
				pr, perr := mp.RunPhase(c)
				if perr != nil {
					log.Error().Err(perr).Int64("cycle", c).Msg("action fault on phase")
					mo.state.Error()
					return
				}
				r = pr
				mo.timer(mo.m.PhasesTimer).ObserveNanos(time.Since(phaseStart).Nanoseconds() + phaseDelay)
			}
		}

		mo.timer(mo.m.CyclesTimer).ObserveNanos(time.Since(cycleStart).Nanoseconds() + cycleDelay)
		results = append(results, output.CycleResult{Cycle: c, Result: r})
	}

	for _, res := range results {
		mo.output.OnCycleResult(res)
	}
}

// drainSegmentAsync enqueues every cycle in seg into the async action,
// retrying on backpressure (queue full) rather than treating it as an
// error, then waits for the stride-local buffer to complete before
// emitting results to Output.
func (mo *Motor) drainSegmentAsync(seg *cycle.Segment) {
	buf := action.NewOpBuffer(mo.opPool)
	sink := &strideOutputSink{output: mo.output}

	for mo.state.Get() == activity.Running {
		c := seg.Next()
		if c == cycle.ExhaustedCycle {
			break
		}

		var cycleDelay int64
		if mo.cycleRate != nil {
			cycleDelay = mo.cycleRate.Acquire()
		}
		cycleStart := time.Now()

		ctx := buf.Borrow()
		ctx.SetCycle(c)
		ctx.SetWaitTime(cycleDelay)
		ctx.AddSink(sink)

		for !mo.asyncAction.Enqueue(ctx) {
			// Backpressure: the action's queue is full. This is not an
			// error; yield briefly and retry.
			time.Sleep(time.Millisecond)
			if mo.state.Get() != activity.Running {
				break
			}
		}

		mo.timer(mo.m.CyclesTimer).ObserveNanos(time.Since(cycleStart).Nanoseconds() + cycleDelay)
	}

	for !buf.AllDone() {
		time.Sleep(time.Millisecond)
	}
	buf.Drain()
}

// timer returns the named timer, or a nil *Timer (a safe no-op) when this
// Motor has no metrics Set configured.
func (mo *Motor) timer(get func() *enginemetrics.Timer) *enginemetrics.Timer {
	if mo.m == nil {
		return nil
	}
	return get()
}

// strideOutputSink adapts the action package's Sink contract to Output, so
// an async action's completions flow to the same Output a sync action's
// segment-buffered results do.
type strideOutputSink struct {
	output output.Output
}

func (s *strideOutputSink) OnOpComplete(ctx *action.OpContext) {
	s.output.OnCycleResult(output.CycleResult{Cycle: ctx.GetCycle(), Result: ctx.GetResult()})
}
