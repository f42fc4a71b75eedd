// Package activity holds the per-worker slot state machine and the
// activity-definition contract Motor, RateLimiter, and Action observe for
// online reconfiguration.
package activity

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// RunState is a Motor's slot state, observable by external controllers but
// exclusively owned (written) by the Motor itself.
type RunState int32

const (
	Initialized RunState = iota
	Starting
	Running
	Stopping
	Stopped
	Finished
	Errored
)

func (s RunState) String() string {
	switch s {
	case Initialized:
		return "Initialized"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	case Finished:
		return "Finished"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// validNext enumerates the FSM's allowed transitions. Finished leads to
// Stopped, since a Motor still has to run its shutdown path after it;
// Stopped and Errored are terminal.
var validNext = map[RunState][]RunState{
	Initialized: {Starting, Errored},
	Starting:    {Running, Errored},
	Running:     {Stopping, Finished, Errored},
	Stopping:    {Stopped, Errored},
	Finished:    {Stopped, Errored},
	Stopped:     {},
	Errored:     {},
}

func isValidTransition(from, to RunState) bool {
	for _, n := range validNext[from] {
		if n == to {
			return true
		}
	}
	return false
}

// SlotStateTracker is a single Motor's state cell. Only the owning Motor
// calls transitionTo directly (via Start/Run/Stop/Finish/Error); external
// code may only read the state or call RequestStop.
type SlotStateTracker struct {
	slotID int
	state  atomic.Int32
}

// NewSlotStateTracker builds a tracker for the given slot, starting at
// Initialized.
func NewSlotStateTracker(slotID int) *SlotStateTracker {
	t := &SlotStateTracker{slotID: slotID}
	t.state.Store(int32(Initialized))
	return t
}

// Get returns the current state.
func (t *SlotStateTracker) Get() RunState {
	return RunState(t.state.Load())
}

// transitionTo moves the slot to `to`, logging and no-oping on an invalid
// transition rather than panicking: a racing external RequestStop arriving
// just as the Motor reaches Finished on its own is expected, not exceptional.
func (t *SlotStateTracker) transitionTo(to RunState) bool {
	for {
		from := RunState(t.state.Load())
		if !isValidTransition(from, to) {
			log.Warn().
				Int("slot", t.slotID).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("rejected invalid slot state transition")
			return false
		}
		if t.state.CompareAndSwap(int32(from), int32(to)) {
			return true
		}
	}
}

// Start moves Initialized -> Starting.
func (t *SlotStateTracker) Start() bool { return t.transitionTo(Starting) }

// Run moves Starting -> Running.
func (t *SlotStateTracker) Run() bool { return t.transitionTo(Running) }

// Finish moves Running -> Finished, signaling input exhaustion rather than
// an error.
func (t *SlotStateTracker) Finish() bool { return t.transitionTo(Finished) }

// Stop moves Stopping or Finished -> Stopped, the Motor's terminal
// non-error state.
func (t *SlotStateTracker) Stop() bool { return t.transitionTo(Stopped) }

// Error moves any non-terminal state -> Errored.
func (t *SlotStateTracker) Error() bool { return t.transitionTo(Errored) }

// RequestStop is the only transition external code may trigger directly:
// Running -> Stopping. Called from a non-Running state, it is an idempotent
// no-op with a logged warning, matching the contract that requestStop never
// surprises a Motor that has already moved on.
func (t *SlotStateTracker) RequestStop() bool {
	if t.Get() != Running {
		log.Warn().
			Int("slot", t.slotID).
			Str("state", t.Get().String()).
			Msg("requestStop ignored: slot is not Running")
		return false
	}
	return t.transitionTo(Stopping)
}

// IsTerminal reports whether the slot has reached Stopped or Errored and
// will not transition further.
func (t *SlotStateTracker) IsTerminal() bool {
	switch t.Get() {
	case Stopped, Errored:
		return true
	default:
		return false
	}
}
