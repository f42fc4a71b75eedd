// Package metrics wires the engine's timers and delay gauges onto an
// explicit VictoriaMetrics registry handle rather than its package-level
// global: each activity gets its own Set, so metric names stay bit-exact
// (cycles, phases, strides, read_input) without per-activity label
// suffixing, and tests can construct an isolated Set per case instead of
// contending over one shared global.
package metrics

import (
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metric names are bit-exact for compatibility with downstream dashboards
// built against the original engine.
const (
	NameCycles    = "cycles"
	NamePhases    = "phases"
	NameStrides   = "strides"
	NameReadInput = "read_input"
)

// Set is a per-activity metrics registry.
type Set struct {
	set *metrics.Set
}

// NewSet builds a fresh, isolated registry.
func NewSet() *Set {
	return &Set{set: metrics.NewSet()}
}

// Timer accumulates elapsed-time observations into a histogram under one of
// the engine's four timer names.
type Timer struct {
	h *metrics.Histogram
}

func (s *Set) timer(name string) *Timer {
	return &Timer{h: s.set.GetOrCreateHistogram(name)}
}

// CyclesTimer, PhasesTimer, StridesTimer, and ReadInputTimer return the
// shared histogram for their respective stage; repeated calls with the same
// name on the same Set return the same underlying histogram.
func (s *Set) CyclesTimer() *Timer    { return s.timer(NameCycles) }
func (s *Set) PhasesTimer() *Timer    { return s.timer(NamePhases) }
func (s *Set) StridesTimer() *Timer   { return s.timer(NameStrides) }
func (s *Set) ReadInputTimer() *Timer { return s.timer(NameReadInput) }

// ObserveNanos records one elapsed-nanosecond measurement. A nil Timer (or
// one with no backing histogram) is a safe no-op, so callers can use a
// shared no-op Timer when no metrics Set was configured.
func (t *Timer) ObserveNanos(n int64) {
	if t == nil || t.h == nil {
		return
	}
	t.h.Update(float64(n))
}

// Observe times fn and records its elapsed duration.
func (t *Timer) Observe(fn func()) {
	start := time.Now()
	fn()
	t.ObserveNanos(time.Since(start).Nanoseconds())
}

// CODelayGauge registers a gauge named cco-delay-<label> backed by a
// callback (if that name is already registered, the existing gauge is
// kept), matching the convention that
// coordinated-omission delay is sampled rather than pushed.
func (s *Set) CODelayGauge(label string, get func() float64) {
	s.set.GetOrCreateGauge("cco-delay-"+label, get)
}

// WritePrometheus renders the registry in Prometheus exposition format.
func (s *Set) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}
