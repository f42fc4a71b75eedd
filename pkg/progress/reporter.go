// Package progress periodically logs a snapshot of a running activity's
// slot states, independent of how fast the activity itself is cycling.
package progress

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jshook/engineblock/pkg/activity"
	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
	"github.com/jshook/engineblock/pkg/rate"
)

// Reporter logs a one-line status snapshot of an activity's motor pool at a
// bounded rate, decoupled from the activity's own cyclerate: a motor pool
// cycling at a million ops/sec still only logs a handful of times a second.
type Reporter struct {
	alias   string
	limiter *rate.Limiter
	states  []*activity.SlotStateTracker
	metrics *enginemetrics.Set
}

// NewReporter builds a Reporter that emits at most ratePerSec status lines
// per second for the given alias while Run is active.
func NewReporter(ctx context.Context, ratePerSec int, alias string, states []*activity.SlotStateTracker, m *enginemetrics.Set) *Reporter {
	return &Reporter{
		alias:   alias,
		limiter: rate.NewLimiter(ctx, ratePerSec, 1),
		states:  states,
		metrics: m,
	}
}

// Run blocks, logging one snapshot per limiter tick until the bound context
// is canceled or Stop is called.
func (r *Reporter) Run() {
	for range r.limiter.Chan() {
		r.logSnapshot()
	}
}

// Stop halts the reporter's background rate provider, which in turn closes
// the channel Run is ranging over.
func (r *Reporter) Stop() {
	r.limiter.Stop()
}

func (r *Reporter) logSnapshot() {
	counts := make(map[activity.RunState]int, 6)
	for _, s := range r.states {
		counts[s.Get()]++
	}

	var b strings.Builder
	for state := activity.Initialized; state <= activity.Errored; state++ {
		if n := counts[state]; n > 0 {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(state.String())
			b.WriteByte('=')
			b.WriteString(strconv.Itoa(n))
		}
	}

	event := log.Info().
		Str("activity", r.alias).
		Int("slots", len(r.states))

	if n, ok := r.cyclesObserved(); ok {
		event = event.Int64("cycles_observed", n)
	}

	event.Msg("[progress] " + b.String())
}

// cyclesObserved reads the cycles histogram's observation count straight
// out of the set's own Prometheus exposition, the same text an external
// scraper would see.
func (r *Reporter) cyclesObserved() (int64, bool) {
	if r.metrics == nil {
		return 0, false
	}
	var buf bytes.Buffer
	r.metrics.WritePrometheus(&buf)

	s := bufio.NewScanner(&buf)
	prefix := enginemetrics.NameCycles + "_count"
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSuffix(fields[1], ".0"), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(fields[1], 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	}
	return 0, false
}
