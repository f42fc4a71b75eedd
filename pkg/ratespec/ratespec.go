// Package ratespec defines the value type that parameterizes every rate
// limiter in the engine: a target throughput, a strictness knob blending
// isochronous and bursty pacing, and a flag controlling coordinated-omission
// delay reporting.
package ratespec

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxOpsPerSec is the nanosecond-precision floor: a limiter cannot schedule
// grants closer together than one nanosecond apart.
const MaxOpsPerSec = 1e9

// RateSpec carries the parameters of a rate-limited stream: cycles, strides,
// or phases, depending on which activity parameter it was parsed from.
type RateSpec struct {
	OpsPerSec     float64
	Strictness    float64
	ReportCODelay bool
}

// New builds a RateSpec and validates it against the invariants in the
// component contract: 0 < OpsPerSec <= 1e9 and Strictness in [0,1].
func New(opsPerSec, strictness float64, reportCODelay bool) (RateSpec, error) {
	r := RateSpec{OpsPerSec: opsPerSec, Strictness: strictness, ReportCODelay: reportCODelay}
	return r, r.Validate()
}

// Validate reports a configuration error per the engine's error taxonomy:
// fail fast, surface to the caller.
func (r RateSpec) Validate() error {
	if r.OpsPerSec <= 0 {
		return fmt.Errorf("ratespec: ops_per_sec must be > 0, got %v", r.OpsPerSec)
	}
	if r.OpsPerSec > MaxOpsPerSec {
		return fmt.Errorf("ratespec: ops_per_sec must be <= %v, got %v", MaxOpsPerSec, r.OpsPerSec)
	}
	if r.Strictness < 0 || r.Strictness > 1 {
		return fmt.Errorf("ratespec: strictness must be in [0,1], got %v", r.Strictness)
	}
	return nil
}

// Equals reports whether two specs are equivalent: all three fields equal.
func (r RateSpec) Equals(o RateSpec) bool {
	return r.OpsPerSec == o.OpsPerSec && r.Strictness == o.Strictness && r.ReportCODelay == o.ReportCODelay
}

// OpNanos returns the nanosecond grant size for one op at this spec's rate.
func (r RateSpec) OpNanos() int64 {
	return int64(1e9 / r.OpsPerSec)
}

func (r RateSpec) String() string {
	return fmt.Sprintf("%vops/s,strictness=%v,reportCODelay=%v", r.OpsPerSec, r.Strictness, r.ReportCODelay)
}

// Parse reads the activity-definition form of a rate spec:
// "<ops/s>[,<strictness>[,report]]". Strictness defaults to 1.0 (isochronous)
// and delay reporting defaults to off when omitted.
func Parse(s string) (RateSpec, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) == 0 || parts[0] == "" {
		return RateSpec{}, fmt.Errorf("ratespec: empty rate spec")
	}

	ops, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RateSpec{}, fmt.Errorf("ratespec: invalid ops/s %q: %w", parts[0], err)
	}

	strictness := 1.0
	report := false

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		strictness, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return RateSpec{}, fmt.Errorf("ratespec: invalid strictness %q: %w", parts[1], err)
		}
	}

	if len(parts) > 2 {
		switch strings.ToLower(strings.TrimSpace(parts[2])) {
		case "report", "co", "true":
			report = true
		}
	}

	return New(ops, strictness, report)
}
