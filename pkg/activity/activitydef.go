package activity

import (
	"fmt"
	"strconv"

	"github.com/jshook/engineblock/pkg/ratespec"
)

// Recognized ActivityDef keys.
const (
	KeyAlias      = "alias"
	KeyThreads    = "threads"
	KeyStride     = "stride"
	KeyAsync      = "async"
	KeyCycleRate  = "cyclerate"
	KeyStrideRate = "striderate"
	KeyPhaseRate  = "phaserate"
)

// DefaultStride is used when the stride key is absent.
const DefaultStride = 1

// ActivityDef is the key->value configuration map an external controller
// mutates to reconfigure an activity: rate, thread-count and stride changes.
// Code that needs to react to an Update registers as an ActivityDefObserver.
// Motor, the rate limiters and the actions in this module do not register,
// so a running Motor keeps the settings it was built with.
type ActivityDef struct {
	alias      string
	threads    int
	stride     int32
	async      bool
	cycleRate  *ratespec.RateSpec
	strideRate *ratespec.RateSpec
	phaseRate  *ratespec.RateSpec

	observers []ActivityDefObserver
}

// ActivityDefObserver is implemented by anything that needs to react to
// online reconfiguration of an ActivityDef. No type in this module
// implements it.
type ActivityDefObserver interface {
	OnActivityDefUpdate(def *ActivityDef)
}

// NewActivityDef parses a raw key->value map into a validated ActivityDef.
// An `async` value on a sync action is a configuration error per the
// engine's error taxonomy, but that check belongs to the Action binding
// site (the Action knows its own sync/async nature), not here.
func NewActivityDef(params map[string]string) (*ActivityDef, error) {
	def := &ActivityDef{
		alias:  params[KeyAlias],
		stride: DefaultStride,
	}

	if v, ok := params[KeyThreads]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("activitydef: invalid threads %q", v)
		}
		def.threads = n
	}

	if v, ok := params[KeyStride]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("activitydef: invalid stride %q", v)
		}
		def.stride = int32(n)
	}

	if v, ok := params[KeyAsync]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("activitydef: invalid async %q", v)
		}
		def.async = b
	}

	for key, dst := range map[string]**ratespec.RateSpec{
		KeyCycleRate:  &def.cycleRate,
		KeyStrideRate: &def.strideRate,
		KeyPhaseRate:  &def.phaseRate,
	} {
		if v, ok := params[key]; ok {
			spec, err := ratespec.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("activitydef: %s: %w", key, err)
			}
			*dst = &spec
		}
	}

	return def, nil
}

func (d *ActivityDef) Alias() string   { return d.alias }
func (d *ActivityDef) Threads() int    { return d.threads }
func (d *ActivityDef) Stride() int32   { return d.stride }
func (d *ActivityDef) IsAsync() bool   { return d.async }

// CycleRate, StrideRate, and PhaseRate return nil when the corresponding key
// was not present in the activity definition: no rate limiting is applied
// at that granularity.
func (d *ActivityDef) CycleRate() *ratespec.RateSpec  { return d.cycleRate }
func (d *ActivityDef) StrideRate() *ratespec.RateSpec { return d.strideRate }
func (d *ActivityDef) PhaseRate() *ratespec.RateSpec  { return d.phaseRate }

// AddObserver registers an observer to be notified on every future Update.
func (d *ActivityDef) AddObserver(o ActivityDefObserver) {
	d.observers = append(d.observers, o)
}

// Update replaces the definition's parameters in place and notifies every
// registered observer synchronously, so every observer sees the new values
// before Update returns.
func (d *ActivityDef) Update(params map[string]string) error {
	next, err := NewActivityDef(params)
	if err != nil {
		return err
	}
	next.observers = d.observers

	*d = *next
	for _, o := range d.observers {
		o.OnActivityDefUpdate(d)
	}
	return nil
}
