package scenario

import (
	"fmt"
	"sync/atomic"

	"github.com/jshook/engineblock/pkg/activity"
)

// Registry holds one ActivityDef per alias behind an atomic.Pointer, so an
// external controller (an admin HTTP handler, a CLI reload command) can
// swap an activity's definition in place without a lock and without
// disturbing readers mid-read.
type Registry struct {
	defs map[string]*atomic.Pointer[activity.ActivityDef]
}

// NewRegistry builds a Registry seeded with defs, keyed by each def's alias.
func NewRegistry(defs []*activity.ActivityDef) (*Registry, error) {
	r := &Registry{defs: make(map[string]*atomic.Pointer[activity.ActivityDef], len(defs))}
	for _, d := range defs {
		if d.Alias() == "" {
			return nil, fmt.Errorf("scenario: activity definition missing an alias")
		}
		if _, exists := r.defs[d.Alias()]; exists {
			return nil, fmt.Errorf("scenario: duplicate activity alias %q", d.Alias())
		}
		p := &atomic.Pointer[activity.ActivityDef]{}
		p.Store(d)
		r.defs[d.Alias()] = p
	}
	return r, nil
}

// Get returns the current definition for alias.
func (r *Registry) Get(alias string) (*activity.ActivityDef, bool) {
	p, ok := r.defs[alias]
	if !ok {
		return nil, false
	}
	return p.Load(), true
}

// Aliases returns every registered activity alias.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.defs))
	for alias := range r.defs {
		out = append(out, alias)
	}
	return out
}

// Reconfigure applies params to a copy of the named activity's definition
// (ActivityDef.Update fans the change out to its observers) and then swaps
// the copy in, so a reader holding the previous definition never sees it
// change under it.
func (r *Registry) Reconfigure(alias string, params map[string]string) error {
	p, ok := r.defs[alias]
	if !ok {
		return fmt.Errorf("scenario: unknown activity alias %q", alias)
	}
	next := *p.Load()
	if err := next.Update(params); err != nil {
		return err
	}
	p.Store(&next)
	return nil
}
