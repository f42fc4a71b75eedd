// Package ctime is a coarse, cached wall clock for call sites that log or
// tick on a cadence far looser than a nanosecond and would otherwise call
// time.Now() far more often than its resolution actually needs. It is not
// used by the rate limiters, which need true per-call precision.
package ctime

import (
	"sync/atomic"
	"time"
)

var nowUnix atomic.Int64

// Start begins refreshing the cached clock every resolution and returns a
// stop function.
func Start(resolution time.Duration) func() {
	nowUnix.Store(time.Now().UnixNano())
	t := time.NewTicker(resolution)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case tt := <-t.C:
				nowUnix.Store(tt.UnixNano())
			case <-done:
				t.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
func Now() time.Time                  { return time.Unix(0, nowUnix.Load()) }
func UnixNano() int64                 { return nowUnix.Load() }
func Since(t time.Time) time.Duration { return Now().Sub(t) }
