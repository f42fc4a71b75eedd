// Package gc forces periodic garbage collection during sustained
// workload-generation runs.
package gc

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
)

// Run periodically forces Go's garbage collector and tries to return freed
// pages back to the OS.
// ----------------------------------------------
// Why is this needed?
//
// A long-running activity at a steady cyclerate churns through pooled
// OpContexts and tracker ring extents continuously, but never grows its
// working set: the heap stabilizes early and stays there. By default, Go's
// GC only runs a full collection once the heap grows by GOGC% (default
// 100%), so a process that never doubles its heap can go a very long time
// between collections — garbage from short-lived per-cycle allocations
// (result buffers, segment structs) piles up as uncollected but logically
// dead memory, and RSS creeps upward even though nothing is actually
// leaking.
//
// To prevent this, we force runtime.GC() on a short interval, and
// periodically call debug.FreeOSMemory() to push freed pages back to the
// OS. Both intervals are caller-configured.
func Run(ctx context.Context, gcInterval, freeOSMemInterval time.Duration) {
	go func() {
		gcTicker := time.NewTicker(gcInterval)
		defer gcTicker.Stop()

		freeOSMemTicker := time.NewTicker(freeOSMemInterval)
		defer freeOSMemTicker.Stop()

		log.Info().Msgf(
			"[force-GC] running with gcInterval=%s, freeOsMemInterval=%s",
			gcInterval, freeOSMemInterval,
		)

		var lastAlloc uint64

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("[force-GC] stopped")
				return

			case <-gcTicker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)

				runtime.GC()

				log.Info().Msgf(
					"[force-GC] forced GC pass (last GC pass at: %s, pause: %s)",
					time.Unix(0, int64(mem.LastGC)).Format(time.RFC3339Nano),
					lastGCPauseNs(mem.PauseNs, mem.NumGC),
				)

				lastAlloc = mem.Alloc
			case <-freeOSMemTicker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)

				if lastAlloc == 0 {
					lastAlloc = mem.Alloc
					continue
				}

				debug.FreeOSMemory() // use madvise(DONTNEED) under the hood

				log.Info().Msgf(
					"[force-GC] forcing flush of freed memory to OS (alloc was %s, now %s)",
					fmtBytes(lastAlloc), fmtBytes(mem.Alloc),
				)

				lastAlloc = mem.Alloc
			}
		}
	}()
}

// fmtBytes formats a byte count to a human-readable string.
func fmtBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// lastGCPauseNs reads the most recent pause from MemStats.PauseNs, a
// circular buffer whose latest entry sits at (numGC+255)%256.
func lastGCPauseNs(pauses [256]uint64, numGC uint32) time.Duration {
	if numGC == 0 {
		return time.Duration(0)
	}
	return time.Duration(pauses[(numGC+255)%256])
}
