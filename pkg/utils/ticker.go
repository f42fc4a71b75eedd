// Package utils holds small, cross-cutting helpers shared by the engine's
// ambient infrastructure (heartbeat/reporting cadences) that don't belong
// to any one domain package.
package utils

import (
	"context"
	"time"

	"github.com/jshook/engineblock/pkg/ctime"
)

// NewTicker returns a channel that ticks once immediately (using the cached
// ctime clock) and then on every interval thereafter, closing when ctx is
// canceled.
func NewTicker(ctx context.Context, interval time.Duration) (ch <-chan time.Time) {
	ctx, cancel := context.WithCancel(ctx)

	tickCh := make(chan time.Time, 1)
	tickCh <- ctime.Now()

	go func() {
		ticker := time.NewTicker(interval)
		defer func() {
			ticker.Stop()
			close(tickCh)
			cancel()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				tickCh <- t
			}
		}
	}()

	return tickCh
}
