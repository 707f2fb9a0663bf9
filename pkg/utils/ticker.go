package utils

import (
	"context"
	"time"
)

// NewTicker returns a channel that delivers ticks every interval and stops
// (releasing the underlying ticker) when ctx is cancelled.
func NewTicker(ctx context.Context, interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	go func() {
		defer close(ch)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-t.C:
				select {
				case ch <- tick:
				default:
				}
			}
		}
	}()
	return ch
}
