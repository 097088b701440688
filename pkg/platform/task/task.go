// Package task provides explicit, cancellable handles for background loops.
//
// Every background loop in the pipeline (reconciliation, payment polling,
// OTP countdown) is started through this package and owned by a component
// that cancels it on teardown or supersession. Nothing relies on garbage
// collection to stop a loop.
package task

import (
	"context"
	"sync"
	"time"
)

// Handle controls one running loop. A nil *Handle is valid and inert.
type Handle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Go runs fn in a goroutine with a context cancelled by Handle.Cancel or by parent.
func Go(parent context.Context, name string, fn func(ctx context.Context)) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{name: name, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer cancel()
		fn(ctx)
	}()
	return h
}

// Every runs fn once per interval until cancelled. The first run happens after
// one interval.
func Every(parent context.Context, name string, interval time.Duration, fn func(ctx context.Context)) *Handle {
	return Go(parent, name, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
}

// Name returns the label given at start.
func (h *Handle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Cancel signals the loop to stop without waiting. Safe to call from inside the loop.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
}

// Done is closed once the loop has returned.
func (h *Handle) Done() <-chan struct{} {
	if h == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return h.done
}

// Stop cancels and waits for the loop to return. Must not be called from the loop itself.
func (h *Handle) Stop() {
	h.Cancel()
	<-h.Done()
}

// Running reports whether the loop has not yet returned.
func (h *Handle) Running() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Sleep waits for d or until ctx is done. It reports false when ctx ended first.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
