package authclient

import (
	"context"
	"time"
)

// Clock provides wall-clock reads and cancellable delayed callbacks.
// Components take it as an option so tests can drive time by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

// TimerHandle cancels a scheduled callback. Stop reports whether the
// callback was prevented from running.
type TimerHandle interface {
	Stop() bool
}

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return systemTimer{timer: time.AfterFunc(d, fn)}
}

type systemTimer struct {
	timer *time.Timer
}

func (t systemTimer) Stop() bool {
	return t.timer.Stop()
}

// waitFor sleeps for d on the given clock, aborting early when ctx is done.
func waitFor(ctx context.Context, clock Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	handle := clock.AfterFunc(d, func() {
		close(done)
	})

	select {
	case <-ctx.Done():
		handle.Stop()
		return ctx.Err()
	case <-done:
		return nil
	}
}
