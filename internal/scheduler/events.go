// internal/scheduler/events.go
package scheduler

import (
	"context"
	"sync/atomic"
)

// Events are the interrupt flags. Handlers on edge goroutines only set a
// flag and signal; the scheduler consumes them.
type Events struct {
	alarm  atomic.Bool
	byteRx atomic.Bool
	wake   chan struct{}
}

func NewEvents() *Events {
	return &Events{wake: make(chan struct{}, 1)}
}

// AlarmFired is the clock alarm handler.
func (e *Events) AlarmFired() {
	e.alarm.Store(true)
	e.signal()
}

// ByteReceived is the console receive handler.
func (e *Events) ByteReceived() {
	e.byteRx.Store(true)
	e.signal()
}

func (e *Events) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether any flag is set.
func (e *Events) Pending() bool {
	return e.alarm.Load() || e.byteRx.Load()
}

// Wait parks until a flag is set or ctx ends.
func (e *Events) Wait(ctx context.Context) error {
	for !e.Pending() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.wake:
		}
	}
	return nil
}

func (e *Events) takeAlarm() bool { return e.alarm.Swap(false) }
func (e *Events) takeByte() bool  { return e.byteRx.Swap(false) }
