// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/flowlogger/internal/poller"
)

// fakeSampler and fakeSession record the mode they observed, so overlap
// would show up as a wrong mode.
type fakeSampler struct {
	s     *Scheduler
	calls int
	modes []Mode
}

func (f *fakeSampler) SampleOnce() poller.Result {
	f.calls++
	f.modes = append(f.modes, f.s.Mode())
	return poller.Result{Stored: true}
}

type fakeSession struct {
	s      *Scheduler
	calls  int
	modes  []Mode
	during func()
}

func (f *fakeSession) Run(ctx context.Context) error {
	f.calls++
	f.modes = append(f.modes, f.s.Mode())
	if f.during != nil {
		f.during()
	}
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *Events, *fakeSampler, *fakeSession) {
	t.Helper()
	ev := NewEvents()
	smp := &fakeSampler{}
	ses := &fakeSession{}

	s, err := New(Config{
		Events:  ev,
		Sampler: smp,
		Session: ses,
		Log:     zerolog.Nop(),
	})
	require.NoError(t, err)
	smp.s, ses.s = s, s
	return s, ev, smp, ses
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Events: NewEvents()})
	require.Error(t, err)
}

func TestStepIdleWithoutEvents(t *testing.T) {
	s, _, smp, ses := newTestScheduler(t)

	require.Equal(t, Idle, s.Step(context.Background()))
	require.Zero(t, smp.calls)
	require.Zero(t, ses.calls)
}

func TestStepAlarmSamples(t *testing.T) {
	s, ev, smp, _ := newTestScheduler(t)

	ev.AlarmFired()
	require.Equal(t, Sampling, s.Step(context.Background()))
	require.Equal(t, 1, smp.calls)
	require.Equal(t, []Mode{Sampling}, smp.modes)
	require.Equal(t, Idle, s.Mode())

	// flag consumed
	require.Equal(t, Idle, s.Step(context.Background()))
}

func TestStepConsoleWinsOverAlarm(t *testing.T) {
	s, ev, smp, ses := newTestScheduler(t)

	ev.AlarmFired()
	ev.ByteReceived()

	require.Equal(t, Interactive, s.Step(context.Background()))
	require.Equal(t, 1, ses.calls)
	require.Equal(t, []Mode{Interactive}, ses.modes)

	// the alarm pending at session start is discarded
	require.Equal(t, Idle, s.Step(context.Background()))
	require.Zero(t, smp.calls)
}

func TestAlarmDuringSessionDiscarded(t *testing.T) {
	s, ev, smp, ses := newTestScheduler(t)
	ses.during = func() {
		ev.AlarmFired()
		ev.ByteReceived()
	}

	ev.ByteReceived()
	require.Equal(t, Interactive, s.Step(context.Background()))
	require.False(t, ev.Pending())
	require.Equal(t, Idle, s.Step(context.Background()))
	require.Zero(t, smp.calls)
}

func TestOnResultReceivesSample(t *testing.T) {
	ev := NewEvents()
	smp := &fakeSampler{}
	var results atomic.Int32
	s, err := New(Config{
		Events:   ev,
		Sampler:  smp,
		Session:  &fakeSession{},
		OnResult: func(poller.Result) { results.Add(1) },
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	smp.s = s

	ev.AlarmFired()
	s.Step(context.Background())
	require.Equal(t, int32(1), results.Load())
}

func TestRunSamplesOnStart(t *testing.T) {
	s, _, smp, _ := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Run(ctx, true), context.Canceled)
	require.Equal(t, 1, smp.calls)
}

func TestRunHandlesEventsUntilCancelled(t *testing.T) {
	s, ev, smp, _ := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, false) }()

	ev.AlarmFired()
	require.Eventually(t, func() bool { return !ev.Pending() && s.Mode() == Idle }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Equal(t, 1, smp.calls)
}

func TestWaitWakesOnEvent(t *testing.T) {
	ev := NewEvents()

	go func() {
		time.Sleep(10 * time.Millisecond)
		ev.AlarmFired()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ev.Wait(ctx))
	require.True(t, ev.takeAlarm())
}
