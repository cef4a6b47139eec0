// internal/clock/softrtc_test.go
package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	t time.Time
}

func (h *fakeHost) now() time.Time { return h.t }

func TestSoftRTCCommitMovesClock(t *testing.T) {
	host := &fakeHost{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	rtc := NewSoftRTC(host.now)
	k := newKeeper(rtc, 1)

	k.SetPending(newYearsEve)
	require.NoError(t, k.Commit())

	s, err := k.Read()
	require.NoError(t, err)
	require.Equal(t, newYearsEve, s)

	host.t = host.t.Add(3 * time.Minute)
	s, err = k.Read()
	require.NoError(t, err)
	require.Equal(t, "2009-01-01T00:01:00", s.String())
	require.Equal(t, byte(4), s.Weekday)
}

func TestSoftRTCRejectsUnlockedWrite(t *testing.T) {
	rtc := NewSoftRTC(nil)

	var saved WordWriter
	require.NoError(t, rtc.WithWriteUnlocked(func(write WordWriter) error {
		saved = write
		return nil
	}))

	// the writer is dead once the scope has ended
	require.ErrorIs(t, saved(newYearsEve.Words()), ErrWriteProtected)
}

func TestSoftRTCAlarmFiresOncePerMatch(t *testing.T) {
	host := &fakeHost{t: time.Date(2009, 3, 1, 4, 59, 59, 0, time.UTC)}
	rtc := NewSoftRTC(host.now)
	k := newKeeper(rtc, 0)

	var fired atomic.Int32
	rtc.OnAlarm(func() {
		fired.Add(1)
		_ = rtc.SetAlarmEnabled(true)
	})

	k.SetSeconds(Alarm, 0)
	k.SetMinutes(Alarm, 0)
	k.SetHours(Alarm, 5)
	require.NoError(t, k.SetAlarm(k.Alarm()))
	require.NoError(t, k.ArmAlarm(Day))

	rtc.Compare()
	require.Equal(t, int32(0), fired.Load())

	host.t = host.t.Add(time.Second)
	rtc.Compare()
	require.Equal(t, int32(1), fired.Load())
	require.True(t, rtc.AlarmEnabled())

	// same second, second comparator tick
	host.t = host.t.Add(comparatorTick)
	rtc.Compare()
	require.Equal(t, int32(1), fired.Load())

	host.t = time.Date(2009, 3, 2, 5, 0, 0, 0, time.UTC)
	rtc.Compare()
	require.Equal(t, int32(2), fired.Load())
}

func TestSoftRTCAlarmAutoDisables(t *testing.T) {
	host := &fakeHost{t: time.Date(2009, 3, 1, 5, 0, 0, 0, time.UTC)}
	rtc := NewSoftRTC(host.now)

	require.NoError(t, rtc.WriteAlarmWords(AlarmSpec{Hour: 0x05}.Words()))
	require.NoError(t, rtc.SetAlarmMask(Hour))
	require.NoError(t, rtc.SetAlarmEnabled(true))

	rtc.Compare()
	require.False(t, rtc.AlarmEnabled())
}
