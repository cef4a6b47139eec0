// internal/clock/softrtc.go
package clock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWriteProtected is returned for a time write without the unlock
// sequence.
var ErrWriteProtected = errors.New("clock: registers write protected")

// unlock key pair, written in order before write-enable may be set
const (
	unlockKey1 = 0x55
	unlockKey2 = 0xAA
)

// comparatorTick is the alarm comparator resolution.
const comparatorTick = 500 * time.Millisecond

// SoftRTC is a clock register file backed by the host clock. The clock
// value is the host time plus an offset that time writes adjust.
type SoftRTC struct {
	mu  sync.Mutex
	now func() time.Time

	offset time.Duration

	keys         []byte
	writeEnabled bool

	alarmWords   [4]uint16
	alarmMask    RepeatMask
	alarmEnabled bool
	lastFired    time.Time

	onAlarm func()
}

// NewSoftRTC creates a clock reading now. A nil now uses time.Now.
func NewSoftRTC(now func() time.Time) *SoftRTC {
	if now == nil {
		now = time.Now
	}
	return &SoftRTC{now: now}
}

// OnAlarm installs the alarm interrupt handler. It runs on the
// comparator goroutine and must only set flags (and may re-enable the alarm).
func (r *SoftRTC) OnAlarm(fn func()) {
	r.mu.Lock()
	r.onAlarm = fn
	r.mu.Unlock()
}

func (r *SoftRTC) current() time.Time {
	return r.now().Add(r.offset).UTC()
}

// ReadWords implements Registers.
func (r *SoftRTC) ReadWords() ([4]uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FromTime(r.current()).Words(), nil
}

// WithWriteUnlocked implements Registers. The key pair is written and
// write-enable set under the register lock (no comparator can interleave),
// then cleared once fn returns.
func (r *SoftRTC) WithWriteUnlocked(fn func(write WordWriter) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = append(r.keys[:0], unlockKey1, unlockKey2)
	if err := r.setWriteEnable(); err != nil {
		return err
	}
	defer func() {
		r.writeEnabled = false
		r.keys = r.keys[:0]
	}()

	return fn(r.writeWords)
}

func (r *SoftRTC) setWriteEnable() error {
	if len(r.keys) != 2 || r.keys[0] != unlockKey1 || r.keys[1] != unlockKey2 {
		return ErrWriteProtected
	}
	r.writeEnabled = true
	return nil
}

// writeWords runs with r.mu held.
func (r *SoftRTC) writeWords(w [4]uint16) error {
	if !r.writeEnabled {
		return ErrWriteProtected
	}
	s := FromWords(w)
	if !s.Valid() {
		return errors.New("clock: invalid time words")
	}
	host := r.now()
	r.offset = s.Time().Sub(host.Truncate(time.Second))
	return nil
}

// SetAlarmEnabled implements Registers.
func (r *SoftRTC) SetAlarmEnabled(on bool) error {
	r.mu.Lock()
	r.alarmEnabled = on
	r.mu.Unlock()
	return nil
}

// WriteAlarmWords implements Registers.
func (r *SoftRTC) WriteAlarmWords(w [4]uint16) error {
	r.mu.Lock()
	r.alarmWords = w
	r.mu.Unlock()
	return nil
}

// SetAlarmMask implements Registers.
func (r *SoftRTC) SetAlarmMask(m RepeatMask) error {
	if !m.Valid() {
		return errors.New("clock: invalid alarm mask")
	}
	r.mu.Lock()
	r.alarmMask = m
	r.mu.Unlock()
	return nil
}

// AlarmEnabled reports the alarm enable bit.
func (r *SoftRTC) AlarmEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alarmEnabled
}

// Run drives the alarm comparator until ctx ends.
func (r *SoftRTC) Run(ctx context.Context) {
	t := time.NewTicker(comparatorTick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Compare()
		}
	}
}

// Compare runs one comparator step. On a match the alarm disables itself
// and the handler runs.
func (r *SoftRTC) Compare() {
	r.mu.Lock()
	if !r.alarmEnabled {
		r.mu.Unlock()
		return
	}

	now := r.current()
	a := alarmFromWords(r.alarmWords, r.alarmMask)
	fire := a.Matches(FromTime(now))
	if fire && r.alarmMask != HalfSecond && now.Truncate(time.Second).Equal(r.lastFired) {
		fire = false
	}
	if !fire {
		r.mu.Unlock()
		return
	}

	r.lastFired = now.Truncate(time.Second)
	r.alarmEnabled = false
	fn := r.onAlarm
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func alarmFromWords(w [4]uint16, m RepeatMask) AlarmSpec {
	s := FromWords(w)
	return AlarmSpec{
		Sec: s.Sec, Min: s.Min, Hour: s.Hour,
		Day: s.Day, Month: s.Month, Year: s.Year,
		Repeat: m,
	}
}
