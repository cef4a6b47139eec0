// internal/clock/keeper.go
package clock

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/bcd"
	"github.com/tamzrod/flowlogger/internal/metrics"
)

// ErrTornRead means the clock advanced between the two snapshot reads.
var ErrTornRead = errors.New("clock: torn read")

// TornReadError carries both disagreeing snapshots.
type TornReadError struct {
	Primary Snapshot
	Confirm Snapshot
}

func (e *TornReadError) Error() string {
	return fmt.Sprintf("clock: torn read: primary=%s confirm=%s", e.Primary, e.Confirm)
}

func (e *TornReadError) Unwrap() error { return ErrTornRead }

// WordWriter stores the four clock words. It is only valid inside
// Registers.WithWriteUnlocked.
type WordWriter func(w [4]uint16) error

// Registers is the clock's register file.
type Registers interface {
	// ReadWords reads the four time words in order.
	ReadWords() ([4]uint16, error)
	// WithWriteUnlocked runs fn with writes to the time words enabled,
	// then locks them again whatever fn returns.
	WithWriteUnlocked(fn func(write WordWriter) error) error

	SetAlarmEnabled(on bool) error
	WriteAlarmWords(w [4]uint16) error
	SetAlarmMask(m RepeatMask) error
}

// Target selects which snapshot a setter edits.
type Target int

const (
	Pending Target = iota
	Alarm
)

func (t Target) String() string {
	if t == Alarm {
		return "alarm"
	}
	return "pending"
}

// KeeperConfig tunes a Keeper.
type KeeperConfig struct {
	// TornReadRetries is how many extra reads ReadRetry makes.
	TornReadRetries int
}

// Keeper owns the committed clock snapshot, the pending snapshot edited
// by setters and the alarm snapshot. Only Commit changes the clock.
type Keeper struct {
	regs    Registers
	cfg     KeeperConfig
	log     zerolog.Logger
	metrics *metrics.Metrics

	committed Snapshot
	pending   Snapshot
	alarm     AlarmSpec
}

// NewKeeper creates a keeper over regs.
func NewKeeper(regs Registers, cfg KeeperConfig, log zerolog.Logger, m *metrics.Metrics) *Keeper {
	if cfg.TornReadRetries < 0 {
		cfg.TornReadRetries = 0
	}
	return &Keeper{regs: regs, cfg: cfg, log: log, metrics: m}
}

// Read takes two back-to-back snapshots and accepts them only when equal.
func (k *Keeper) Read() (Snapshot, error) {
	w1, err := k.regs.ReadWords()
	if err != nil {
		return Snapshot{}, fmt.Errorf("clock: read: %w", err)
	}
	w2, err := k.regs.ReadWords()
	if err != nil {
		return Snapshot{}, fmt.Errorf("clock: read: %w", err)
	}

	primary, confirm := FromWords(w1), FromWords(w2)
	if primary != confirm {
		k.metrics.TornRead()
		return Snapshot{}, &TornReadError{Primary: primary, Confirm: confirm}
	}

	k.committed = primary
	return primary, nil
}

// ReadRetry repeats torn reads up to the configured retry count.
func (k *Keeper) ReadRetry() (Snapshot, error) {
	var err error
	for attempt := 0; attempt <= k.cfg.TornReadRetries; attempt++ {
		var s Snapshot
		s, err = k.Read()
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrTornRead) {
			return Snapshot{}, err
		}
		k.log.Debug().Int("attempt", attempt).Err(err).Msg("clock read retried")
	}
	return Snapshot{}, err
}

// Grab reads the clock and resets the pending snapshot to it.
func (k *Keeper) Grab() (Snapshot, error) {
	s, err := k.ReadRetry()
	if err != nil {
		return Snapshot{}, err
	}
	k.pending = s
	return s, nil
}

// Committed returns the last snapshot read or written.
func (k *Keeper) Committed() Snapshot { return k.committed }

// Pending returns the snapshot the setters edit.
func (k *Keeper) Pending() Snapshot { return k.pending }

// SetPending replaces the pending snapshot.
func (k *Keeper) SetPending(s Snapshot) { k.pending = s }

// Commit writes the pending snapshot to the clock with its weekday
// recomputed. It is the only path that changes the clock.
func (k *Keeper) Commit() error {
	p := k.pending
	p.Weekday = 0
	if !p.Valid() {
		return fmt.Errorf("clock: commit: invalid time %s", p)
	}
	p.Weekday = byte(ComputeWeekday(
		int(bcd.ToBinary(p.Year)),
		int(bcd.ToBinary(p.Month)),
		int(bcd.ToBinary(p.Day)),
	))

	err := k.regs.WithWriteUnlocked(func(write WordWriter) error {
		return write(p.Words())
	})
	if err != nil {
		return fmt.Errorf("clock: commit: %w", err)
	}

	k.pending = p
	k.committed = p
	return nil
}

// ---- setters ----

func (k *Keeper) target(t Target) *Snapshot {
	if t == Alarm {
		s := k.alarm.snapshot()
		return &s
	}
	return &k.pending
}

func (k *Keeper) store(t Target, s *Snapshot) {
	if t == Alarm {
		k.alarm.Sec, k.alarm.Min, k.alarm.Hour = s.Sec, s.Min, s.Hour
		k.alarm.Day, k.alarm.Month, k.alarm.Year = s.Day, s.Month, s.Year
	}
}

func (k *Keeper) noteWrap(t Target, field string, stored int, wrapped bool) bool {
	if wrapped {
		k.log.Debug().Str("target", t.String()).Str("field", field).Int("stored", stored).Msg("clock field wrapped")
	}
	return wrapped
}

// SetSeconds stores v (binary); 60 and above wrap to 0.
func (k *Keeper) SetSeconds(t Target, v int) bool {
	s := k.target(t)
	wrapped := v < 0 || v >= 60
	if wrapped {
		v = 0
	}
	s.Sec = bcd.FromBinary(byte(v))
	k.store(t, s)
	return k.noteWrap(t, "seconds", v, wrapped)
}

// SetMinutes stores v; 60 and above wrap to 0.
func (k *Keeper) SetMinutes(t Target, v int) bool {
	s := k.target(t)
	wrapped := v < 0 || v >= 60
	if wrapped {
		v = 0
	}
	s.Min = bcd.FromBinary(byte(v))
	k.store(t, s)
	return k.noteWrap(t, "minutes", v, wrapped)
}

// SetHours stores v; 24 and above wrap to 0.
func (k *Keeper) SetHours(t Target, v int) bool {
	s := k.target(t)
	wrapped := v < 0 || v >= 24
	if wrapped {
		v = 0
	}
	s.Hour = bcd.FromBinary(byte(v))
	k.store(t, s)
	return k.noteWrap(t, "hours", v, wrapped)
}

// SetMonth stores v; below 1 wraps to 12, above 12 to 1. The target's
// day is revalidated against the new month, so Jan 31 moved to February
// wraps to the 1st.
func (k *Keeper) SetMonth(t Target, v int) bool {
	s := k.target(t)
	wrapped := true
	switch {
	case v < 1:
		v = 12
	case v > 12:
		v = 1
	default:
		wrapped = false
	}
	s.Month = bcd.FromBinary(byte(v))
	if revalidateDay(s) {
		wrapped = true
	}
	k.store(t, s)
	return k.noteWrap(t, "month", v, wrapped)
}

// SetDay stores v against the target's month and year: 0 becomes the
// last day of the month, past the last day wraps to 1.
func (k *Keeper) SetDay(t Target, v int) bool {
	s := k.target(t)
	wrapped := setDay(s, v)
	k.store(t, s)
	return k.noteWrap(t, "day", v, wrapped)
}

func setDay(s *Snapshot, v int) bool {
	last := int(DaysInMonth(int(bcd.ToBinary(s.Year)), int(bcd.ToBinary(s.Month))))
	wrapped := true
	switch {
	case v <= 0:
		v = last
	case v > last:
		v = 1
	default:
		wrapped = false
	}
	s.Day = bcd.FromBinary(byte(v))
	return wrapped
}

// revalidateDay wraps the day of s into its month. An alarm without a
// date keeps day 0.
func revalidateDay(s *Snapshot) bool {
	if s.Day == 0 {
		return false
	}
	return setDay(s, int(bcd.ToBinary(s.Day)))
}

// SetYear stores v (0..99; 100 and above wrap to 0) and revalidates the
// target's day, so Feb 29 does not survive a move to a non-leap year.
func (k *Keeper) SetYear(t Target, v int) bool {
	s := k.target(t)
	wrapped := v < 0 || v >= 100
	if wrapped {
		v = 0
	}
	s.Year = bcd.FromBinary(byte(v))
	if revalidateDay(s) {
		wrapped = true
	}
	k.store(t, s)
	return k.noteWrap(t, "year", v, wrapped)
}

// ---- alarm ----

// Alarm returns the alarm snapshot.
func (k *Keeper) Alarm() AlarmSpec { return k.alarm }

// SetAlarm disables the alarm, then loads spec into the alarm registers.
// The alarm stays disabled until ArmAlarm.
func (k *Keeper) SetAlarm(spec AlarmSpec) error {
	if err := k.regs.SetAlarmEnabled(false); err != nil {
		return fmt.Errorf("clock: set alarm: %w", err)
	}
	if err := k.regs.WriteAlarmWords(spec.Words()); err != nil {
		return fmt.Errorf("clock: set alarm: %w", err)
	}
	k.alarm = spec
	return nil
}

// ArmAlarm sets the repeat mask and enables the alarm, enable last.
func (k *Keeper) ArmAlarm(mask RepeatMask) error {
	if !mask.Valid() {
		return fmt.Errorf("clock: arm alarm: invalid mask %d", mask)
	}
	if err := k.regs.SetAlarmMask(mask); err != nil {
		return fmt.Errorf("clock: arm alarm: %w", err)
	}
	if err := k.regs.SetAlarmEnabled(true); err != nil {
		return fmt.Errorf("clock: arm alarm: %w", err)
	}
	k.alarm.Repeat = mask
	return nil
}
