// internal/clock/alarm.go
package clock

import (
	"fmt"

	"github.com/tamzrod/flowlogger/internal/bcd"
)

// RepeatMask is the alarm match granularity, encoded as the clock's
// alarm mask field.
type RepeatMask uint8

const (
	HalfSecond RepeatMask = iota
	Second
	TenSeconds
	Minute
	TenMinutes
	Hour
	Day
	Week
	Month
	Year
)

func (m RepeatMask) String() string {
	switch m {
	case HalfSecond:
		return "every half second"
	case Second:
		return "every second"
	case TenSeconds:
		return "every 10 seconds"
	case Minute:
		return "every minute"
	case TenMinutes:
		return "every 10 minutes"
	case Hour:
		return "every hour"
	case Day:
		return "once a day"
	case Week:
		return "once a week"
	case Month:
		return "once a month"
	case Year:
		return "once a year"
	}
	return fmt.Sprintf("mask(%d)", uint8(m))
}

// Valid reports whether m is a defined mask.
func (m RepeatMask) Valid() bool {
	return m <= Year
}

// AlarmSpec is the alarm comparator setting. Fields are BCD.
type AlarmSpec struct {
	Sec, Min, Hour, Day, Month, Year byte
	Repeat                           RepeatMask
}

func (a AlarmSpec) snapshot() Snapshot {
	s := Snapshot{Sec: a.Sec, Min: a.Min, Hour: a.Hour, Day: a.Day, Month: a.Month, Year: a.Year}
	m := int(bcd.ToBinary(a.Month))
	d := int(bcd.ToBinary(a.Day))
	if m >= 1 && m <= 12 && d >= 1 {
		s.Weekday = byte(ComputeWeekday(int(bcd.ToBinary(a.Year)), m, d))
	}
	return s
}

// Words packs the alarm in the clock word layout. The weekday is derived
// from the alarm date when it is set.
func (a AlarmSpec) Words() [4]uint16 {
	return a.snapshot().Words()
}

// Matches reports whether now satisfies the alarm at its granularity.
// HalfSecond and Second match every comparison; callers deduplicate.
func (a AlarmSpec) Matches(now Snapshot) bool {
	al := a.snapshot()
	switch a.Repeat {
	case HalfSecond, Second:
		return true
	case TenSeconds:
		return now.Sec&0x0F == al.Sec&0x0F
	case Minute:
		return now.Sec == al.Sec
	case TenMinutes:
		return now.Sec == al.Sec && now.Min&0x0F == al.Min&0x0F
	case Hour:
		return now.Sec == al.Sec && now.Min == al.Min
	case Day:
		return now.Sec == al.Sec && now.Min == al.Min && now.Hour == al.Hour
	case Week:
		return now.Sec == al.Sec && now.Min == al.Min && now.Hour == al.Hour &&
			now.Weekday == al.Weekday
	case Month:
		return now.Sec == al.Sec && now.Min == al.Min && now.Hour == al.Hour &&
			now.Day == al.Day
	case Year:
		return now.Sec == al.Sec && now.Min == al.Min && now.Hour == al.Hour &&
			now.Day == al.Day && now.Month == al.Month
	}
	return false
}

// IntervalMask maps the console interval letters to alarm masks.
func IntervalMask(letter byte) (RepeatMask, bool) {
	switch letter {
	case 'a', 'A':
		return TenMinutes, true
	case 'b', 'B':
		return Hour, true
	case 'c', 'C':
		return Day, true
	case 'd', 'D':
		return Week, true
	}
	return 0, false
}
