// internal/clock/snapshot.go

// Package clock keeps the logger's BCD real-time clock: torn-read safe
// snapshots, validated field setters, the commit path and the alarm.
package clock

import (
	"fmt"
	"time"

	"github.com/tamzrod/flowlogger/internal/bcd"
	"github.com/tamzrod/flowlogger/internal/frame"
)

// Snapshot is one reading of the clock. Every field is a BCD byte.
// Year counts from 2000.
type Snapshot struct {
	Sec     byte
	Min     byte
	Hour    byte
	Weekday byte
	Day     byte
	Month   byte
	Year    byte
}

// Words packs the snapshot into the four clock register words:
// min:sec, weekday:hour, month:day, year (high byte first in each label).
func (s Snapshot) Words() [4]uint16 {
	return [4]uint16{
		uint16(s.Sec) | uint16(s.Min)<<8,
		uint16(s.Hour) | uint16(s.Weekday)<<8,
		uint16(s.Day) | uint16(s.Month)<<8,
		uint16(s.Year),
	}
}

// FromWords unpacks the four clock register words.
func FromWords(w [4]uint16) Snapshot {
	return Snapshot{
		Sec:     byte(w[0]),
		Min:     byte(w[0] >> 8),
		Hour:    byte(w[1]),
		Weekday: byte(w[1] >> 8),
		Day:     byte(w[2]),
		Month:   byte(w[2] >> 8),
		Year:    byte(w[3]),
	}
}

// String renders 20YY-MM-DDTHH:MM:SS. BCD bytes print as their digits in hex.
func (s Snapshot) String() string {
	return fmt.Sprintf("20%02x-%02x-%02xT%02x:%02x:%02x",
		s.Year, s.Month, s.Day, s.Hour, s.Min, s.Sec)
}

// DateTime6 converts to the meter's date layout.
func (s Snapshot) DateTime6() frame.DateTime6 {
	return frame.DateTime6{
		Year:   s.Year,
		Month:  s.Month,
		Day:    s.Day,
		Hour:   s.Hour,
		Minute: s.Min,
		Second: s.Sec,
	}
}

// Time converts to a UTC time.Time.
func (s Snapshot) Time() time.Time {
	return time.Date(
		2000+int(bcd.ToBinary(s.Year)),
		time.Month(bcd.ToBinary(s.Month)),
		int(bcd.ToBinary(s.Day)),
		int(bcd.ToBinary(s.Hour)),
		int(bcd.ToBinary(s.Min)),
		int(bcd.ToBinary(s.Sec)),
		0, time.UTC,
	)
}

// FromTime builds a snapshot of t. Years outside 2000-2099 wrap modulo 100.
func FromTime(t time.Time) Snapshot {
	return Snapshot{
		Sec:     bcd.FromBinary(byte(t.Second())),
		Min:     bcd.FromBinary(byte(t.Minute())),
		Hour:    bcd.FromBinary(byte(t.Hour())),
		Weekday: byte(t.Weekday()),
		Day:     bcd.FromBinary(byte(t.Day())),
		Month:   bcd.FromBinary(byte(t.Month())),
		Year:    bcd.FromBinary(byte(t.Year() % 100)),
	}
}

// Valid reports whether every field holds BCD digits in range.
func (s Snapshot) Valid() bool {
	for _, b := range []byte{s.Sec, s.Min, s.Hour, s.Day, s.Month, s.Year} {
		if !bcd.Valid(b) {
			return false
		}
	}
	m := bcd.ToBinary(s.Month)
	d := bcd.ToBinary(s.Day)
	return bcd.ToBinary(s.Sec) < 60 &&
		bcd.ToBinary(s.Min) < 60 &&
		bcd.ToBinary(s.Hour) < 24 &&
		m >= 1 && m <= 12 &&
		d >= 1 && d <= DaysInMonth(int(bcd.ToBinary(s.Year)), int(m)) &&
		s.Weekday < 7
}
