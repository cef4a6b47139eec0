// internal/status/encode.go
package status

import (
	"errors"
	"math"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/poller"
	"github.com/tamzrod/flowlogger/internal/poller/modbus"
	"github.com/tamzrod/flowlogger/internal/sample"
)

// Encode converts a Snapshot into the live slots of a status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotFailedSamples] = s.FailedSamples
	regs[SlotMode] = s.Mode
	regs[SlotInterval] = s.Interval
	regs[SlotSamplesStored] = s.SamplesStored
	regs[SlotMissingFields] = s.MissingFields

	return regs
}

// EncodeRecord packs a record into RecordRegisters registers:
// timestamp (3, BCD y/m d/h m/s), average flow (2, IEEE-754 BE),
// totalizer (2, BE), temperature (2, IEEE-754 BE), battery, power, fault.
// Missing fields are zero; SlotMissingFields tells them apart.
func EncodeRecord(r sample.Record) []uint16 {
	regs := make([]uint16, RecordRegisters)

	ts := r.Timestamp
	regs[0] = uint16(ts.Year)<<8 | uint16(ts.Month)
	regs[1] = uint16(ts.Day)<<8 | uint16(ts.Hour)
	regs[2] = uint16(ts.Min)<<8 | uint16(ts.Sec)

	flow := math.Float32bits(r.AverageFlow)
	regs[3], regs[4] = uint16(flow>>16), uint16(flow)

	tot := uint32(r.Totalizer)
	regs[5], regs[6] = uint16(tot>>16), uint16(tot)

	temp := math.Float32bits(r.TransmitterTemp)
	regs[7], regs[8] = uint16(temp>>16), uint16(temp)

	regs[9] = uint16(r.BatteryPercent)
	regs[10] = uint16(r.PowerStatus)
	regs[11] = r.FaultStatus

	return regs
}

// CodeOf extracts a best-effort uint16 code from an error without assuming
// concrete types. A joined error reports its first coded cause.
func CodeOf(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			if c := CodeOf(e); c != CodeGeneric {
				return c
			}
		}
		return CodeGeneric
	}

	var ex frame.Exception
	switch {
	case errors.As(err, &ex):
		return ex.Code()
	case errors.Is(err, modbus.ErrTimeout):
		return CodeTimeout
	case errors.Is(err, frame.ErrChecksumMismatch):
		return CodeChecksum
	case errors.Is(err, clock.ErrTornRead):
		return CodeTornRead
	case errors.Is(err, poller.ErrStore):
		return CodeStore
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return CodeGeneric
}
