// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/flowlogger/internal/status"
)

// StatusWriter is the delivery-only contract for logger status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter mirrors one status block.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer if the plan has a status block.
func NewDeviceStatusWriter(plan Plan, cli endpointClient) (*deviceStatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	return &deviceStatusWriter{
		plan:     plan.Status,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: encodeDeviceNameRegs(plan.Status.DeviceName),
	}, true
}

// liveSlotCount covers the slots that change at run time; the reserved
// range and the device name are only written with the full block.
const liveSlotCount = status.SlotReservedStart

// WriteStatus delivers a snapshot. The first call, and the first call
// after any failed write, sends the whole block. Otherwise only runs of
// changed live slots are written, one request per run.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	base := sw.baseAddr()
	regs := status.Encode(s)

	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, sw.fullBlockRegs(regs)); err != nil {
			return fmt.Errorf("status writer: full block at %d: %w", base, err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []error
	for _, run := range changedRuns(sw.last[:liveSlotCount], regs[:liveSlotCount]) {
		lo, hi := run[0], run[1]
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(lo), regs[lo:hi]); err != nil {
			errs = append(errs, fmt.Errorf("slots %d-%d: %w", lo, hi-1, err))
			continue
		}
		copy(sw.last[lo:hi], regs[lo:hi])
	}

	if len(errs) > 0 {
		sw.needFull = true
		return fmt.Errorf("status writer: %w", errors.Join(errs...))
	}
	return nil
}

// changedRuns returns [lo, hi) index ranges where prev and next differ.
func changedRuns(prev, next []uint16) [][2]int {
	var runs [][2]int
	for i := 0; i < len(next); i++ {
		if prev[i] == next[i] {
			continue
		}
		j := i + 1
		for j < len(next) && prev[j] != next[j] {
			j++
		}
		runs = append(runs, [2]int{i, j})
		i = j
	}
	return runs
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each logger owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

func (sw *deviceStatusWriter) fullBlockRegs(live []uint16) []uint16 {
	regs := make([]uint16, status.SlotsPerDevice)
	copy(regs, live)

	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], sw.nameRegs)
	return regs
}

// encodeDeviceNameRegs packs the name two ASCII characters per register,
// high byte first, NUL padded. Non-printable bytes become '?'.
func encodeDeviceNameRegs(name string) []uint16 {
	var buf [status.DeviceNameMaxChars]byte
	n := copy(buf[:], name)
	for i := 0; i < n; i++ {
		if buf[i] < 0x20 || buf[i] > 0x7E {
			buf[i] = '?'
		}
	}

	out := make([]uint16, status.SlotDeviceNameSlots)
	for i := range out {
		out[i] = uint16(buf[2*i])<<8 | uint16(buf[2*i+1])
	}
	return out
}
