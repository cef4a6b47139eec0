// internal/meter/sim/sim.go

// Package sim is a register-map flow meter that answers RTU request
// frames. It backs the simulate mode of the binary and the tests.
package sim

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/tamzrod/flowlogger/internal/frame"
)

// Device is a simulated meter.
type Device struct {
	Slave byte

	mu        sync.Mutex
	regs      map[uint16]uint16
	protected map[uint16]bool
	unlocked  bool

	// Silent drops every request (no answer at all).
	Silent bool
	// CorruptNext flips a payload bit in the next response.
	CorruptNext bool

	requests int
}

// New returns an empty device answering as slave.
func New(slave byte) *Device {
	return &Device{
		Slave:     slave,
		regs:      make(map[uint16]uint16),
		protected: make(map[uint16]bool),
	}
}

// Requests returns how many well-formed requests the device has seen.
func (d *Device) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

// Protect marks count registers at addr as writable only after an unlock.
func (d *Device) Protect(addr, count uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := uint16(0); i < count; i++ {
		d.protected[addr+i] = true
	}
}

// ---- register setters ----

func (d *Device) SetRegister(addr, v uint16) {
	d.mu.Lock()
	d.regs[addr] = v
	d.mu.Unlock()
}

func (d *Device) Register(addr uint16) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[addr]
}

// SetFloat stores f in the meter's two-register float layout.
func (d *Device) SetFloat(addr uint16, f float32) {
	d.setUint32(addr, math.Float32bits(f))
}

// SetInt32 stores v big-endian over two registers.
func (d *Device) SetInt32(addr uint16, v int32) {
	d.setUint32(addr, uint32(v))
}

func (d *Device) setUint32(addr uint16, v uint32) {
	d.mu.Lock()
	d.regs[addr] = uint16(v >> 16)
	d.regs[addr+1] = uint16(v)
	d.mu.Unlock()
}

// SetBytes stores b (even length) from addr on.
func (d *Device) SetBytes(addr uint16, b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i+1 < len(b); i += 2 {
		d.regs[addr+uint16(i/2)] = binary.BigEndian.Uint16(b[i:])
	}
}

// Bytes returns count registers from addr as bytes.
func (d *Device) Bytes(addr, count uint16) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, 2*count)
	for i := uint16(0); i < count; i++ {
		binary.BigEndian.PutUint16(out[2*i:], d.regs[addr+i])
	}
	return out
}

// SetString stores s NUL padded over n registers.
func (d *Device) SetString(addr uint16, s string, n int) {
	b := make([]byte, 2*n)
	copy(b, s)
	d.SetBytes(addr, b)
}

// SetDateTime stores six BCD bytes over three registers.
func (d *Device) SetDateTime(addr uint16, dt frame.DateTime6) {
	d.SetBytes(addr, dt.Bytes())
}

// ---- request handling ----

// Handle answers one request frame. A nil result means no answer.
func (d *Device) Handle(req []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Silent || len(req) < 8 || !frame.Verify(req) || req[0] != d.Slave {
		return nil
	}
	d.requests++

	var resp []byte
	switch frame.FunctionCode(req[1]) {
	case frame.ReadHoldingRegisters:
		resp = d.read(req)
	case frame.WriteMultipleRegisters:
		resp = d.write(req)
	default:
		resp = d.exception(req[1], frame.ExIllegalFunction)
	}

	f := frame.AppendChecksum(resp)
	if d.CorruptNext && len(f) > 5 {
		d.CorruptNext = false
		f[3] ^= 0x01
	}
	return f
}

func (d *Device) read(req []byte) []byte {
	addr := binary.BigEndian.Uint16(req[2:4])
	count := binary.BigEndian.Uint16(req[4:6])

	out := []byte{d.Slave, req[1], byte(2 * count)}
	for i := uint16(0); i < count; i++ {
		v, ok := d.regs[addr+i]
		if !ok {
			return d.exception(req[1], frame.ExIllegalAddress)
		}
		out = binary.BigEndian.AppendUint16(out, v)
	}
	return out
}

func (d *Device) write(req []byte) []byte {
	if len(req) < 9 {
		return d.exception(req[1], frame.ExIllegalValue)
	}
	addr := binary.BigEndian.Uint16(req[2:4])
	count := binary.BigEndian.Uint16(req[4:6])
	data := req[7 : len(req)-2]
	if int(req[6]) != len(data) || len(data) != 2*int(count) {
		return d.exception(req[1], frame.ExIllegalValue)
	}

	if addr == 2008 {
		d.unlocked = len(data) >= 4 && string(data[:4]) == "1000"
		if !d.unlocked {
			return d.exception(req[1], frame.ExIllegalValue)
		}
		return append([]byte(nil), req[:6]...)
	}

	for i := uint16(0); i < count; i++ {
		if d.protected[addr+i] && !d.unlocked {
			return d.exception(req[1], frame.ExIllegalValue)
		}
	}
	for i := uint16(0); i < count; i++ {
		d.regs[addr+i] = binary.BigEndian.Uint16(data[2*i:])
	}
	d.unlocked = false
	return append([]byte(nil), req[:6]...)
}

func (d *Device) exception(fc byte, ex frame.Exception) []byte {
	return []byte{d.Slave, fc | 0x80, byte(ex)}
}
