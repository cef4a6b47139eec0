// internal/meter/meter.go

// Package meter reads and writes named values of the flow meter's
// holding register map.
package meter

import (
	"errors"
	"fmt"

	"github.com/tamzrod/flowlogger/internal/frame"
)

// Bus is the register access the meter needs. The RTU client satisfies it.
type Bus interface {
	ReadHoldingRegisters(slave byte, addr, count uint16) ([]byte, error)
	WriteMultipleRegisters(slave byte, addr uint16, payload []byte) error
	UnlockDevice(slave byte) error
}

var ErrKind = errors.New("meter: register has a different value kind")

// Meter is one meter on the bus.
type Meter struct {
	bus   Bus
	slave byte
}

// New binds a meter at slave address slave.
func New(bus Bus, slave byte) *Meter {
	return &Meter{bus: bus, slave: slave}
}

// Slave returns the meter's bus address.
func (m *Meter) Slave() byte { return m.slave }

// Raw returns the register bytes of r.
func (m *Meter) Raw(r Register) ([]byte, error) {
	b, err := m.bus.ReadHoldingRegisters(m.slave, r.Address, r.Count)
	if err != nil {
		return nil, fmt.Errorf("meter: %s: %w", r.Name, err)
	}
	return b, nil
}

// Read decodes r by its kind.
func (m *Meter) Read(r Register) (frame.Value, error) {
	b, err := m.Raw(r)
	if err != nil {
		return frame.Value{}, err
	}
	if r.LowByte {
		return frame.Value{Kind: frame.KindUint16BE, Uint: uint16(b[1])}, nil
	}
	v, err := frame.Decode(r.Kind, r.Width, b)
	if err != nil {
		return frame.Value{}, fmt.Errorf("meter: %s: %w", r.Name, err)
	}
	return v, nil
}

// Float reads a float register.
func (m *Meter) Float(r Register) (float32, error) {
	if err := expect(r, frame.KindFloat32Swapped); err != nil {
		return 0, err
	}
	v, err := m.Read(r)
	return v.Float, err
}

// Int reads the leading 32-bit integer of r.
func (m *Meter) Int(r Register) (int32, error) {
	if err := expect(r, frame.KindInt32BE); err != nil {
		return 0, err
	}
	v, err := m.Read(r)
	return v.Int, err
}

// Uint reads a one-register value. Byte-wide registers yield their low byte.
func (m *Meter) Uint(r Register) (uint16, error) {
	if err := expect(r, frame.KindUint16BE); err != nil {
		return 0, err
	}
	v, err := m.Read(r)
	return v.Uint, err
}

// Text reads a fixed-width string register.
func (m *Meter) Text(r Register) (string, error) {
	if err := expect(r, frame.KindFixedString); err != nil {
		return "", err
	}
	v, err := m.Read(r)
	return v.Str, err
}

// Date reads a BCD date register.
func (m *Meter) Date(r Register) (frame.DateTime6, error) {
	if err := expect(r, frame.KindBCDDateTime6); err != nil {
		return frame.DateTime6{}, err
	}
	v, err := m.Read(r)
	return v.DateTime, err
}

func expect(r Register, k frame.Kind) error {
	if r.Kind != k {
		return fmt.Errorf("%w: %s is %s, not %s", ErrKind, r.Name, r.Kind, k)
	}
	return nil
}

// ---- composite values ----

// Total is a totalizer reading in litres x100.
type Total struct {
	Integer  int32
	Fraction int32
}

// Totalizer reads both halves of a totalizer.
func (m *Meter) Totalizer(r Register) (Total, error) {
	b, err := m.Raw(r)
	if err != nil {
		return Total{}, err
	}
	i, err := frame.Int32BE(b[0:4])
	if err != nil {
		return Total{}, fmt.Errorf("meter: %s: %w", r.Name, err)
	}
	f, err := frame.Int32BE(b[4:8])
	if err != nil {
		return Total{}, fmt.Errorf("meter: %s: %w", r.Name, err)
	}
	return Total{Integer: i, Fraction: f}, nil
}

// OperatingHours returns hours since first power up.
func (m *Meter) OperatingHours() (uint32, error) {
	v, err := m.Int(OperatingHours)
	return uint32(v), err
}

// BaudRate returns the configured meter baud rate.
func (m *Meter) BaudRate() (int, error) {
	code, err := m.Uint(BaudRateCode)
	if err != nil {
		return 0, err
	}
	if int(code) >= len(baudRates) {
		return 0, fmt.Errorf("meter: unknown baud rate code %d", code)
	}
	return baudRates[code], nil
}

// Running reports whether the meter is measuring.
func (m *Meter) Running() (bool, error) {
	v, err := m.Uint(RunningState)
	if err != nil {
		return false, err
	}
	switch v {
	case StateRunning:
		return true, nil
	case StateStopped:
		return false, nil
	}
	return false, fmt.Errorf("meter: unknown running state 0x%04x", v)
}

// SetDateTime unlocks the meter and writes its clock.
func (m *Meter) SetDateTime(dt frame.DateTime6) error {
	if err := m.bus.UnlockDevice(m.slave); err != nil {
		return fmt.Errorf("meter: set date_time: %w", err)
	}
	if err := m.bus.WriteMultipleRegisters(m.slave, DateTime.Address, dt.Bytes()); err != nil {
		return fmt.Errorf("meter: set date_time: %w", err)
	}
	return nil
}
