// internal/meter/meter_test.go
package meter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/meter/sim"
)

// simBus routes requests straight into a simulated device.
type simBus struct {
	dev *sim.Device
}

func (b simBus) ReadHoldingRegisters(slave byte, addr, count uint16) ([]byte, error) {
	return b.roundTrip(frame.BuildReadRequest(slave, addr, count), frame.Request{
		SlaveID: slave, Function: frame.ReadHoldingRegisters, Address: addr, Count: count,
	})
}

func (b simBus) WriteMultipleRegisters(slave byte, addr uint16, payload []byte) error {
	f, err := frame.BuildWriteRequest(slave, addr, payload)
	if err != nil {
		return err
	}
	_, err = b.roundTrip(f, frame.Request{
		SlaveID: slave, Function: frame.WriteMultipleRegisters, Address: addr, Count: uint16(len(payload) / 2),
	})
	return err
}

func (b simBus) UnlockDevice(slave byte) error {
	return b.WriteMultipleRegisters(slave, 2008, []byte{'1', '0', '0', '0', 0, 0})
}

func (b simBus) roundTrip(f frame.Frame, req frame.Request) ([]byte, error) {
	resp := b.dev.Handle(f)
	if resp == nil {
		return nil, errors.New("no answer")
	}
	return frame.ParseResponse(req, resp)
}

func newTestMeter() (*Meter, *sim.Device) {
	dev := sim.New(1)
	return New(simBus{dev: dev}, 1), dev
}

func TestFloatRegisters(t *testing.T) {
	m, dev := newTestMeter()
	dev.SetFloat(FlowRate.Address, 1.0)
	dev.SetFloat(TransmitterTemp.Address, 23.5)

	f, err := m.Float(FlowRate)
	require.NoError(t, err)
	require.Equal(t, float32(1.0), f)

	f, err = m.Float(TransmitterTemp)
	require.NoError(t, err)
	require.Equal(t, float32(23.5), f)
}

func TestKindMismatch(t *testing.T) {
	m, _ := newTestMeter()

	_, err := m.Float(FaultStatus)
	require.ErrorIs(t, err, ErrKind)
}

func TestTotalizer(t *testing.T) {
	m, dev := newTestMeter()
	dev.SetInt32(Totalizer1.Address, 123456)
	dev.SetInt32(Totalizer1.Address+2, 42)

	tot, err := m.Totalizer(Totalizer1)
	require.NoError(t, err)
	require.Equal(t, Total{Integer: 123456, Fraction: 42}, tot)

	i, err := m.Int(Totalizer1)
	require.NoError(t, err)
	require.Equal(t, int32(123456), i)
}

func TestByteWideRegisters(t *testing.T) {
	m, dev := newTestMeter()
	dev.SetRegister(Battery.Address, 0x0057)
	dev.SetRegister(PowerStatus.Address, 0xAB01)

	v, err := m.Uint(Battery)
	require.NoError(t, err)
	require.Equal(t, uint16(87), v)

	v, err = m.Uint(PowerStatus)
	require.NoError(t, err)
	require.Equal(t, uint16(1), v)
}

func TestStringsAndDates(t *testing.T) {
	m, dev := newTestMeter()
	dev.SetString(FlowRateUnits.Address, "l/s", 6)
	dev.SetDateTime(CalibrationDate.Address, frame.DateTime6{Year: 0x07, Month: 0x11, Day: 0x30, Hour: 0x14, Minute: 0x05, Second: 0x00})

	s, err := m.Text(FlowRateUnits)
	require.NoError(t, err)
	require.Equal(t, "l/s", s)

	d, err := m.Date(CalibrationDate)
	require.NoError(t, err)
	require.Equal(t, "2007-11-30T14:05:00", d.String())
}

func TestBaudRateAndRunning(t *testing.T) {
	m, dev := newTestMeter()
	dev.SetRegister(BaudRateCode.Address, 4)
	dev.SetRegister(RunningState.Address, StateRunning)

	bps, err := m.BaudRate()
	require.NoError(t, err)
	require.Equal(t, 19200, bps)

	running, err := m.Running()
	require.NoError(t, err)
	require.True(t, running)

	dev.SetRegister(BaudRateCode.Address, 9)
	_, err = m.BaudRate()
	require.Error(t, err)
}

func TestSetDateTimeUnlocksFirst(t *testing.T) {
	m, dev := newTestMeter()
	dev.Protect(DateTime.Address, 3)

	dt := frame.DateTime6{Year: 0x09, Month: 0x03, Day: 0x15, Hour: 0x08, Minute: 0x30, Second: 0x00}
	require.NoError(t, m.SetDateTime(dt))

	got, err := m.Date(DateTime)
	require.NoError(t, err)
	require.Equal(t, dt, got)
}

