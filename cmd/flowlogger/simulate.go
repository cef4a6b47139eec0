// cmd/flowlogger/simulate.go
package main

import (
	"time"

	"github.com/tamzrod/flowlogger/internal/bcd"
	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/meter"
	"github.com/tamzrod/flowlogger/internal/meter/sim"
)

// newSimulatedMeter returns a meter with every known register populated
// so each console command has something to show.
func newSimulatedMeter(slave byte, now time.Time) *sim.Device {
	d := sim.New(slave)

	stamp := func(t time.Time) frame.DateTime6 {
		return frame.DateTime6{
			Year:   bcd.FromBinary(byte(t.Year() % 100)),
			Month:  bcd.FromBinary(byte(t.Month())),
			Day:    bcd.FromBinary(byte(t.Day())),
			Hour:   bcd.FromBinary(byte(t.Hour())),
			Minute: bcd.FromBinary(byte(t.Minute())),
			Second: bcd.FromBinary(byte(t.Second())),
		}
	}

	d.SetFloat(meter.Velocity.Address, 0.82)
	d.SetFloat(meter.FlowRate.Address, 12.5)
	d.SetFloat(meter.Insulation.Address, 98.0)
	d.SetFloat(meter.SensorTemp.Address, 18.2)
	d.SetFloat(meter.FlowPercent.Address, 31.25)
	d.SetFloat(meter.TransmitterTemp.Address, 24.1)
	d.SetFloat(meter.NominalFlow.Address, 40)
	d.SetFloat(meter.CalibrationFactor.Address, 1.0021)
	d.SetFloat(meter.LowFlowCutoff.Address, 0.5)
	d.SetFloat(meter.HighestFlow.Address, 38.7)
	d.SetFloat(meter.LowestFlow.Address, 0.6)
	d.SetFloat(meter.HighestDayConsumption.Address, 811.4)

	d.SetInt32(meter.Totalizer1.Address, 104233)
	d.SetInt32(meter.Totalizer1.Address+2, 517)
	d.SetInt32(meter.Totalizer2.Address, 2210)
	d.SetInt32(meter.Totalizer2.Address+2, 0)

	d.SetDateTime(meter.DateTime.Address, stamp(now))
	d.SetDateTime(meter.CalibrationDate.Address, stamp(now.AddDate(-1, 0, 0)))
	d.SetDateTime(meter.HighestFlowDate.Address, stamp(now.AddDate(0, -2, 0)))
	d.SetDateTime(meter.LowestFlowDate.Address, stamp(now.AddDate(0, -1, 0)))
	d.SetDateTime(meter.HighestDayDate.Address, stamp(now.AddDate(0, 0, -9)))
	d.SetDateTime(meter.LastLogDate.Address, stamp(now.AddDate(0, 0, -1)))
	// meter date/time is only writable after an unlock
	d.Protect(meter.DateTime.Address, meter.DateTime.Count)

	d.SetString(meter.FlowRateUnits.Address, "m3/h", int(meter.FlowRateUnits.Count))
	d.SetString(meter.TotalFlowUnits.Address, "m3", int(meter.TotalFlowUnits.Count))

	d.SetInt32(meter.OperatingHours.Address, 8760)
	d.SetRegister(meter.ProductID.Address, 0x0509)
	d.SetRegister(meter.PowerUps.Address, 14)
	d.SetRegister(meter.ParityErrors.Address, 0)
	d.SetRegister(meter.BaudRateCode.Address, 3) // 9600
	d.SetRegister(meter.DeviceAddress.Address, uint16(slave))
	d.SetRegister(meter.RunningState.Address, meter.StateRunning)
	d.SetRegister(meter.FaultStatus.Address, 0)
	d.SetRegister(meter.Battery.Address, 92)
	d.SetRegister(meter.PowerStatus.Address, 1)
	d.SetRegister(meter.CommModule.Address, 2)

	return d
}
