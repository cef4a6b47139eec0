// cmd/flowlogger/identity.go
package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/meter"
)

// meterIdentity is what the logger reports about the meter at startup.
type meterIdentity struct {
	ProductID     uint16
	DeviceAddress uint16
	BaudRate      int
	Running       bool
	ParityErrors  uint16
	Totalizer2    meter.Total
	Insulation    float32
	SensorTemp    float32
}

// readIdentity reads every identity field it can. Fields that fail keep
// their zero value and their errors are joined.
func readIdentity(mt *meter.Meter) (meterIdentity, error) {
	var id meterIdentity
	var errs []error
	note := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	var err error
	id.ProductID, err = mt.Uint(meter.ProductID)
	note("product_id", err)
	id.DeviceAddress, err = mt.Uint(meter.DeviceAddress)
	note("device_address", err)
	id.BaudRate, err = mt.BaudRate()
	note("baud_rate", err)
	id.Running, err = mt.Running()
	note("running", err)
	id.ParityErrors, err = mt.Uint(meter.ParityErrors)
	note("parity_errors", err)
	id.Totalizer2, err = mt.Totalizer(meter.Totalizer2)
	note("totalizer2", err)
	id.Insulation, err = mt.Float(meter.Insulation)
	note("insulation", err)
	id.SensorTemp, err = mt.Float(meter.SensorTemp)
	note("sensor_temp", err)

	return id, errors.Join(errs...)
}

func logIdentity(log zerolog.Logger, mt *meter.Meter) {
	id, err := readIdentity(mt)

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Uint8("slave_id", mt.Slave()).
		Uint16("product_id", id.ProductID).
		Uint16("device_address", id.DeviceAddress).
		Int("baud_rate", id.BaudRate).
		Bool("running", id.Running).
		Uint16("parity_errors", id.ParityErrors).
		Int32("totalizer2", id.Totalizer2.Integer).
		Float32("insulation", id.Insulation).
		Float32("sensor_temp", id.SensorTemp).
		Msg("meter identity")
}
