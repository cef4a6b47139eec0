// internal/sample/record.go

// Package sample defines the logged sample record and its CSV line.
package sample

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/flowlogger/internal/clock"
)

// Header is the first line of a freshly reset log.
const Header = "Timestamp,Avg Flow Rate(l/s),Flow Total(lx100),Transmitter Temp(Deg C),Battery Cap(%),Power Status,Fault Code"

// Field marks one record field.
type Field uint8

const (
	FieldTimestamp Field = 1 << iota
	FieldAverageFlow
	FieldTotalizer
	FieldTransmitterTemp
	FieldBattery
	FieldPowerStatus
	FieldFaultStatus
)

var fieldNames = []struct {
	f    Field
	name string
}{
	{FieldTimestamp, "timestamp"},
	{FieldAverageFlow, "average_flow"},
	{FieldTotalizer, "totalizer"},
	{FieldTransmitterTemp, "transmitter_temp"},
	{FieldBattery, "battery"},
	{FieldPowerStatus, "power_status"},
	{FieldFaultStatus, "fault_status"},
}

// Has reports whether every field of g is set in f.
func (f Field) Has(g Field) bool { return f&g == g }

func (f Field) String() string {
	var names []string
	for _, fn := range fieldNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// Record is one logged sample. Fields whose read failed are set in
// Missing and carry no value.
type Record struct {
	Timestamp       clock.Snapshot
	AverageFlow     float32
	Totalizer       int32
	TransmitterTemp float32
	BatteryPercent  uint8
	PowerStatus     uint8
	FaultStatus     uint16

	Missing Field

	// TakenAt is the host time the cycle finished. Not part of the line.
	TakenAt time.Time
}

// Complete reports whether every field was read.
func (r Record) Complete() bool { return r.Missing == 0 }

// Line renders the record without its newline:
// 20YY-MM-DDTHH:MM:SS,%3.3f,%d,%2.2f,%3d,%1d,%2o
// A missing field leaves its column empty.
func (r Record) Line() string {
	var b strings.Builder

	if !r.Missing.Has(FieldTimestamp) {
		b.WriteString(r.Timestamp.String())
	}
	b.WriteByte(',')
	if !r.Missing.Has(FieldAverageFlow) {
		fmt.Fprintf(&b, "%3.3f", r.AverageFlow)
	}
	b.WriteByte(',')
	if !r.Missing.Has(FieldTotalizer) {
		b.WriteString(strconv.FormatInt(int64(r.Totalizer), 10))
	}
	b.WriteByte(',')
	if !r.Missing.Has(FieldTransmitterTemp) {
		fmt.Fprintf(&b, "%2.2f", r.TransmitterTemp)
	}
	b.WriteByte(',')
	if !r.Missing.Has(FieldBattery) {
		fmt.Fprintf(&b, "%3d", r.BatteryPercent)
	}
	b.WriteByte(',')
	if !r.Missing.Has(FieldPowerStatus) {
		fmt.Fprintf(&b, "%1d", r.PowerStatus)
	}
	b.WriteByte(',')
	if !r.Missing.Has(FieldFaultStatus) {
		fmt.Fprintf(&b, "%2o", r.FaultStatus)
	}
	return b.String()
}
