// internal/status/status_test.go
package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/poller"
	"github.com/tamzrod/flowlogger/internal/poller/modbus"
	"github.com/tamzrod/flowlogger/internal/sample"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want uint16
	}{
		{"nil", nil, CodeNone},
		{"generic", errors.New("boom"), CodeGeneric},
		{"timeout", fmt.Errorf("flow_rate: %w", modbus.ErrTimeout), CodeTimeout},
		{"checksum", fmt.Errorf("battery: %w", frame.ErrChecksumMismatch), CodeChecksum},
		{"torn", &clock.TornReadError{}, CodeTornRead},
		{"store", fmt.Errorf("%w: %w", poller.ErrStore, errors.New("disk full")), CodeStore},
		{"exception", fmt.Errorf("read: %w", frame.ExIllegalAddress), 0x82},
		{"joined", errors.Join(errors.New("first"), modbus.ErrTimeout), CodeTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf(%v)=%d want=%d", tc.err, got, tc.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	var s Snapshot

	s.Apply(poller.Result{Err: modbus.ErrTimeout, Record: sample.Record{Missing: sample.FieldTimestamp}})
	s.Apply(poller.Result{Err: modbus.ErrTimeout, Record: sample.Record{Missing: sample.FieldTimestamp}})
	if s.Health != HealthError || s.FailedSamples != 2 || s.LastErrorCode != CodeTimeout {
		t.Fatalf("after failures: %+v", s)
	}

	s.Apply(poller.Result{Stored: true, Err: modbus.ErrTimeout, Record: sample.Record{Missing: sample.FieldBattery}})
	if s.Health != HealthPartial || s.FailedSamples != 0 || s.SamplesStored != 1 {
		t.Fatalf("after partial: %+v", s)
	}
	if s.MissingFields != uint16(sample.FieldBattery) {
		t.Fatalf("missing=%x", s.MissingFields)
	}

	s.Apply(poller.Result{Stored: true})
	if s.Health != HealthOK || s.LastErrorCode != CodeNone || s.SamplesStored != 2 || s.MissingFields != 0 {
		t.Fatalf("after ok: %+v", s)
	}
}

func TestFailedSamplesSaturates(t *testing.T) {
	s := Snapshot{FailedSamples: 65535}
	s.Apply(poller.Result{Err: errors.New("x")})
	if s.FailedSamples != 65535 {
		t.Fatalf("failed samples wrapped: %d", s.FailedSamples)
	}
}

func TestEncodeRecord(t *testing.T) {
	r := sample.Record{
		Timestamp:       clock.Snapshot{Sec: 0x07, Min: 0x05, Hour: 0x05, Day: 0x01, Month: 0x03, Year: 0x09},
		AverageFlow:     1.0,
		Totalizer:       0x00012345,
		TransmitterTemp: -2.0,
		BatteryPercent:  87,
		PowerStatus:     1,
		FaultStatus:     8,
	}

	want := []uint16{
		0x0903, 0x0105, 0x0507,
		0x3F80, 0x0000,
		0x0001, 0x2345,
		0xC000, 0x0000,
		87, 1, 8,
	}
	got := EncodeRecord(r)
	if len(got) != RecordRegisters {
		t.Fatalf("len=%d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reg %d: got=%04x want=%04x", i, got[i], want[i])
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	regs := Encode(Snapshot{Health: HealthPartial, Mode: 2, Interval: 6, MissingFields: 0x10})
	if len(regs) != SlotsPerDevice {
		t.Fatalf("len=%d", len(regs))
	}
	if regs[SlotHealthCode] != HealthPartial || regs[SlotMode] != 2 || regs[SlotInterval] != 6 || regs[SlotMissingFields] != 0x10 {
		t.Fatalf("regs=%v", regs)
	}
	for i := SlotReservedStart; i < SlotsPerDevice; i++ {
		if regs[i] != 0 {
			t.Fatalf("slot %d not zero: %d", i, regs[i])
		}
	}
}
