// internal/sample/record_test.go
package sample

import (
	"testing"

	"github.com/tamzrod/flowlogger/internal/clock"
)

var ts = clock.Snapshot{Sec: 0x07, Min: 0x05, Hour: 0x05, Day: 0x01, Month: 0x03, Year: 0x09}

func TestLine(t *testing.T) {
	r := Record{
		Timestamp:       ts,
		AverageFlow:     1.0,
		Totalizer:       123456,
		TransmitterTemp: 23.456,
		BatteryPercent:  87,
		PowerStatus:     1,
		FaultStatus:     8,
	}

	got := r.Line()
	want := "2009-03-01T05:05:07,1.000,123456,23.46, 87,1,10"
	if got != want {
		t.Fatalf("line mismatch:\n got=%q\nwant=%q", got, want)
	}
	if !r.Complete() {
		t.Fatalf("record should be complete")
	}
}

func TestLineLeavesMissingFieldsEmpty(t *testing.T) {
	r := Record{
		Timestamp:   ts,
		AverageFlow: 2.5,
		Missing:     FieldTotalizer | FieldBattery,
	}

	got := r.Line()
	want := "2009-03-01T05:05:07,2.500,,0.00,,0, 0"
	if got != want {
		t.Fatalf("line mismatch:\n got=%q\nwant=%q", got, want)
	}
	if r.Complete() {
		t.Fatalf("record with missing fields reported complete")
	}
}

func TestFieldString(t *testing.T) {
	f := FieldTotalizer | FieldFaultStatus
	if f.String() != "totalizer,fault_status" {
		t.Fatalf("got=%q", f.String())
	}
	if !f.Has(FieldTotalizer) || f.Has(FieldBattery) {
		t.Fatalf("Has mismatch for %v", f)
	}
}
