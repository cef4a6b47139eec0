// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/link"
	"github.com/tamzrod/flowlogger/internal/logstore"
	"github.com/tamzrod/flowlogger/internal/meter"
	"github.com/tamzrod/flowlogger/internal/meter/sim"
	"github.com/tamzrod/flowlogger/internal/poller/modbus"
	"github.com/tamzrod/flowlogger/internal/sample"
)

type fakeInstrument struct {
	fail  string // register name that fails
	flows []float32
	reads []string
}

func (f *fakeInstrument) check(r meter.Register) error {
	f.reads = append(f.reads, r.Name)
	if r.Name == f.fail {
		return errors.New("fail " + r.Name)
	}
	return nil
}

func (f *fakeInstrument) Date(r meter.Register) (frame.DateTime6, error) {
	return frame.DateTime6{}, f.check(r)
}

func (f *fakeInstrument) Float(r meter.Register) (float32, error) {
	if err := f.check(r); err != nil {
		return 0, err
	}
	if r.Name == meter.FlowRate.Name && len(f.flows) > 0 {
		v := f.flows[0]
		f.flows = f.flows[1:]
		return v, nil
	}
	return 21.5, nil
}

func (f *fakeInstrument) Uint(r meter.Register) (uint16, error) {
	if err := f.check(r); err != nil {
		return 0, err
	}
	switch r.Name {
	case meter.Battery.Name:
		return 90, nil
	case meter.PowerStatus.Name:
		return 1, nil
	}
	return 8, nil
}

func (f *fakeInstrument) Totalizer(r meter.Register) (meter.Total, error) {
	if err := f.check(r); err != nil {
		return meter.Total{}, err
	}
	return meter.Total{Integer: 1234, Fraction: 56}, nil
}

type fakeClock struct {
	err error
}

var stamp = clock.Snapshot{Sec: 0x00, Min: 0x00, Hour: 0x05, Day: 0x01, Month: 0x03, Year: 0x09, Weekday: 0}

func (c fakeClock) ReadRetry() (clock.Snapshot, error) {
	if c.err != nil {
		return clock.Snapshot{}, c.err
	}
	return stamp, nil
}

type fakeSink struct {
	recs []sample.Record
	err  error
}

func (s *fakeSink) Append(r sample.Record) error {
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, r)
	return nil
}

func newSampler(t *testing.T, inst Instrument, clk Clock, sink Sink) *Sampler {
	t.Helper()
	s, err := New(Config{FlowSamples: 4}, inst, clk, sink, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return s
}

func TestNew_Validates(t *testing.T) {
	if _, err := New(Config{}, &fakeInstrument{}, fakeClock{}, &fakeSink{}, zerolog.Nop(), nil); err == nil {
		t.Fatalf("expected error for zero flow samples")
	}
	if _, err := New(Config{FlowSamples: 1}, nil, fakeClock{}, &fakeSink{}, zerolog.Nop(), nil); err == nil {
		t.Fatalf("expected error for nil instrument")
	}
}

func TestSampleOnce_Success(t *testing.T) {
	inst := &fakeInstrument{flows: []float32{1, 2, 3, 4}}
	sink := &fakeSink{}
	s := newSampler(t, inst, fakeClock{}, sink)

	res := s.SampleOnce()
	if res.Err != nil {
		t.Fatalf("SampleOnce err=%v", res.Err)
	}
	if !res.Stored || res.Outcome() != "ok" {
		t.Fatalf("expected stored ok result, got %+v", res)
	}
	if len(sink.recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.recs))
	}

	want := "2009-03-01T05:00:00,2.500,1234,21.50, 90,1,10"
	if got := sink.recs[0].Line(); got != want {
		t.Fatalf("line:\n got=%q\nwant=%q", got, want)
	}

	order := strings.Join(inst.reads, " ")
	wantOrder := "date_time flow_rate flow_rate flow_rate flow_rate totalizer1 transmitter_temp battery power_status fault_status"
	if order != wantOrder {
		t.Fatalf("read order:\n got=%s\nwant=%s", order, wantOrder)
	}
}

func TestSampleOnce_PrimingFailureIgnored(t *testing.T) {
	sink := &fakeSink{}
	s := newSampler(t, &fakeInstrument{fail: "date_time"}, fakeClock{}, sink)

	res := s.SampleOnce()
	if res.Err != nil {
		t.Fatalf("SampleOnce err=%v", res.Err)
	}
	if len(sink.recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.recs))
	}
}

func TestSampleOnce_FieldFailureIsBestEffort(t *testing.T) {
	sink := &fakeSink{}
	s := newSampler(t, &fakeInstrument{fail: "totalizer1"}, fakeClock{}, sink)

	res := s.SampleOnce()
	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !res.Stored || res.Outcome() != "partial" {
		t.Fatalf("expected stored partial result, got %+v", res)
	}
	if !res.Record.Missing.Has(sample.FieldTotalizer) || res.Record.Missing.Has(sample.FieldBattery) {
		t.Fatalf("missing=%v", res.Record.Missing)
	}
	if got := sink.recs[0].Line(); !strings.Contains(got, ",,21.50,") {
		t.Fatalf("totalizer column should be empty: %q", got)
	}
}

func TestSampleOnce_NoTimestampNotStored(t *testing.T) {
	sink := &fakeSink{}
	s := newSampler(t, &fakeInstrument{}, fakeClock{err: clock.ErrTornRead}, sink)

	res := s.SampleOnce()
	if !errors.Is(res.Err, clock.ErrTornRead) {
		t.Fatalf("expected torn read, got %v", res.Err)
	}
	if res.Stored || len(sink.recs) != 0 {
		t.Fatalf("record without timestamp must not be stored")
	}
}

func TestSampleOnce_StoreFailure(t *testing.T) {
	s := newSampler(t, &fakeInstrument{}, fakeClock{}, &fakeSink{err: errors.New("disk full")})

	res := s.SampleOnce()
	if res.Err == nil || res.Stored || res.Outcome() != "failed" {
		t.Fatalf("expected failed result, got %+v", res)
	}
}

func TestTake(t *testing.T) {
	sink := &fakeSink{}
	s := newSampler(t, &fakeInstrument{}, fakeClock{}, sink)

	dots := 0
	res := s.Take(context.Background(), 3, func(Result) { dots++ })
	if len(res) != 3 || dots != 3 || len(sink.recs) != 3 {
		t.Fatalf("results=%d dots=%d stored=%d", len(res), dots, len(sink.recs))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := s.Take(ctx, 3, nil); len(res) != 0 {
		t.Fatalf("cancelled Take ran %d cycles", len(res))
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	out := make(chan Result, 1)
	pub := Publish(out)
	pub(Result{})
	pub(Result{})
	if len(out) != 1 {
		t.Fatalf("expected 1 queued result, got %d", len(out))
	}
}

// End to end: RTU client over an in-memory link to a simulated meter,
// soft clock, CSV log file.
func TestSampleOnce_EndToEnd(t *testing.T) {
	dev := sim.New(1)
	dev.SetFloat(meter.FlowRate.Address, 1.0)
	dev.SetInt32(meter.Totalizer1.Address, 123456)
	dev.SetInt32(meter.Totalizer1.Address+2, 7)
	dev.SetFloat(meter.TransmitterTemp.Address, 23.456)
	dev.SetRegister(meter.Battery.Address, 0x0057)
	dev.SetRegister(meter.PowerStatus.Address, 0x0001)
	dev.SetRegister(meter.FaultStatus.Address, 0x0008)
	dev.SetDateTime(meter.DateTime.Address, frame.DateTime6{Year: 0x09, Month: 0x03, Day: 0x01, Hour: 0x05})

	port := &link.Memory{Respond: dev.Handle}
	client, err := modbus.New(port, modbus.Config{ResponsePolls: 5, BytePolls: 5}, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("modbus.New err=%v", err)
	}

	host := time.Date(2009, 3, 1, 5, 5, 7, 0, time.UTC)
	rtc := clock.NewSoftRTC(func() time.Time { return host })
	keeper := clock.NewKeeper(rtc, clock.KeeperConfig{TornReadRetries: 1}, zerolog.Nop(), nil)

	path := filepath.Join(t.TempDir(), "DATALOG.TXT")
	store, err := logstore.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{FlowSamples: 4}, meter.New(client, 1), keeper, store, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := s.SampleOnce()
	if res.Err != nil {
		t.Fatalf("SampleOnce err=%v", res.Err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := sample.Header + "\n" + "2009-03-01T05:05:07,1.000,123456,23.46, 87,1,10\n"
	if string(b) != want {
		t.Fatalf("log file:\n got=%q\nwant=%q", b, want)
	}

	// priming + 4 flow + totalizer + temp + battery + power + fault
	if n := dev.Requests(); n != 10 {
		t.Fatalf("expected 10 meter requests, got %d", n)
	}
}
