// internal/poller/poller.go

// Package poller runs sampling cycles: it reads the meter, timestamps the
// reading from the clock and appends the record to the log.
package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/meter"
	"github.com/tamzrod/flowlogger/internal/metrics"
	"github.com/tamzrod/flowlogger/internal/sample"
)

// ErrStore marks a record that could not be appended to the log.
var ErrStore = errors.New("poller: store failed")

// Instrument abstracts the meter reads the sampler needs.
// *meter.Meter satisfies it.
type Instrument interface {
	Date(r meter.Register) (frame.DateTime6, error)
	Float(r meter.Register) (float32, error)
	Uint(r meter.Register) (uint16, error)
	Totalizer(r meter.Register) (meter.Total, error)
}

// Clock timestamps a record. *clock.Keeper satisfies it.
type Clock interface {
	ReadRetry() (clock.Snapshot, error)
}

// Sink receives finished records. logstore.Store satisfies it.
type Sink interface {
	Append(r sample.Record) error
}

// Config is the minimal runtime config the sampler needs.
type Config struct {
	// FlowSamples is how many flow rate reads are averaged.
	FlowSamples int
}

// Sampler performs sampling cycles. It is not safe for concurrent use;
// the scheduler is its only caller.
type Sampler struct {
	cfg     Config
	inst    Instrument
	clock   Clock
	sink    Sink
	log     zerolog.Logger
	metrics *metrics.Metrics

	now func() time.Time
}

// New creates a sampler with immutable config.
func New(cfg Config, inst Instrument, clk Clock, sink Sink, log zerolog.Logger, m *metrics.Metrics) (*Sampler, error) {
	if cfg.FlowSamples <= 0 {
		return nil, errors.New("poller: flow samples must be > 0")
	}
	if inst == nil {
		return nil, errors.New("poller: instrument required")
	}
	if clk == nil {
		return nil, errors.New("poller: clock required")
	}
	if sink == nil {
		return nil, errors.New("poller: sink required")
	}
	return &Sampler{
		cfg:     cfg,
		inst:    inst,
		clock:   clk,
		sink:    sink,
		log:     log,
		metrics: m,
		now:     time.Now,
	}, nil
}

// SampleOnce performs exactly one sampling cycle.
// Best-effort: a failed field is marked missing and the cycle goes on.
// The record is appended unless the timestamp itself is missing.
func (s *Sampler) SampleOnce() Result {
	var (
		rec  sample.Record
		errs []error
	)

	miss := func(f sample.Field, err error) {
		rec.Missing |= f
		errs = append(errs, err)
	}

	// The first request after an idle period is often lost on this meter;
	// a throwaway date read wakes the interface.
	if _, err := s.inst.Date(meter.DateTime); err != nil {
		s.log.Debug().Err(err).Msg("priming read failed")
	}

	if avg, err := s.averageFlow(); err != nil {
		miss(sample.FieldAverageFlow, err)
	} else {
		rec.AverageFlow = avg
	}

	if tot, err := s.inst.Totalizer(meter.Totalizer1); err != nil {
		miss(sample.FieldTotalizer, err)
	} else {
		rec.Totalizer = tot.Integer
	}

	if v, err := s.inst.Float(meter.TransmitterTemp); err != nil {
		miss(sample.FieldTransmitterTemp, err)
	} else {
		rec.TransmitterTemp = v
	}

	if v, err := s.inst.Uint(meter.Battery); err != nil {
		miss(sample.FieldBattery, err)
	} else {
		rec.BatteryPercent = uint8(v)
	}

	if v, err := s.inst.Uint(meter.PowerStatus); err != nil {
		miss(sample.FieldPowerStatus, err)
	} else {
		rec.PowerStatus = uint8(v)
	}

	if v, err := s.inst.Uint(meter.FaultStatus); err != nil {
		miss(sample.FieldFaultStatus, err)
	} else {
		rec.FaultStatus = v
	}

	if ts, err := s.clock.ReadRetry(); err != nil {
		miss(sample.FieldTimestamp, err)
	} else {
		rec.Timestamp = ts
	}

	rec.TakenAt = s.now()
	res := Result{At: rec.TakenAt, Record: rec}

	// A line without a time cannot be placed in the log.
	if rec.Missing.Has(sample.FieldTimestamp) {
		res.Err = errors.Join(errs...)
		s.finish(res)
		return res
	}

	if err := s.sink.Append(rec); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrStore, err))
	} else {
		res.Stored = true
	}

	res.Err = errors.Join(errs...)
	s.finish(res)
	return res
}

func (s *Sampler) averageFlow() (float32, error) {
	var sum float32
	for i := 0; i < s.cfg.FlowSamples; i++ {
		v, err := s.inst.Float(meter.FlowRate)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float32(s.cfg.FlowSamples), nil
}

func (s *Sampler) finish(res Result) {
	outcome := res.Outcome()
	s.metrics.Sample(outcome)
	if res.Stored {
		s.metrics.LastSample(float64(res.At.Unix()), res.Record.AverageFlow)
	}

	ev := s.log.Info()
	if res.Err != nil {
		ev = s.log.Warn().Err(res.Err)
	}
	ev.Str("result", outcome).
		Str("missing", res.Record.Missing.String()).
		Str("line", res.Record.Line()).
		Msg("sample")
}
