// internal/scheduler/scheduler.go

// Package scheduler multiplexes timed sampling against the interactive
// console. Exactly one mode is active; everything runs on the caller's
// goroutine.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/metrics"
	"github.com/tamzrod/flowlogger/internal/poller"
)

// Mode is the scheduler state.
type Mode int32

const (
	Idle Mode = iota
	Sampling
	Interactive
)

func (m Mode) String() string {
	switch m {
	case Sampling:
		return "sampling"
	case Interactive:
		return "interactive"
	}
	return "idle"
}

var modeNames = []string{Idle.String(), Sampling.String(), Interactive.String()}

// Sampler runs one sampling cycle. *poller.Sampler satisfies it.
type Sampler interface {
	SampleOnce() poller.Result
}

// Session runs one interactive console session to completion.
type Session interface {
	Run(ctx context.Context) error
}

// Config wires a Scheduler.
type Config struct {
	Events  *Events
	Sampler Sampler
	Session Session

	// OnResult, if set, receives every sampling result.
	OnResult func(poller.Result)

	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// Scheduler is the top-level loop.
type Scheduler struct {
	cfg  Config
	mode atomic.Int32
}

func New(cfg Config) (*Scheduler, error) {
	if cfg.Events == nil {
		return nil, errors.New("scheduler: events required")
	}
	if cfg.Sampler == nil {
		return nil, errors.New("scheduler: sampler required")
	}
	if cfg.Session == nil {
		return nil, errors.New("scheduler: session required")
	}
	s := &Scheduler{cfg: cfg}
	s.cfg.Metrics.Mode(Idle.String(), modeNames...)
	return s, nil
}

// Mode returns the current mode. Safe from any goroutine.
func (s *Scheduler) Mode() Mode { return Mode(s.mode.Load()) }

func (s *Scheduler) enter(m Mode) {
	s.mode.Store(int32(m))
	s.cfg.Metrics.Mode(m.String(), modeNames...)
	s.cfg.Log.Debug().Str("mode", m.String()).Msg("mode")
}

// Step handles at most one pending event and returns the mode it ran,
// or Idle when nothing was pending. A console byte wins over the alarm.
func (s *Scheduler) Step(ctx context.Context) Mode {
	if s.cfg.Events.takeByte() {
		s.interactive(ctx)
		return Interactive
	}
	if s.cfg.Events.takeAlarm() {
		s.sample()
		return Sampling
	}
	return Idle
}

func (s *Scheduler) interactive(ctx context.Context) {
	s.enter(Interactive)
	s.cfg.Metrics.Session()

	if err := s.cfg.Session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.cfg.Log.Warn().Err(err).Msg("console session ended")
	}

	// Events raised while the session held the meter are dropped: the
	// typed bytes belonged to the session and a missed alarm is not
	// made up.
	if s.cfg.Events.takeAlarm() {
		s.cfg.Log.Info().Msg("alarm during console session discarded")
	}
	s.cfg.Events.takeByte()

	s.enter(Idle)
}

func (s *Scheduler) sample() {
	s.enter(Sampling)
	res := s.cfg.Sampler.SampleOnce()
	if s.cfg.OnResult != nil {
		s.cfg.OnResult(res)
	}
	s.enter(Idle)
}

// Run loops until ctx ends, parking while no event is pending.
// sampleOnStart takes one sample before the first wait.
func (s *Scheduler) Run(ctx context.Context, sampleOnStart bool) error {
	if sampleOnStart {
		s.sample()
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.Step(ctx) != Idle {
			continue
		}
		if err := s.cfg.Events.Wait(ctx); err != nil {
			return err
		}
	}
}
