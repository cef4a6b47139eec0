// internal/console/session.go

// Package console is the interactive operator session: a blocking
// command loop over the console terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/meter"
	"github.com/tamzrod/flowlogger/internal/poller"
)

const (
	Prompt        = "TLR>"
	WakeBanner    = "Waking up, please wait for TLR> prompt ...\r"
	WelcomeBanner = "Welcome! All normal processing is halted until 'resume' is entered\r"
	ResumeMessage = "Exited terminal and resuming normal operation.\r"
)

// Instrument is the meter access the commands need. *meter.Meter
// satisfies it.
type Instrument interface {
	Float(r meter.Register) (float32, error)
	Uint(r meter.Register) (uint16, error)
	Text(r meter.Register) (string, error)
	Date(r meter.Register) (frame.DateTime6, error)
	Totalizer(r meter.Register) (meter.Total, error)
	OperatingHours() (uint32, error)
	SetDateTime(dt frame.DateTime6) error
}

// Clock is the logger clock. *clock.Keeper satisfies it.
type Clock interface {
	Grab() (clock.Snapshot, error)
	SetSeconds(t clock.Target, v int) bool
	SetMinutes(t clock.Target, v int) bool
	SetHours(t clock.Target, v int) bool
	SetDay(t clock.Target, v int) bool
	SetMonth(t clock.Target, v int) bool
	SetYear(t clock.Target, v int) bool
	Commit() error
	ArmAlarm(m clock.RepeatMask) error
}

// Sampler takes samples on request. *poller.Sampler satisfies it.
type Sampler interface {
	Take(ctx context.Context, n int, each func(poller.Result)) []poller.Result
}

// Log is the sample log. logstore.Store satisfies it.
type Log interface {
	Dump(w io.Writer) error
	Reset() error
}

// Config wires a Session.
type Config struct {
	Terminal   Terminal
	IdlePolls  int
	Instrument Instrument
	Clock      Clock
	Sampler    Sampler
	Log        Log

	// OnInterval, if set, is told about a new sampling interval.
	OnInterval func(letter byte, m clock.RepeatMask)

	Logger zerolog.Logger
}

// Session is the operator console. Run may be called once per wake-up.
type Session struct {
	cfg    Config
	reader *LineReader
	log    zerolog.Logger

	// cancelled is set when a prompt answer held the cancel byte.
	cancelled bool
}

func New(cfg Config) (*Session, error) {
	switch {
	case cfg.Terminal == nil:
		return nil, errors.New("console: terminal required")
	case cfg.Instrument == nil:
		return nil, errors.New("console: instrument required")
	case cfg.Clock == nil:
		return nil, errors.New("console: clock required")
	case cfg.Sampler == nil:
		return nil, errors.New("console: sampler required")
	case cfg.Log == nil:
		return nil, errors.New("console: log required")
	}
	return &Session{
		cfg:    cfg,
		reader: NewLineReader(cfg.Terminal, cfg.IdlePolls),
		log:    cfg.Logger,
	}, nil
}

type drainer interface {
	Drain()
}

// Run serves commands until resume, a cancel byte or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	s.log = s.cfg.Logger.With().Str("session", uuid.NewString()).Logger()
	s.log.Info().Msg("console session started")
	s.cancelled = false

	// the byte that woke us is not a command
	if d, ok := s.cfg.Terminal.(drainer); ok {
		d.Drain()
	}

	s.puts("\r")
	s.puts(WakeBanner)
	s.puts("\r")
	s.puts(WelcomeBanner)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.puts(Prompt)
		line := s.reader.ReadLine()

		if strings.IndexByte(line, Cancel) >= 0 {
			s.log.Info().Msg("console session cancelled")
			return nil
		}
		if strings.HasPrefix(line, "resume") {
			s.puts(ResumeMessage)
			s.log.Info().Msg("console session resumed")
			return nil
		}
		if line == "" {
			continue
		}

		cmd, ok := lookup(line)
		if !ok {
			s.puts(fmt.Sprintf("Sorry, didn't understand %s \r", line))
			continue
		}

		s.log.Debug().Str("command", cmd.code).Msg("console command")
		out := cmd.run(ctx, s)
		if s.cancelled {
			s.log.Info().Str("command", cmd.code).Msg("console session cancelled")
			return nil
		}
		if out != "" {
			s.puts(out)
		}
	}
}

func (s *Session) puts(str string) {
	if _, err := io.WriteString(s.cfg.Terminal, str); err != nil {
		s.log.Debug().Err(err).Msg("console write failed")
	}
}

// ask prints a prompt and reads the answer line. A cancelled answer
// marks the session cancelled and reads as "".
func (s *Session) ask(prompt string) (string, bool) {
	s.puts(prompt)
	line := s.reader.ReadLine()
	if strings.IndexByte(line, Cancel) >= 0 {
		s.cancelled = true
		return "", false
	}
	return line, true
}
