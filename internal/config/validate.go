// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/clock"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	l := cfg.Logger

	// ------------------------------------------------------------
	// INSTRUMENT LINE
	// ------------------------------------------------------------

	in := l.Instrument
	if in.Device == "" && !in.Simulate {
		return fmt.Errorf("logger.instrument.device: required unless simulate is set")
	}
	if err := validateFraming("logger.instrument", in.DataBits, in.StopBits, in.Parity); err != nil {
		return err
	}
	if in.BaudRate <= 0 {
		return fmt.Errorf("logger.instrument.baud_rate: must be > 0")
	}
	if in.SlaveID == 0 || in.SlaveID > 247 {
		return fmt.Errorf("logger.instrument.slave_id: %d out of range 1-247", in.SlaveID)
	}
	if in.ResponsePolls <= 0 {
		return fmt.Errorf("logger.instrument.response_polls: must be > 0")
	}
	if in.BytePolls <= 0 {
		return fmt.Errorf("logger.instrument.byte_polls: must be > 0")
	}
	if in.PollWaitMs < 0 {
		return fmt.Errorf("logger.instrument.poll_wait_ms: must be >= 0")
	}

	// ------------------------------------------------------------
	// CONSOLE
	// ------------------------------------------------------------

	if l.Console.BaudRate <= 0 {
		return fmt.Errorf("logger.console.baud_rate: must be > 0")
	}
	if l.Console.IdlePolls <= 0 {
		return fmt.Errorf("logger.console.idle_polls: must be > 0")
	}
	if l.Console.PollWaitMs < 0 {
		return fmt.Errorf("logger.console.poll_wait_ms: must be >= 0")
	}

	// ------------------------------------------------------------
	// CLOCK / SAMPLING
	// ------------------------------------------------------------

	if l.Clock.TornReadRetries < 0 {
		return fmt.Errorf("logger.clock.torn_read_retries: must be >= 0")
	}
	if h := l.Clock.AlarmHour; h != nil && (*h < 0 || *h > 23) {
		return fmt.Errorf("logger.clock.alarm_hour: %d out of range 0-23", *h)
	}
	if len(l.Sampling.Interval) != 1 {
		return fmt.Errorf("logger.sampling.interval: %q must be one of A, B, C, D", l.Sampling.Interval)
	}
	if _, ok := clock.IntervalMask(l.Sampling.Interval[0]); !ok {
		return fmt.Errorf("logger.sampling.interval: %q must be one of A, B, C, D", l.Sampling.Interval)
	}
	if l.Sampling.FlowSamples < 1 || l.Sampling.FlowSamples > 99 {
		return fmt.Errorf("logger.sampling.flow_samples: %d out of range 1-99", l.Sampling.FlowSamples)
	}

	// ------------------------------------------------------------
	// STORAGE
	// ------------------------------------------------------------

	if l.Storage.CSVPath == "" {
		return fmt.Errorf("logger.storage.csv_path: required")
	}
	if l.Storage.SQLitePath != "" && l.Storage.SQLitePath == l.Storage.CSVPath {
		return fmt.Errorf("logger.storage: csv_path and sqlite_path must differ")
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if m := l.Mirror; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("logger.mirror.endpoint: required when mirror is set")
		}
		if m.Protocol != ProtocolModbus && m.Protocol != ProtocolIngest {
			return fmt.Errorf("logger.mirror.protocol: unsupported %q", m.Protocol)
		}
		if m.TimeoutMs <= 0 {
			return fmt.Errorf("logger.mirror.timeout_ms: must be > 0")
		}
		for i := 0; i < len(m.DeviceName); i++ {
			if m.DeviceName[i] > 0x7F {
				return fmt.Errorf("logger.mirror.device_name: must contain ASCII characters only")
			}
		}
	}

	if _, err := zerolog.ParseLevel(l.LogLevel); err != nil {
		return fmt.Errorf("logger.log_level: %w", err)
	}

	return nil
}

func validateFraming(path string, dataBits, stopBits int, parity string) error {
	if dataBits < 5 || dataBits > 8 {
		return fmt.Errorf("%s.data_bits: %d out of range 5-8", path, dataBits)
	}
	if stopBits != 1 && stopBits != 2 {
		return fmt.Errorf("%s.stop_bits: must be 1 or 2", path)
	}
	switch parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("%s.parity: %q must be N, E or O", path, parity)
	}
	return nil
}
