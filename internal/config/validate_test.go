// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helper to build a normalized config quickly
func base() *Config {
	cfg := &Config{
		Logger: LoggerConfig{
			Instrument: InstrumentConfig{Device: "/dev/ttyUSB0"},
		},
	}
	Normalize(cfg)
	return cfg
}

// ---- tests ----

func TestValidate_Defaults(t *testing.T) {
	cfg := base()

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Logger.Sampling.FlowSamples != DefaultFlowSamples {
		t.Fatalf("flow_samples=%d", cfg.Logger.Sampling.FlowSamples)
	}
	if *cfg.Logger.Clock.AlarmHour != DefaultAlarmHour {
		t.Fatalf("alarm_hour=%d", *cfg.Logger.Clock.AlarmHour)
	}
}

func TestValidate_DeviceRequiredUnlessSimulated(t *testing.T) {
	cfg := base()
	cfg.Logger.Instrument.Device = ""

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}

	cfg.Logger.Instrument.Simulate = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
		path string
	}{
		{"parity", func(c *Config) { c.Logger.Instrument.Parity = "X" }, "logger.instrument.parity"},
		{"slave", func(c *Config) { c.Logger.Instrument.SlaveID = 248 }, "logger.instrument.slave_id"},
		{"interval", func(c *Config) { c.Logger.Sampling.Interval = "E" }, "logger.sampling.interval"},
		{"flow_samples", func(c *Config) { c.Logger.Sampling.FlowSamples = 100 }, "logger.sampling.flow_samples"},
		{"alarm_hour", func(c *Config) { h := 24; c.Logger.Clock.AlarmHour = &h }, "logger.clock.alarm_hour"},
		{"retries", func(c *Config) { c.Logger.Clock.TornReadRetries = -1 }, "logger.clock.torn_read_retries"},
		{"storage", func(c *Config) { c.Logger.Storage.SQLitePath = c.Logger.Storage.CSVPath }, "logger.storage"},
		{"mirror", func(c *Config) { c.Logger.Mirror = &MirrorConfig{TimeoutMs: 10} }, "logger.mirror.endpoint"},
		{"mirror_protocol", func(c *Config) {
			c.Logger.Mirror = &MirrorConfig{Protocol: "mqtt", Endpoint: "127.0.0.1:502", TimeoutMs: 10}
		}, "logger.mirror.protocol"},
		{"mirror_name", func(c *Config) {
			c.Logger.Mirror = &MirrorConfig{Protocol: ProtocolModbus, Endpoint: "127.0.0.1:502", TimeoutMs: 10, DeviceName: "méter"}
		}, "logger.mirror.device_name"},
		{"log_level", func(c *Config) { c.Logger.LogLevel = "loud" }, "logger.log_level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mut(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.HasPrefix(err.Error(), tc.path) {
				t.Fatalf("error %q does not name %s", err, tc.path)
			}
		})
	}
}

func TestNormalize_TruncatesDeviceName(t *testing.T) {
	cfg := &Config{Logger: LoggerConfig{Mirror: &MirrorConfig{DeviceName: "0123456789abcdefXYZ"}}}
	Normalize(cfg)

	if got := cfg.Logger.Mirror.DeviceName; got != "0123456789abcdef" {
		t.Fatalf("device_name=%q", got)
	}
	if cfg.Logger.Mirror.Protocol != ProtocolModbus {
		t.Fatalf("protocol=%q", cfg.Logger.Mirror.Protocol)
	}
	if cfg.Logger.Mirror.TimeoutMs != DefaultMirrorTimeout {
		t.Fatalf("timeout_ms=%d", cfg.Logger.Mirror.TimeoutMs)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logger.yaml")
	doc := `
logger:
  instrument:
    simulate: true
    slave_id: 3
  sampling:
    interval: B
  storage:
    csv_path: /tmp/log.txt
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Logger.Instrument.SlaveID != 3 || cfg.Logger.Sampling.Interval != "B" {
		t.Fatalf("unexpected config: %+v", cfg.Logger)
	}
	if cfg.Logger.Instrument.BaudRate != DefaultBaudRate {
		t.Fatalf("baud_rate=%d", cfg.Logger.Instrument.BaudRate)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Parse([]byte("logger:\n  instrument:\n    simulate: true\n  bogus: 1\n"))
	if err == nil {
		t.Fatalf("expected unknown field error, got nil")
	}
}
