// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultBaudRate      = 9600
	DefaultResponsePolls = 2000
	DefaultBytePolls     = 200
	DefaultPollWaitMs    = 1
	DefaultIdlePolls     = 60000
	DefaultFlowSamples   = 4
	DefaultAlarmHour     = 5
	DefaultInterval      = "C"
	DefaultCSVPath       = "DATALOG.TXT"
	DefaultMirrorTimeout = 1000
	DefaultLogLevel      = "info"
)

// Normalize fills unset fields with defaults.
// It runs before Validate so validation sees the effective values.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	l := &cfg.Logger

	// ------------------------------------------------------------
	// INSTRUMENT LINE
	// ------------------------------------------------------------

	in := &l.Instrument
	if in.BaudRate == 0 {
		in.BaudRate = DefaultBaudRate
	}
	if in.DataBits == 0 {
		in.DataBits = 8
	}
	if in.StopBits == 0 {
		in.StopBits = 1
	}
	if in.Parity == "" {
		in.Parity = "N"
	}
	if in.SlaveID == 0 {
		in.SlaveID = 1
	}
	if in.ResponsePolls == 0 {
		in.ResponsePolls = DefaultResponsePolls
	}
	if in.BytePolls == 0 {
		in.BytePolls = DefaultBytePolls
	}
	if in.PollWaitMs == 0 {
		in.PollWaitMs = DefaultPollWaitMs
	}

	// ------------------------------------------------------------
	// CONSOLE
	// ------------------------------------------------------------

	c := &l.Console
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.IdlePolls == 0 {
		c.IdlePolls = DefaultIdlePolls
	}
	if c.PollWaitMs == 0 {
		c.PollWaitMs = DefaultPollWaitMs
	}

	// ------------------------------------------------------------
	// CLOCK / SAMPLING / STORAGE
	// ------------------------------------------------------------

	if l.Clock.AlarmHour == nil {
		h := DefaultAlarmHour
		l.Clock.AlarmHour = &h
	}
	if l.Sampling.Interval == "" {
		l.Sampling.Interval = DefaultInterval
	}
	if l.Sampling.FlowSamples == 0 {
		l.Sampling.FlowSamples = DefaultFlowSamples
	}
	if l.Storage.CSVPath == "" {
		l.Storage.CSVPath = DefaultCSVPath
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if m := l.Mirror; m != nil {
		if m.Protocol == "" {
			m.Protocol = ProtocolModbus
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultMirrorTimeout
		}
		// device_name occupies 8 registers
		if len(m.DeviceName) > 16 {
			m.DeviceName = m.DeviceName[:16]
		}
	}

	if l.LogLevel == "" {
		l.LogLevel = DefaultLogLevel
	}
}
