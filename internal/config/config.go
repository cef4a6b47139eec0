// internal/config/config.go
package config

type Config struct {
	Logger LoggerConfig `yaml:"logger"`
}

type LoggerConfig struct {
	Instrument InstrumentConfig `yaml:"instrument"`
	Console    ConsoleConfig    `yaml:"console"`
	Clock      ClockConfig      `yaml:"clock"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Storage    StorageConfig    `yaml:"storage"`
	Mirror     *MirrorConfig    `yaml:"mirror"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	LogLevel   string           `yaml:"log_level"`
}

// ---- INSTRUMENT ----

type InstrumentConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"` // N | E | O
	SlaveID  uint8  `yaml:"slave_id"`

	// Poll budgets count byte-port polls, not time.
	ResponsePolls int `yaml:"response_polls"`
	BytePolls     int `yaml:"byte_polls"`
	PollWaitMs    int `yaml:"poll_wait_ms"`

	// Simulate answers requests from an in-process meter instead of the
	// serial line.
	Simulate bool `yaml:"simulate"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	// Device is the console serial line. Empty uses stdin/stdout.
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`

	// IdlePolls is how many empty polls a prompt waits before the
	// session is dropped.
	IdlePolls  int `yaml:"idle_polls"`
	PollWaitMs int `yaml:"poll_wait_ms"`
}

// ---- CLOCK ----

type ClockConfig struct {
	TornReadRetries int  `yaml:"torn_read_retries"`
	AlarmHour       *int `yaml:"alarm_hour"`
}

// ---- SAMPLING ----

type SamplingConfig struct {
	Interval    string `yaml:"interval"` // A | B | C | D
	FlowSamples int    `yaml:"flow_samples"`
	OnStart     bool   `yaml:"on_start"`
}

// ---- STORAGE ----

type StorageConfig struct {
	CSVPath    string `yaml:"csv_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ---- MIRROR (optional) ----

type MirrorConfig struct {
	Protocol   string `yaml:"protocol"` // "modbus" (default) or "ingest"
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	StatusSlot uint16 `yaml:"status_slot"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}

const (
	ProtocolModbus = "modbus"
	ProtocolIngest = "ingest"
)

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}
