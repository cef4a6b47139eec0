// internal/meter/registers.go
package meter

import "github.com/tamzrod/flowlogger/internal/frame"

// Register names one value in the meter's holding register map.
type Register struct {
	Name    string
	Address uint16
	Count   uint16
	Kind    frame.Kind
	// Width is the string width for frame.KindFixedString.
	Width int
	// LowByte selects the second byte of a single register (byte-wide values).
	LowByte bool
}

// ---- FLOAT VALUES (2 registers, swapped layout) ----

var (
	Velocity              = Register{Name: "velocity", Address: 3000, Count: 2, Kind: frame.KindFloat32Swapped}
	FlowRate              = Register{Name: "flow_rate", Address: 3002, Count: 2, Kind: frame.KindFloat32Swapped}
	Insulation            = Register{Name: "insulation", Address: 3004, Count: 2, Kind: frame.KindFloat32Swapped}
	SensorTemp            = Register{Name: "sensor_temp", Address: 3006, Count: 2, Kind: frame.KindFloat32Swapped}
	FlowPercent           = Register{Name: "flow_percent", Address: 3012, Count: 2, Kind: frame.KindFloat32Swapped}
	TransmitterTemp       = Register{Name: "transmitter_temp", Address: 3042, Count: 2, Kind: frame.KindFloat32Swapped}
	NominalFlow           = Register{Name: "qn", Address: 226, Count: 2, Kind: frame.KindFloat32Swapped}
	CalibrationFactor     = Register{Name: "calibration_factor", Address: 228, Count: 2, Kind: frame.KindFloat32Swapped}
	LowFlowCutoff         = Register{Name: "low_flow_cutoff", Address: 239, Count: 2, Kind: frame.KindFloat32Swapped}
	HighestFlow           = Register{Name: "highest_flow", Address: 407, Count: 2, Kind: frame.KindFloat32Swapped}
	LowestFlow            = Register{Name: "lowest_flow", Address: 412, Count: 2, Kind: frame.KindFloat32Swapped}
	HighestDayConsumption = Register{Name: "highest_day_consumption", Address: 417, Count: 2, Kind: frame.KindFloat32Swapped}
)

// ---- TOTALIZERS (4 registers: integer then fraction, both big-endian) ----

var (
	Totalizer1 = Register{Name: "totalizer1", Address: 3017, Count: 4, Kind: frame.KindInt32BE}
	Totalizer2 = Register{Name: "totalizer2", Address: 3021, Count: 4, Kind: frame.KindInt32BE}
)

// ---- DATES (3 registers, six BCD bytes) ----

var (
	DateTime        = Register{Name: "date_time", Address: 3033, Count: 3, Kind: frame.KindBCDDateTime6}
	CalibrationDate = Register{Name: "calibration_date", Address: 230, Count: 3, Kind: frame.KindBCDDateTime6}
	HighestFlowDate = Register{Name: "highest_flow_date", Address: 409, Count: 3, Kind: frame.KindBCDDateTime6}
	LowestFlowDate  = Register{Name: "lowest_flow_date", Address: 414, Count: 3, Kind: frame.KindBCDDateTime6}
	HighestDayDate  = Register{Name: "highest_day_date", Address: 419, Count: 3, Kind: frame.KindBCDDateTime6}
	LastLogDate     = Register{Name: "last_log_date", Address: 476, Count: 3, Kind: frame.KindBCDDateTime6}
)

// ---- STRINGS (6 registers, 12 characters) ----

var (
	FlowRateUnits  = Register{Name: "flow_rate_units", Address: 210, Count: 6, Kind: frame.KindFixedString, Width: 12}
	TotalFlowUnits = Register{Name: "total_flow_units", Address: 216, Count: 6, Kind: frame.KindFixedString, Width: 12}
)

// ---- INTEGERS ----

var (
	OperatingHours = Register{Name: "operating_hours", Address: 80, Count: 2, Kind: frame.KindInt32BE}
	ProductID      = Register{Name: "product_id", Address: 79, Count: 1, Kind: frame.KindUint16BE}
	PowerUps       = Register{Name: "power_ups", Address: 366, Count: 1, Kind: frame.KindUint16BE}
	ParityErrors   = Register{Name: "parity_errors", Address: 500, Count: 1, Kind: frame.KindUint16BE}
	BaudRateCode   = Register{Name: "baud_rate_code", Address: 526, Count: 1, Kind: frame.KindUint16BE}
	DeviceAddress  = Register{Name: "device_address", Address: 528, Count: 1, Kind: frame.KindUint16BE}
	RunningState   = Register{Name: "running_state", Address: 601, Count: 1, Kind: frame.KindUint16BE}
	FaultStatus    = Register{Name: "fault_status", Address: 3016, Count: 1, Kind: frame.KindUint16BE}
	Battery        = Register{Name: "battery", Address: 3030, Count: 1, Kind: frame.KindUint16BE, LowByte: true}
	PowerStatus    = Register{Name: "power_status", Address: 3031, Count: 1, Kind: frame.KindUint16BE, LowByte: true}
	CommModule     = Register{Name: "comm_module", Address: 822, Count: 1, Kind: frame.KindUint16BE, LowByte: true}
)

// Table lists every known register.
var Table = []Register{
	Velocity, FlowRate, Insulation, SensorTemp, FlowPercent, TransmitterTemp,
	NominalFlow, CalibrationFactor, LowFlowCutoff,
	HighestFlow, LowestFlow, HighestDayConsumption,
	Totalizer1, Totalizer2,
	DateTime, CalibrationDate, HighestFlowDate, LowestFlowDate, HighestDayDate, LastLogDate,
	FlowRateUnits, TotalFlowUnits,
	OperatingHours, ProductID, PowerUps, ParityErrors, BaudRateCode, DeviceAddress,
	RunningState, FaultStatus, Battery, PowerStatus, CommModule,
}

// baudRates maps the meter's baud rate code to bits per second.
var baudRates = [...]int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 76800, 115200}

// Running state register values.
const (
	StateStopped uint16 = 0x0000
	StateRunning uint16 = 0x00FF
)
