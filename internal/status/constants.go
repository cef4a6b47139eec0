// internal/status/constants.go
package status

// Logger status block layout constants.
// These values define the mirror protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of registers per status block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the logger health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the code of the last failed sample.
const SlotLastErrorCode = 1

// SlotFailedSamples counts failed samples since the last good one.
const SlotFailedSamples = 2

// SlotMode holds the scheduler mode (0 idle, 1 sampling, 2 interactive).
const SlotMode = 3

// SlotInterval holds the alarm repeat mask.
const SlotInterval = 4

// SlotSamplesStored holds the low 16 bits of the stored sample count.
const SlotSamplesStored = 5

// SlotMissingFields holds the missing field set of the last record.
const SlotMissingFields = 6

// ---- RESERVED RANGE ----

// Slots 7-10 are reserved.
const SlotReservedStart = 7
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first sample.
const HealthUnknown uint16 = 0

// HealthOK means the last sample was complete and stored.
const HealthOK uint16 = 1

// HealthError means the last sample was not stored.
const HealthError uint16 = 2

// HealthPartial means the last sample was stored with missing fields.
const HealthPartial uint16 = 3

// ---- RECORD BLOCK ----

// RecordRegisters is the size of the latest-record block that follows
// the status block.
const RecordRegisters = 12

// ---- ERROR CODES ----

const (
	CodeNone     uint16 = 0
	CodeGeneric  uint16 = 1
	CodeTimeout  uint16 = 2
	CodeChecksum uint16 = 3
	CodeTornRead uint16 = 4
	CodeStore    uint16 = 5
	// Device exceptions report 0x80 | exception code.
)
