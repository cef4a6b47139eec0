// internal/frame/exception.go
package frame

import "fmt"

// Exception is the exception code of a Modbus exception response.
type Exception byte

const (
	ExIllegalFunction    Exception = 0x01
	ExIllegalAddress     Exception = 0x02
	ExIllegalValue       Exception = 0x03
	ExServerDeviceFailed Exception = 0x04
	ExAcknowledge        Exception = 0x05
	ExServerDeviceBusy   Exception = 0x06
)

// Error implements the builtin.error interface.
func (e Exception) Error() string {
	switch e {
	case ExIllegalFunction:
		return "modbus exception 0x01: illegal function"
	case ExIllegalAddress:
		return "modbus exception 0x02: illegal data address"
	case ExIllegalValue:
		return "modbus exception 0x03: illegal data value"
	case ExServerDeviceFailed:
		return "modbus exception 0x04: server device failure"
	case ExAcknowledge:
		return "modbus exception 0x05: acknowledge"
	case ExServerDeviceBusy:
		return "modbus exception 0x06: server device busy"
	}
	return fmt.Sprintf("modbus exception 0x%02X", byte(e))
}

// Code returns the exception as a status code.
func (e Exception) Code() uint16 {
	return 0x80 | uint16(e)
}
