// internal/frame/frame.go

// Package frame builds and checks Modbus RTU frames exchanged with the
// flow meter and decodes the register encodings the meter uses.
//
// A frame is the slave id, the function code, the function data and a
// CRC-16/MODBUS checksum over every preceding byte, low byte first.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sigurn/crc16"
)

// FunctionCode is the Modbus function code carried in byte 1 of a frame.
type FunctionCode byte

const (
	ReadHoldingRegisters   FunctionCode = 0x03
	WriteMultipleRegisters FunctionCode = 0x10

	// exceptionFlag is OR-ed into the function code of an exception response.
	exceptionFlag byte = 0x80
)

// MaxSize is the largest frame the meter link carries.
const MaxSize = 253

// maxWriteRegisters keeps a write frame within MaxSize
// (1 slave + 1 fc + 2 addr + 2 count + 1 byte count + 2N + 2 crc).
const maxWriteRegisters = (MaxSize - 9) / 2

// maxReadRegisters keeps a read response within MaxSize
// (1 slave + 1 fc + 1 byte count + 2N + 2 crc).
const maxReadRegisters = (MaxSize - 5) / 2

var (
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
	ErrPayloadSize      = errors.New("frame: payload size does not match register count")
	ErrTooLarge         = errors.New("frame: request exceeds frame size")
	ErrShortFrame       = errors.New("frame: short frame")
	ErrUnexpectedSlave  = errors.New("frame: response from unexpected slave")
	ErrUnexpectedFunc   = errors.New("frame: response function code mismatch")
	ErrByteCount        = errors.New("frame: byte count does not match request")
)

// Frame is one complete request or response unit, checksum included.
type Frame []byte

// Request describes one register request.
// Count is the register count; for writes Payload carries 2*Count bytes.
type Request struct {
	SlaveID  byte
	Function FunctionCode
	Address  uint16
	Count    uint16
	Payload  []byte
}

var table = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum returns the CRC-16/MODBUS of b
// (initial value 0xFFFF, reflected polynomial 0xA001).
func Checksum(b []byte) uint16 {
	return crc16.Checksum(b, table)
}

// AppendChecksum appends the checksum of b to b, low byte first.
func AppendChecksum(b []byte) Frame {
	crc := Checksum(b)
	return append(b, byte(crc), byte(crc>>8))
}

// Verify reports whether the trailing two bytes of f are the checksum of
// everything before them.
func Verify(f []byte) bool {
	if len(f) < 3 {
		return false
	}
	n := len(f) - 2
	crc := Checksum(f[:n])
	return f[n] == byte(crc) && f[n+1] == byte(crc>>8)
}

// BuildReadRequest builds a read-holding-registers frame.
func BuildReadRequest(slaveID byte, addr, count uint16) Frame {
	f := make([]byte, 6, 8)
	f[0] = slaveID
	f[1] = byte(ReadHoldingRegisters)
	binary.BigEndian.PutUint16(f[2:4], addr)
	binary.BigEndian.PutUint16(f[4:6], count)
	return AppendChecksum(f)
}

// BuildWriteRequest builds a write-multiple-registers frame.
// registerBytes must hold whole registers, big-endian per register.
func BuildWriteRequest(slaveID byte, addr uint16, registerBytes []byte) (Frame, error) {
	if len(registerBytes) == 0 || len(registerBytes)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(registerBytes))
	}
	count := len(registerBytes) / 2
	if count > maxWriteRegisters {
		return nil, fmt.Errorf("%w: %d registers", ErrTooLarge, count)
	}

	f := make([]byte, 7, 7+len(registerBytes)+2)
	f[0] = slaveID
	f[1] = byte(WriteMultipleRegisters)
	binary.BigEndian.PutUint16(f[2:4], addr)
	binary.BigEndian.PutUint16(f[4:6], uint16(count))
	f[6] = byte(len(registerBytes))
	f = append(f, registerBytes...)
	return AppendChecksum(f), nil
}

// Encode builds the frame for req.
func Encode(req Request) (Frame, error) {
	switch req.Function {
	case ReadHoldingRegisters:
		if req.Count == 0 || req.Count > maxReadRegisters {
			return nil, fmt.Errorf("%w: %d registers", ErrTooLarge, req.Count)
		}
		return BuildReadRequest(req.SlaveID, req.Address, req.Count), nil
	case WriteMultipleRegisters:
		if int(req.Count)*2 != len(req.Payload) {
			return nil, fmt.Errorf("%w: count=%d bytes=%d", ErrPayloadSize, req.Count, len(req.Payload))
		}
		return BuildWriteRequest(req.SlaveID, req.Address, req.Payload)
	default:
		return nil, fmt.Errorf("frame: unsupported function code 0x%02x", byte(req.Function))
	}
}

// HeaderLen is the number of response bytes needed before ResponseLen can
// size the rest of the frame.
const HeaderLen = 3

// ResponseLen returns the total response length implied by the first
// HeaderLen bytes of a response to a request with function fn.
func ResponseLen(fn FunctionCode, header []byte) (int, error) {
	if len(header) < HeaderLen {
		return 0, ErrShortFrame
	}
	if header[1]&exceptionFlag != 0 {
		// slave, fc|0x80, exception code, crc
		return 5, nil
	}
	switch fn {
	case ReadHoldingRegisters:
		return HeaderLen + int(header[2]) + 2, nil
	case WriteMultipleRegisters:
		// slave, fc, addr(2), count(2), crc
		return 8, nil
	default:
		return 0, fmt.Errorf("frame: unsupported function code 0x%02x", byte(fn))
	}
}

// ParseResponse validates resp against req and returns the response data:
// the register bytes for a read, the echoed address and count for a write.
// The checksum is checked before any other byte is trusted.
func ParseResponse(req Request, resp []byte) ([]byte, error) {
	if len(resp) < 5 {
		return nil, ErrShortFrame
	}
	if !Verify(resp) {
		return nil, ErrChecksumMismatch
	}
	if resp[0] != req.SlaveID {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrUnexpectedSlave, resp[0], req.SlaveID)
	}
	if resp[1] == byte(req.Function)|exceptionFlag {
		return nil, Exception(resp[2])
	}
	if resp[1] != byte(req.Function) {
		return nil, fmt.Errorf("%w: got=0x%02x want=0x%02x", ErrUnexpectedFunc, resp[1], byte(req.Function))
	}

	body := resp[2 : len(resp)-2]

	switch req.Function {
	case ReadHoldingRegisters:
		byteCount := int(body[0])
		if byteCount != 2*int(req.Count) || len(body)-1 != byteCount {
			return nil, fmt.Errorf("%w: got=%d want=%d", ErrByteCount, byteCount, 2*int(req.Count))
		}
		return body[1:], nil
	case WriteMultipleRegisters:
		if len(body) != 4 {
			return nil, ErrShortFrame
		}
		if binary.BigEndian.Uint16(body[0:2]) != req.Address ||
			binary.BigEndian.Uint16(body[2:4]) != req.Count {
			return nil, fmt.Errorf("frame: write echo mismatch: % x", body)
		}
		return body, nil
	}
	return body, nil
}
