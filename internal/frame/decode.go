// internal/frame/decode.go
package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/tamzrod/flowlogger/internal/bcd"
)

// Kind selects how response register bytes are interpreted.
type Kind uint8

const (
	KindFloat32Swapped Kind = iota + 1
	KindInt32BE
	KindUint16BE
	KindFixedString
	KindBCDDateTime6
)

func (k Kind) String() string {
	switch k {
	case KindFloat32Swapped:
		return "float32-swapped"
	case KindInt32BE:
		return "int32-be"
	case KindUint16BE:
		return "uint16-be"
	case KindFixedString:
		return "fixed-string"
	case KindBCDDateTime6:
		return "bcd-datetime6"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var (
	ErrShortPayload = errors.New("frame: payload too short for value")
	ErrBadBCD       = errors.New("frame: invalid BCD digit")
)

// DateTime6 is a meter timestamp: year (2000-based), month, day, hour,
// minute, second, each one BCD byte.
type DateTime6 struct {
	Year, Month, Day, Hour, Minute, Second byte
}

// String renders the timestamp as 20YY-MM-DDTHH:MM:SS.
func (d DateTime6) String() string {
	return fmt.Sprintf("20%02d-%02d-%02dT%02d:%02d:%02d",
		bcd.ToBinary(d.Year), bcd.ToBinary(d.Month), bcd.ToBinary(d.Day),
		bcd.ToBinary(d.Hour), bcd.ToBinary(d.Minute), bcd.ToBinary(d.Second))
}

// Bytes returns the six BCD bytes in wire order.
func (d DateTime6) Bytes() []byte {
	return []byte{d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second}
}

// Value is a decoded register value. Kind tells which field is set.
type Value struct {
	Kind     Kind
	Float    float32
	Int      int32
	Uint     uint16
	Str      string
	DateTime DateTime6
}

func (v Value) String() string {
	switch v.Kind {
	case KindFloat32Swapped:
		return fmt.Sprintf("%.5f", v.Float)
	case KindInt32BE:
		return fmt.Sprintf("%d", v.Int)
	case KindUint16BE:
		return fmt.Sprintf("%d", v.Uint)
	case KindFixedString:
		return v.Str
	case KindBCDDateTime6:
		return v.DateTime.String()
	}
	return "<invalid>"
}

// Decode interprets payload as kind. n is the string width for
// KindFixedString and ignored otherwise.
func Decode(kind Kind, n int, payload []byte) (Value, error) {
	v := Value{Kind: kind}
	var err error
	switch kind {
	case KindFloat32Swapped:
		v.Float, err = Float32Swapped(payload)
	case KindInt32BE:
		v.Int, err = Int32BE(payload)
	case KindUint16BE:
		v.Uint, err = Uint16BE(payload)
	case KindFixedString:
		v.Str, err = FixedString(payload, n)
	case KindBCDDateTime6:
		v.DateTime, err = BCDDateTime6(payload)
	default:
		err = fmt.Errorf("frame: unknown value kind %d", uint8(kind))
	}
	return v, err
}

// Float32Swapped decodes the meter's float layout. The received bytes
// b0 b1 b2 b3 are reordered to b3 b2 b1 b0 and that little-endian image
// is the IEEE-754 value.
func Float32Swapped(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, ErrShortPayload
	}
	img := [4]byte{b[3], b[2], b[1], b[0]}
	return math.Float32frombits(binary.LittleEndian.Uint32(img[:])), nil
}

// Int32BE decodes b0 b1 b2 b3 as a big-endian integer. No word swap.
func Int32BE(b []byte) (int32, error) {
	if len(b) < 4 {
		return 0, ErrShortPayload
	}
	return int32(binary.BigEndian.Uint32(b[:4])), nil
}

// Uint16BE decodes one register.
func Uint16BE(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, ErrShortPayload
	}
	return binary.BigEndian.Uint16(b[:2]), nil
}

// FixedString returns the first n bytes of b, cut at the first NUL.
func FixedString(b []byte, n int) (string, error) {
	if len(b) < n {
		return "", ErrShortPayload
	}
	s := b[:n]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s), nil
}

// BCDDateTime6 decodes year, month, day, hour, minute, second.
func BCDDateTime6(b []byte) (DateTime6, error) {
	if len(b) < 6 {
		return DateTime6{}, ErrShortPayload
	}
	for i := 0; i < 6; i++ {
		if !bcd.Valid(b[i]) {
			return DateTime6{}, fmt.Errorf("%w: byte %d = 0x%02x", ErrBadBCD, i, b[i])
		}
	}
	return DateTime6{
		Year:   b[0],
		Month:  b[1],
		Day:    b[2],
		Hour:   b[3],
		Minute: b[4],
		Second: b[5],
	}, nil
}
