// internal/frame/decode_test.go
package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat32Swapped(t *testing.T) {
	f, err := Float32Swapped([]byte{0x3F, 0x80, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, float32(1.0), f)

	f, err = Float32Swapped([]byte{0xC0, 0x49, 0x0F, 0xDB})
	require.NoError(t, err)
	require.InDelta(t, -3.14159, f, 1e-5)

	_, err = Float32Swapped([]byte{0x3F, 0x80})
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestInt32BE(t *testing.T) {
	v, err := Int32BE([]byte{0x00, 0x00, 0x00, 0x01})
	require.NoError(t, err)
	require.Equal(t, int32(1), v)

	v, err = Int32BE([]byte{0xFF, 0xFF, 0xFF, 0xFE})
	require.NoError(t, err)
	require.Equal(t, int32(-2), v)

	// same bytes the float decoder reverses are taken in order here
	v, err = Int32BE([]byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	require.Equal(t, int32(0x01020304), v)
}

func TestFixedString(t *testing.T) {
	s, err := FixedString([]byte("l/s\x00\x00\x00\x00\x00\x00\x00\x00\x00"), 12)
	require.NoError(t, err)
	require.Equal(t, "l/s", s)

	s, err = FixedString([]byte("m3/h        "), 12)
	require.NoError(t, err)
	require.Equal(t, "m3/h        ", s)

	_, err = FixedString([]byte("abc"), 12)
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestBCDDateTime6(t *testing.T) {
	d, err := BCDDateTime6([]byte{0x08, 0x12, 0x31, 0x23, 0x58, 0x07})
	require.NoError(t, err)
	require.Equal(t, "2008-12-31T23:58:07", d.String())
	require.Equal(t, []byte{0x08, 0x12, 0x31, 0x23, 0x58, 0x07}, d.Bytes())

	_, err = BCDDateTime6([]byte{0x08, 0x1A, 0x31, 0x23, 0x58, 0x07})
	require.ErrorIs(t, err, ErrBadBCD)
}

func TestDecodeDispatch(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		n       int
		payload []byte
		want    string
	}{
		{"float", KindFloat32Swapped, 0, []byte{0x3F, 0x80, 0x00, 0x00}, "1.00000"},
		{"int", KindInt32BE, 0, []byte{0x00, 0x00, 0x01, 0x00}, "256"},
		{"uint", KindUint16BE, 0, []byte{0x27, 0x1B}, "10011"},
		{"string", KindFixedString, 4, []byte("abcd"), "abcd"},
		{"date", KindBCDDateTime6, 0, []byte{0x09, 0x01, 0x02, 0x03, 0x04, 0x05}, "2009-01-02T03:04:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.kind, tt.n, tt.payload)
			require.NoError(t, err)
			require.Equal(t, tt.kind, v.Kind)
			require.Equal(t, tt.want, v.String())
		})
	}

	_, err := Decode(Kind(99), 0, nil)
	require.Error(t, err)
}
