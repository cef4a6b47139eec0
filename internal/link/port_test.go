// internal/link/port_test.go
package link

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pipeRWC struct {
	r *io.PipeReader
	w *io.PipeWriter

	out []byte
}

func newPipeRWC() (*pipeRWC, *io.PipeWriter) {
	r, w := io.Pipe()
	return &pipeRWC{r: r, w: w}, w
}

func (p *pipeRWC) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeRWC) Write(b []byte) (int, error) { p.out = append(p.out, b...); return len(b), nil }
func (p *pipeRWC) Close() error                { return p.r.Close() }

func TestStreamPortDeliversBytesInOrder(t *testing.T) {
	rwc, feed := newPipeRWC()
	p := NewStreamPort(rwc, StreamConfig{PollWait: 50 * time.Millisecond})
	defer p.Close()

	var seen atomic.Int32
	p.OnByte(func() { seen.Add(1) })

	go func() { _, _ = feed.Write([]byte{0x01, 0x02, 0x03}) }()

	for _, want := range []byte{0x01, 0x02, 0x03} {
		polls := 0
		for !p.Buffered() {
			polls++
			if polls > 100 {
				t.Fatalf("byte 0x%02x never arrived", want)
			}
		}
		b, err := p.ReadByte()
		require.NoError(t, err)
		require.Equal(t, want, b)
	}
	require.Equal(t, int32(3), seen.Load())
}

func TestStreamPortBufferedTimesOut(t *testing.T) {
	rwc, _ := newPipeRWC()
	p := NewStreamPort(rwc, StreamConfig{PollWait: time.Millisecond})
	defer p.Close()

	require.False(t, p.Buffered())
}

func TestStreamPortWrite(t *testing.T) {
	rwc, _ := newPipeRWC()
	p := NewStreamPort(rwc, StreamConfig{})
	defer p.Close()

	require.NoError(t, p.WriteByte('T'))
	_, err := p.Write([]byte("LR>"))
	require.NoError(t, err)
	require.Equal(t, []byte("TLR>"), rwc.out)
}

func TestMemoryRespond(t *testing.T) {
	m := &Memory{
		Respond: func(req []byte) []byte {
			return append([]byte{0xAA}, req...)
		},
	}

	require.False(t, m.Buffered())

	_ = m.WriteByte(0x01)
	_ = m.WriteByte(0x02)

	var got []byte
	for m.Buffered() {
		b, err := m.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}
	require.Equal(t, []byte{0xAA, 0x01, 0x02}, got)
	require.Equal(t, []byte{0x01, 0x02}, m.Written())
}
