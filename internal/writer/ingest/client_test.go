package ingest

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serveOnce accepts one packet and answers with status.
func serveOnce(t *testing.T, status byte) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		hdr := make([]byte, 10)
		if _, err := io.ReadFull(conn, hdr); err != nil {
			return
		}
		count := int(hdr[8])<<8 | int(hdr[9])
		body := make([]byte, count*2)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		got <- append(hdr, body...)
		_, _ = conn.Write([]byte{status})
	}()
	return ln.Addr().String(), got
}

func TestWriteRegistersPacket(t *testing.T) {
	addr, got := serveOnce(t, respOK)

	c, err := NewEndpointClient(Config{Endpoint: addr, Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, c.WriteRegisters(7, 0x0102, []uint16{0xABCD, 0x0001}))

	pkt := <-got
	require.Equal(t, []byte{
		'R', 'I', 0x01, AreaHoldingRegisters,
		0x00, 0x07,
		0x01, 0x02,
		0x00, 0x02,
		0xAB, 0xCD, 0x00, 0x01,
	}, pkt)
}

func TestWriteRegistersRejected(t *testing.T) {
	addr, _ := serveOnce(t, respRejected)

	c, err := NewEndpointClient(Config{Endpoint: addr, Timeout: time.Second})
	require.NoError(t, err)

	require.ErrorIs(t, c.WriteRegisters(1, 0, []uint16{1}), ErrRejected)
}

func TestNewEndpointClientRequiresEndpoint(t *testing.T) {
	_, err := NewEndpointClient(Config{})
	require.Error(t, err)
}
