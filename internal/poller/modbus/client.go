// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/frame"
	"github.com/tamzrod/flowlogger/internal/link"
	"github.com/tamzrod/flowlogger/internal/metrics"
)

// ErrTimeout means the poll budget ran out before a complete response.
var ErrTimeout = errors.New("modbus: response timeout")

// Meter write protection: the password "1000" padded to three registers
// must be written here before any protected write.
const (
	UnlockAddress = 2008
)

var unlockPassword = []byte{'1', '0', '0', '0', 0x00, 0x00}

// Config holds the poll budgets. A budget counts Port.Buffered calls,
// never wall-clock time.
type Config struct {
	// ResponsePolls bounds the wait for the first response byte.
	ResponsePolls int
	// BytePolls bounds the wait for each following byte.
	BytePolls int
}

// Client talks Modbus RTU to one meter over a polled byte port.
// One request is in flight at a time; the frame buffer is reused by
// every request and never handed out.
type Client struct {
	port    link.Port
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu  sync.Mutex
	buf [frame.MaxSize]byte
}

// New creates a client over port.
func New(port link.Port, cfg Config, log zerolog.Logger, m *metrics.Metrics) (*Client, error) {
	if port == nil {
		return nil, errors.New("modbus client: port required")
	}
	if cfg.ResponsePolls <= 0 {
		return nil, errors.New("modbus client: response_polls must be > 0")
	}
	if cfg.BytePolls <= 0 {
		return nil, errors.New("modbus client: byte_polls must be > 0")
	}
	return &Client{
		port:    port,
		cfg:     cfg,
		log:     log,
		metrics: m,
	}, nil
}

// ReadHoldingRegisters reads count registers at addr and returns a copy of
// the register bytes, 2*count long.
func (c *Client) ReadHoldingRegisters(slave byte, addr, count uint16) ([]byte, error) {
	return c.roundTrip(frame.Request{
		SlaveID:  slave,
		Function: frame.ReadHoldingRegisters,
		Address:  addr,
		Count:    count,
	})
}

// WriteMultipleRegisters writes payload (whole registers) at addr.
func (c *Client) WriteMultipleRegisters(slave byte, addr uint16, payload []byte) error {
	_, err := c.roundTrip(frame.Request{
		SlaveID:  slave,
		Function: frame.WriteMultipleRegisters,
		Address:  addr,
		Count:    uint16(len(payload) / 2),
		Payload:  payload,
	})
	return err
}

// UnlockDevice writes the meter password. Callers issue it right before a
// protected write; the client does not track the unlocked state.
func (c *Client) UnlockDevice(slave byte) error {
	if err := c.WriteMultipleRegisters(slave, UnlockAddress, unlockPassword); err != nil {
		return fmt.Errorf("modbus: unlock: %w", err)
	}
	return nil
}

// ---- request/response ----

type drainer interface {
	Drain()
}

func (c *Client) roundTrip(req frame.Request) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.Request(functionName(req.Function))

	payload, err := c.exchange(req)
	if err != nil {
		c.metrics.LinkError(errorKind(err))
		c.log.Debug().
			Uint8("slave", req.SlaveID).
			Uint8("fc", uint8(req.Function)).
			Uint16("addr", req.Address).
			Uint16("count", req.Count).
			Err(err).
			Msg("meter request failed")
		return nil, fmt.Errorf("modbus: fc=%d addr=%d: %w", req.Function, req.Address, err)
	}

	c.log.Debug().
		Uint8("slave", req.SlaveID).
		Uint8("fc", uint8(req.Function)).
		Uint16("addr", req.Address).
		Hex("data", payload).
		Msg("meter request ok")

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (c *Client) exchange(req frame.Request) ([]byte, error) {
	f, err := frame.Encode(req)
	if err != nil {
		return nil, err
	}

	// leftovers of an abandoned response would be taken as the next header
	if d, ok := c.port.(drainer); ok {
		d.Drain()
	}

	for _, b := range f {
		if err := c.port.WriteByte(b); err != nil {
			return nil, fmt.Errorf("transmit: %w", err)
		}
	}

	if !c.await(c.cfg.ResponsePolls) {
		return nil, ErrTimeout
	}

	n := 0
	for ; n < frame.HeaderLen; n++ {
		if n > 0 && !c.await(c.cfg.BytePolls) {
			return nil, ErrTimeout
		}
		if err := c.readInto(n); err != nil {
			return nil, err
		}
	}

	total, err := frame.ResponseLen(req.Function, c.buf[:n])
	if err != nil {
		return nil, err
	}
	if total > len(c.buf) {
		return nil, fmt.Errorf("%w: response of %d bytes", frame.ErrTooLarge, total)
	}

	for ; n < total; n++ {
		if !c.await(c.cfg.BytePolls) {
			return nil, ErrTimeout
		}
		if err := c.readInto(n); err != nil {
			return nil, err
		}
	}

	return frame.ParseResponse(req, c.buf[:total])
}

// await polls the port up to budget times.
func (c *Client) await(budget int) bool {
	for i := 0; i < budget; i++ {
		if c.port.Buffered() {
			return true
		}
	}
	return false
}

func (c *Client) readInto(i int) error {
	b, err := c.port.ReadByte()
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	c.buf[i] = b
	return nil
}

func functionName(fc frame.FunctionCode) string {
	switch fc {
	case frame.ReadHoldingRegisters:
		return "read_holding_registers"
	case frame.WriteMultipleRegisters:
		return "write_multiple_registers"
	}
	return fmt.Sprintf("fc_%d", fc)
}

func errorKind(err error) string {
	var ex frame.Exception
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, frame.ErrChecksumMismatch):
		return "checksum"
	case errors.As(err, &ex):
		return "exception"
	}
	return "protocol"
}
