// internal/link/serial.go
package link

import (
	"errors"
	"fmt"
	"time"

	gserial "github.com/goburrow/serial"
	bugserial "go.bug.st/serial"
)

// SerialConfig describes one serial line.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // "N", "E" or "O"

	// ReadTimeout bounds one read of the reader goroutine so Close is
	// observed promptly.
	ReadTimeout time.Duration
}

// OpenSerial opens the meter fieldbus line.
func OpenSerial(cfg SerialConfig, sc StreamConfig) (*StreamPort, error) {
	if cfg.Device == "" {
		return nil, errors.New("link: serial device required")
	}

	p, err := gserial.Open(&gserial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", cfg.Device, err)
	}
	return NewStreamPort(p, sc), nil
}

// OpenConsoleSerial opens the operator console line.
func OpenConsoleSerial(cfg SerialConfig, sc StreamConfig) (*StreamPort, error) {
	if cfg.Device == "" {
		return nil, errors.New("link: console device required")
	}

	mode := &bugserial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   bugParity(cfg.Parity),
		StopBits: bugserial.OneStopBit,
	}
	if cfg.StopBits == 2 {
		mode.StopBits = bugserial.TwoStopBits
	}

	p, err := bugserial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", cfg.Device, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("link: %s read timeout: %w", cfg.Device, err)
		}
	}
	return NewStreamPort(p, sc), nil
}

func bugParity(p string) bugserial.Parity {
	switch p {
	case "E":
		return bugserial.EvenParity
	case "O":
		return bugserial.OddParity
	default:
		return bugserial.NoParity
	}
}

// isReadTimeout reports whether a reader error only means no data arrived.
func isReadTimeout(err error) bool {
	if errors.Is(err, gserial.ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
