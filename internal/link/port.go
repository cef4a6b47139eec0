// internal/link/port.go

// Package link adapts byte streams (serial ports, pipes) to the polled
// byte port used by the meter client and the console.
//
// A Port never blocks for long: Buffered waits at most one poll interval,
// so callers bound their waits by counting polls.
package link

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrClosed is returned once the underlying stream has ended.
var ErrClosed = errors.New("link: port closed")

// Port is a half-duplex byte port.
type Port interface {
	// WriteByte transmits one byte.
	WriteByte(b byte) error
	// Buffered reports whether a received byte is ready.
	// It may wait up to one poll interval before answering false.
	Buffered() bool
	// ReadByte returns the next received byte.
	ReadByte() (byte, error)
}

// StreamPort turns an io.ReadWriteCloser into a Port.
// A reader goroutine moves received bytes into a bounded queue.
type StreamPort struct {
	rwc  io.ReadWriteCloser
	wait time.Duration

	rx   chan byte
	done chan struct{}

	mu     sync.Mutex
	onByte func()

	held    byte
	hasHeld bool

	closeOnce sync.Once
}

// StreamConfig configures a StreamPort.
type StreamConfig struct {
	// PollWait is how long one Buffered call may wait for a byte.
	PollWait time.Duration
	// QueueSize bounds the receive queue; bytes beyond it apply backpressure
	// to the reader goroutine.
	QueueSize int
}

// NewStreamPort starts the reader goroutine over rwc.
func NewStreamPort(rwc io.ReadWriteCloser, cfg StreamConfig) *StreamPort {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 512
	}
	p := &StreamPort{
		rwc:  rwc,
		wait: cfg.PollWait,
		rx:   make(chan byte, cfg.QueueSize),
		done: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

// OnByte installs a hook called from the reader goroutine for every
// received byte. The hook must only set flags.
func (p *StreamPort) OnByte(fn func()) {
	p.mu.Lock()
	p.onByte = fn
	p.mu.Unlock()
}

func (p *StreamPort) readLoop() {
	defer close(p.rx)

	buf := make([]byte, 64)
	for {
		n, err := p.rwc.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case p.rx <- buf[i]:
			case <-p.done:
				return
			}
			p.mu.Lock()
			fn := p.onByte
			p.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
		if err != nil {
			if isReadTimeout(err) {
				continue
			}
			return
		}
	}
}

// WriteByte implements Port.
func (p *StreamPort) WriteByte(b byte) error {
	_, err := p.rwc.Write([]byte{b})
	return err
}

// Write sends b in one call. Console text goes through here.
func (p *StreamPort) Write(b []byte) (int, error) {
	return p.rwc.Write(b)
}

// Buffered implements Port.
func (p *StreamPort) Buffered() bool {
	if p.hasHeld {
		return true
	}

	if p.wait <= 0 {
		select {
		case b, ok := <-p.rx:
			return p.hold(b, ok)
		default:
			return false
		}
	}

	t := time.NewTimer(p.wait)
	defer t.Stop()

	select {
	case b, ok := <-p.rx:
		return p.hold(b, ok)
	case <-t.C:
		return false
	}
}

func (p *StreamPort) hold(b byte, ok bool) bool {
	if !ok {
		return false
	}
	p.held = b
	p.hasHeld = true
	return true
}

// ReadByte implements Port. Without a buffered byte it blocks until one
// arrives or the stream ends.
func (p *StreamPort) ReadByte() (byte, error) {
	if p.hasHeld {
		p.hasHeld = false
		return p.held, nil
	}
	b, ok := <-p.rx
	if !ok {
		return 0, ErrClosed
	}
	return b, nil
}

// Drain discards every byte already received.
func (p *StreamPort) Drain() {
	p.hasHeld = false
	for {
		select {
		case _, ok := <-p.rx:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Close stops the reader goroutine and closes the stream.
func (p *StreamPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.rwc.Close()
	})
	return err
}
