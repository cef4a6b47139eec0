// internal/link/memory.go
package link

import "sync"

// Memory is an in-process Port. Bytes written to it are collected;
// bytes fed to it are returned by ReadByte.
//
// When Respond is set, the first Buffered call after a run of writes hands
// the written bytes to Respond and queues whatever it returns. This is how
// a scripted device answers a request.
type Memory struct {
	mu      sync.Mutex
	rx      []byte
	written []byte
	pending []byte

	Respond func(req []byte) []byte
}

// Feed queues bytes for reading.
func (m *Memory) Feed(b ...byte) {
	m.mu.Lock()
	m.rx = append(m.rx, b...)
	m.mu.Unlock()
}

// FeedString queues s for reading.
func (m *Memory) FeedString(s string) {
	m.Feed([]byte(s)...)
}

// Written returns everything written so far.
func (m *Memory) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written...)
}

// Reset clears the written bytes.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.written = nil
	m.mu.Unlock()
}

// WriteByte implements Port.
func (m *Memory) WriteByte(b byte) error {
	m.mu.Lock()
	m.written = append(m.written, b)
	m.pending = append(m.pending, b)
	m.mu.Unlock()
	return nil
}

// Write implements io.Writer.
func (m *Memory) Write(b []byte) (int, error) {
	m.mu.Lock()
	m.written = append(m.written, b...)
	m.mu.Unlock()
	return len(b), nil
}

// Buffered implements Port.
func (m *Memory) Buffered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) > 0 && m.Respond != nil {
		req := m.pending
		m.pending = nil
		m.rx = append(m.rx, m.Respond(req)...)
	}
	return len(m.rx) > 0
}

// ReadByte implements Port.
func (m *Memory) ReadByte() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.rx) == 0 {
		return 0, ErrClosed
	}
	b := m.rx[0]
	m.rx = m.rx[1:]
	return b, nil
}
