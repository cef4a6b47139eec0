// internal/console/reader.go
package console

import (
	"io"

	"github.com/tamzrod/flowlogger/internal/link"
)

// Control bytes understood by the line reader.
const (
	Cancel    = 0x18 // ^X
	backspace = 0x08
	del       = 0x7F
)

// MaxLine is the longest line kept; a full buffer ends the line.
const MaxLine = 127

// Terminal is the console byte port plus an output stream.
type Terminal interface {
	link.Port
	io.Writer
}

// LineReader reads echoed operator lines from a terminal.
type LineReader struct {
	term Terminal

	// IdlePolls bounds the wait for each byte. An exhausted budget reads
	// as Cancel.
	IdlePolls int

	lastCR bool
}

func NewLineReader(term Terminal, idlePolls int) *LineReader {
	if idlePolls <= 0 {
		idlePolls = 1
	}
	return &LineReader{term: term, IdlePolls: idlePolls}
}

// ReadLine returns one line without its terminator. A line holding
// Cancel ends right after it.
func (r *LineReader) ReadLine() string {
	buf := make([]byte, 0, MaxLine)

	for len(buf) < MaxLine {
		c := r.next()

		if c != Cancel {
			_ = r.term.WriteByte(c)
		}

		wasCR := r.lastCR
		r.lastCR = c == '\r'

		switch {
		case c == backspace || c == del:
			if len(buf) > 0 {
				_ = r.term.WriteByte(' ')
				_ = r.term.WriteByte(backspace)
				buf = buf[:len(buf)-1]
			}
		case c == '\n':
			if wasCR {
				continue
			}
			return string(buf)
		case c == '\r':
			return string(buf)
		case c == Cancel:
			return string(append(buf, c))
		default:
			buf = append(buf, c)
		}
	}
	return string(buf)
}

// next waits for one byte within the idle budget.
func (r *LineReader) next() byte {
	for i := 0; i < r.IdlePolls; i++ {
		if r.term.Buffered() {
			c, err := r.term.ReadByte()
			if err != nil {
				return Cancel
			}
			return c
		}
	}
	return Cancel
}
