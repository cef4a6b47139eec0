// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/flowlogger/internal/sample"
)

// Result is what one sampling cycle produced.
type Result struct {
	At time.Time

	// Record is always set. Fields that could not be read are marked in
	// Record.Missing.
	Record sample.Record

	// Err joins every field error of the cycle and the store error.
	// nil means the record is complete and stored.
	Err error

	// Stored reports whether the record reached the log.
	Stored bool
}

// Outcome classifies r for metrics and status.
func (r Result) Outcome() string {
	switch {
	case !r.Stored:
		return "failed"
	case r.Record.Complete():
		return "ok"
	default:
		return "partial"
	}
}
