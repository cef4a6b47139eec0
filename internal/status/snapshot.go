// internal/status/snapshot.go
package status

import "github.com/tamzrod/flowlogger/internal/poller"

// Snapshot represents exactly what the mirror is allowed to deliver.
type Snapshot struct {
	Health        uint16
	LastErrorCode uint16
	FailedSamples uint16
	Mode          uint16
	Interval      uint16
	SamplesStored uint16
	MissingFields uint16
}

// Apply folds one sampling result into s.
func (s *Snapshot) Apply(res poller.Result) {
	s.MissingFields = uint16(res.Record.Missing)

	switch res.Outcome() {
	case "ok":
		s.Health = HealthOK
		s.LastErrorCode = CodeNone
		s.FailedSamples = 0
	case "partial":
		s.Health = HealthPartial
		s.LastErrorCode = CodeOf(res.Err)
		s.FailedSamples = 0
	default:
		s.Health = HealthError
		s.LastErrorCode = CodeOf(res.Err)
		// HARD INVARIANT: the counter MUST NOT wrap
		if s.FailedSamples < 65535 {
			s.FailedSamples++
		}
	}

	if res.Stored {
		s.SamplesStored++
	}
}
