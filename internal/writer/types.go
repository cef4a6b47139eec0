// internal/writer/types.go
package writer

import "github.com/tamzrod/flowlogger/internal/poller"

// StatusPlan places the status block in the mirror endpoint.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built mirror plan.
type Plan struct {
	Status *StatusPlan

	// RecordAddr is the first holding register of the latest-record block.
	RecordAddr uint16
}

// Writer writes sampling results into the mirror.
type Writer interface {
	Write(res poller.Result) error
}
