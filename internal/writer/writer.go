// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/flowlogger/internal/poller"
	"github.com/tamzrod/flowlogger/internal/status"
)

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type writerImpl struct {
	plan Plan
	cli  endpointClient
}

func New(plan Plan, cli endpointClient) Writer {
	return &writerImpl{
		plan: plan,
		cli:  cli,
	}
}

// Write publishes the record of a stored sample. Failed samples leave the
// previous record in place; the status block reports them.
func (w *writerImpl) Write(res poller.Result) error {
	if !res.Stored {
		return nil
	}
	if w.cli == nil {
		return errors.New("writer: missing client")
	}

	var unitID uint8
	if w.plan.Status != nil {
		unitID = w.plan.Status.UnitID
	}

	regs := status.EncodeRecord(res.Record)
	if err := w.cli.WriteRegisters(unitID, w.plan.RecordAddr, regs); err != nil {
		return fmt.Errorf("writer: record write failed unit=%d addr=%d: %w", unitID, w.plan.RecordAddr, err)
	}
	return nil
}
