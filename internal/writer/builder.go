// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/flowlogger/internal/config"
	"github.com/tamzrod/flowlogger/internal/status"
	"github.com/tamzrod/flowlogger/internal/writer/ingest"
	wmodbus "github.com/tamzrod/flowlogger/internal/writer/modbus"
)

// BuildPlan converts the mirror config into a Plan.
// Assumes config has already passed validation.
func BuildPlan(m cfg.MirrorConfig) (Plan, error) {
	if m.Endpoint == "" {
		return Plan{}, errors.New("writer: mirror.endpoint required")
	}

	sp := &StatusPlan{
		Endpoint:   m.Endpoint,
		UnitID:     m.UnitID,
		BaseSlot:   m.StatusSlot,
		DeviceName: m.DeviceName,
	}

	// the record block follows the status block
	base := uint32(m.StatusSlot) * status.SlotsPerDevice
	recordAddr := base + status.SlotsPerDevice
	if recordAddr+status.RecordRegisters > 0x10000 {
		return Plan{}, fmt.Errorf("writer: status_slot %d leaves no room for the record block", m.StatusSlot)
	}

	return Plan{Status: sp, RecordAddr: uint16(recordAddr)}, nil
}

// BuildEndpointClient creates the client for the mirror endpoint.
func BuildEndpointClient(m cfg.MirrorConfig) (endpointClient, func() error, error) {
	timeout := time.Duration(m.TimeoutMs) * time.Millisecond

	switch m.Protocol {
	case cfg.ProtocolIngest:
		c, err := ingest.NewEndpointClient(ingest.Config{Endpoint: m.Endpoint, Timeout: timeout})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{Endpoint: m.Endpoint, Timeout: timeout})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}
