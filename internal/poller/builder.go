// internal/poller/builder.go
package poller

import (
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/flowlogger/internal/config"
	"github.com/tamzrod/flowlogger/internal/meter"
	"github.com/tamzrod/flowlogger/internal/metrics"
)

// Build constructs the Sampler for a meter on bus.
// The bus and clock are owned by the caller.
func Build(c cfg.LoggerConfig, bus meter.Bus, clk Clock, sink Sink, log zerolog.Logger, m *metrics.Metrics) (*Sampler, *meter.Meter, error) {
	mt := meter.New(bus, c.Instrument.SlaveID)

	s, err := New(
		Config{FlowSamples: c.Sampling.FlowSamples},
		mt,
		clk,
		sink,
		log.With().Str("component", "sampler").Logger(),
		m,
	)
	if err != nil {
		return nil, nil, err
	}
	return s, mt, nil
}
