// internal/writer/mirror.go
package writer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/poller"
	"github.com/tamzrod/flowlogger/internal/status"
)

// MirrorConfig wires a Mirror.
type MirrorConfig struct {
	Data   Writer
	Status StatusWriter // nil disables the status block

	// Mode and Interval are read on every tick.
	Mode     func() uint16
	Interval func() uint16

	Tick time.Duration // default 1s
	Log  zerolog.Logger
}

// Mirror owns the status snapshot. Results arrive on a channel; the
// ticker picks up mode and interval changes made outside sampling.
type Mirror struct {
	cfg  MirrorConfig
	snap status.Snapshot
}

func NewMirror(cfg MirrorConfig) *Mirror {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return &Mirror{cfg: cfg}
}

// Snapshot returns the current status. Only safe once Run has returned.
func (m *Mirror) Snapshot() status.Snapshot { return m.snap }

// Run consumes results until ctx is done or in is closed.
func (m *Mirror) Run(ctx context.Context, in <-chan poller.Result) {
	m.snap.Health = status.HealthUnknown
	m.refresh()

	// Full block write on start (identity re-assert).
	m.writeStatus()

	ticker := time.NewTicker(m.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case res, ok := <-in:
			if !ok {
				return
			}
			if m.cfg.Data != nil {
				if err := m.cfg.Data.Write(res); err != nil {
					m.cfg.Log.Warn().Err(err).Msg("mirror record write failed")
				}
			}
			m.snap.Apply(res)
			m.refresh()
			m.writeStatus()

		case <-ticker.C:
			if m.refresh() {
				m.writeStatus()
			}
		}
	}
}

// refresh reads mode and interval and reports whether either changed.
func (m *Mirror) refresh() bool {
	changed := false
	if m.cfg.Mode != nil {
		if v := m.cfg.Mode(); v != m.snap.Mode {
			m.snap.Mode = v
			changed = true
		}
	}
	if m.cfg.Interval != nil {
		if v := m.cfg.Interval(); v != m.snap.Interval {
			m.snap.Interval = v
			changed = true
		}
	}
	return changed
}

func (m *Mirror) writeStatus() {
	if m.cfg.Status == nil {
		return
	}
	if err := m.cfg.Status.WriteStatus(m.snap); err != nil {
		m.cfg.Log.Warn().Err(err).Msg("mirror status write failed")
	}
}
