// internal/metrics/metrics.go

// Package metrics exposes the logger's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowlogger"

// Metrics holds every collector the logger updates.
type Metrics struct {
	requests   *prometheus.CounterVec
	linkErrors *prometheus.CounterVec
	samples    *prometheus.CounterVec
	tornReads  prometheus.Counter
	sessions   prometheus.Counter
	mode       *prometheus.GaugeVec
	lastSample prometheus.Gauge
	flow       prometheus.Gauge

	reg *prometheus.Registry
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "meter",
			Name:      "requests_total",
			Help:      "Meter requests by function code.",
		}, []string{"function"}),
		linkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "meter",
			Name:      "errors_total",
			Help:      "Failed meter requests by kind.",
		}, []string{"kind"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Sampling cycles by result.",
		}, []string{"result"}),
		tornReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "torn_reads_total",
			Help:      "Clock reads rejected because the snapshots disagreed.",
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "sessions_total",
			Help:      "Interactive console sessions.",
		}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "1 for the scheduler's current mode.",
		}, []string{"mode"}),
		lastSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sample_timestamp_seconds",
			Help:      "Host time of the last completed sampling cycle.",
		}),
		flow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_flow_litres_per_second",
			Help:      "Average flow rate of the last sample.",
		}),
		reg: prometheus.NewRegistry(),
	}

	m.reg.MustRegister(
		m.requests,
		m.linkErrors,
		m.samples,
		m.tornReads,
		m.sessions,
		m.mode,
		m.lastSample,
		m.flow,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ---- recorders ----

func (m *Metrics) Request(function string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(function).Inc()
}

func (m *Metrics) LinkError(kind string) {
	if m == nil {
		return
	}
	m.linkErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Sample(result string) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(result).Inc()
}

func (m *Metrics) TornRead() {
	if m == nil {
		return
	}
	m.tornReads.Inc()
}

func (m *Metrics) Session() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

// Mode marks current as the active mode and clears the others.
func (m *Metrics) Mode(current string, all ...string) {
	if m == nil {
		return
	}
	for _, name := range all {
		m.mode.WithLabelValues(name).Set(0)
	}
	m.mode.WithLabelValues(current).Set(1)
}

// LastSample records the completion time and flow of a sample.
func (m *Metrics) LastSample(unixSeconds float64, flow float32) {
	if m == nil {
		return
	}
	m.lastSample.Set(unixSeconds)
	m.flow.Set(float64(flow))
}
