package ring

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of ring_pipeline_runs_total.
const (
	outcomeResponded = "responded"
	outcomeUnhandled = "unhandled"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

type metrics struct {
	runs     *prometheus.CounterVec
	inFlight prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ring_pipeline_runs_total",
				Help: "Pipeline runs by how they ended.",
			},
			[]string{"outcome"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ring_pipeline_in_flight",
				Help: "Pipeline runs that have not finished yet.",
			},
		),
	}
	if reg == nil {
		return m
	}
	m.runs = register(reg, m.runs).(*prometheus.CounterVec)
	m.inFlight = register(reg, m.inFlight).(prometheus.Gauge)
	return m
}

// register returns the collector already registered under the same name,
// if there is one, so several pipelines can share a registry.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	panic(errors.Wrap(err, "register pipeline metrics"))
}

func (m *metrics) start() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *metrics) finish(outcome string) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(outcome).Inc()
}
