package dappbind

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes recorded by Metrics.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics collects per-method contract call statistics.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dappbind",
				Subsystem: "contract",
				Name:      "calls_total",
				Help:      "Total number of contract method invocations",
			},
			[]string{"contract", "method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dappbind",
				Subsystem: "contract",
				Name:      "call_duration_seconds",
				Help:      "Contract call round trip in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"contract", "method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

func (m *Metrics) observe(contract, method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(contract, method, outcome).Inc()
	m.duration.WithLabelValues(contract, method).Observe(elapsed.Seconds())
}

// Calls returns the call counter, mainly for tests and custom exporters.
func (m *Metrics) Calls() *prometheus.CounterVec {
	return m.calls
}
