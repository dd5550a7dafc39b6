package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/folio/internal/gate"
)

// Metrics counts API calls and mutation gate contention.
type Metrics struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	gateWait prometheus.Histogram
	gateBusy prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "actions_total",
			Help:      "API calls by action and outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "action_duration_seconds",
			Help:      "API call latency by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		gateWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "gate_wait_seconds",
			Help:      "Time spent waiting for the mutation gate.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		}),
		gateBusy: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "gate_busy_total",
			Help:      "Mutations rejected because the gate was not acquired in time.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.actions, m.duration, m.gateWait, m.gateBusy)
	}
	return m
}

// GateObserver feeds gate acquisitions into the metrics.
func (m *Metrics) GateObserver() gate.Observer {
	return func(wait time.Duration, acquired bool) {
		m.gateWait.Observe(wait.Seconds())
		if !acquired {
			m.gateBusy.Inc()
		}
	}
}

func (m *Metrics) observe(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
	m.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}
