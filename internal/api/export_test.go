package api

import "github.com/prometheus/client_golang/prometheus"

// ActionCounter exposes one series of the actions counter to tests.
func ActionCounter(m *Metrics, action, outcome string) prometheus.Collector {
	return m.actions.WithLabelValues(action, outcome)
}
