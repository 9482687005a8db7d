// Package metrics exposes Prometheus collectors for the notes store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notes"

// Result labels for Mutations.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the store collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Mutations *prometheus.CounterVec
	Requeries *prometheus.CounterVec
	Observers prometheus.Gauge
}

// New creates the collectors and registers them on reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Note mutations by operation and result.",
		}, []string{"op", "result"}),
		Requeries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requeries_total",
			Help:      "Snapshot re-queries issued by reactive streams.",
		}, []string{"query"}),
		Observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warm_observers",
			Help:      "Observers attached to the shared notes stream.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Mutations, m.Requeries, m.Observers)
	}
	return m
}

func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Requery(query string) {
	if m == nil {
		return
	}
	m.Requeries.WithLabelValues(query).Inc()
}

func (m *Metrics) SetObservers(n int) {
	if m == nil {
		return
	}
	m.Observers.Set(float64(n))
}
