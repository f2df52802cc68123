package inventory

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks the store contents and the outcome of every operation.
type Metrics struct {
	Products   *prometheus.GaugeVec
	Operations *prometheus.CounterVec
	Snapshots  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Products: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inventory_products",
				Help: "Live products by kind",
			},
			[]string{"kind"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_operations_total",
				Help: "Store operations by result",
			},
			[]string{"op", "result"},
		),
		Snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_snapshots_total",
				Help: "Snapshot saves by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.Products, m.Operations, m.Snapshots)
	return m
}

// Observe records one operation and refreshes the gauges from s.
// A nil receiver is a no-op.
func (m *Metrics) Observe(op, result string, s Store) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
	for kind, n := range s.Counts() {
		m.Products.WithLabelValues(string(kind)).Set(float64(n))
	}
}

func (m *Metrics) snapshot(result string) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(result).Inc()
}
