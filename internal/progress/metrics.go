package progress

import "github.com/prometheus/client_golang/prometheus"

// PrometheusGauge mirrors a Cell's value into a Prometheus gauge so a
// supervisor that scrapes metrics can render the same progress a polling
// reader of the Cell would see.
type PrometheusGauge struct {
	cell  *Cell
	gauge prometheus.Gauge
}

// NewPrometheusGauge registers a gauge named "sepengine_stage_progress" and
// returns a wrapper that keeps it in sync with cell.
func NewPrometheusGauge(cell *Cell) *PrometheusGauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sepengine_stage_progress",
		Help: "Fraction of lexicographic stages completed (0..1); negative indicates infeasibility.",
	})
	prometheus.MustRegister(gauge)

	return &PrometheusGauge{cell: cell, gauge: gauge}
}

// Sync pushes the Cell's current value into the underlying gauge. Callers
// invoke this after each stage transition; it is not automatic since Cell
// has no observer hooks of its own.
func (g *PrometheusGauge) Sync() {
	g.gauge.Set(g.cell.Value())
}
