package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutTickDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explorer_layout_tick_duration_seconds",
			Help:    "Time spent in one simulation tick",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02, 0.05},
		},
	)

	r.LayoutActiveNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_layout_active_nodes",
			Help: "Nodes participating in the simulation",
		},
	)

	r.LayoutAlpha = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_layout_alpha",
			Help: "Current simulation energy",
		},
	)

	r.VisibleNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_visible_nodes",
			Help: "Nodes in the current visibility set",
		},
	)
}
