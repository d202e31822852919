package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPersistenceMetrics() {
	r.SnapshotSavesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_snapshot_saves_total",
			Help: "Snapshot saves by backend and status",
		},
		[]string{"backend", "status"},
	)

	r.SnapshotLoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_snapshot_loads_total",
			Help: "Snapshot loads by backend and status",
		},
		[]string{"backend", "status"},
	)

	r.SnapshotSaveDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_snapshot_save_duration_seconds",
			Help:    "Snapshot save duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"backend"},
	)

	r.SnapshotSizeBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_snapshot_size_bytes",
			Help:    "Encoded snapshot size in bytes",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"backend"},
	)

	r.ExternalChangesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_snapshot_external_changes_total",
			Help: "Snapshot file changes made outside the explorer",
		},
	)
}
