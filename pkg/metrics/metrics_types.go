package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the explorer
type Registry struct {
	// Graph Metrics
	GraphNodesTotal      prometheus.Gauge
	GraphLinksTotal      prometheus.Gauge
	MutationsTotal       *prometheus.CounterVec
	ConfirmationsTotal   *prometheus.CounterVec
	PurgedNodesTotal     prometheus.Counter
	NavigationsTotal     *prometheus.CounterVec
	LinkModeActionsTotal *prometheus.CounterVec

	// Layout Metrics
	LayoutTickDuration prometheus.Histogram
	LayoutActiveNodes  prometheus.Gauge
	LayoutAlpha        prometheus.Gauge
	VisibleNodes       prometheus.Gauge

	// Persistence Metrics
	SnapshotSavesTotal   *prometheus.CounterVec
	SnapshotLoadsTotal   *prometheus.CounterVec
	SnapshotSaveDuration *prometheus.HistogramVec
	SnapshotSizeBytes    *prometheus.HistogramVec
	ExternalChangesTotal prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGraphMetrics()
	r.initLayoutMetrics()
	r.initPersistenceMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
