package metrics

import (
	"runtime"
	"time"
)

// All recorders accept a nil Registry so components can run unmetered.

// UpdateGraphSize sets the node and link gauges
func (r *Registry) UpdateGraphSize(nodes, links int) {
	if r == nil {
		return
	}
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphLinksTotal.Set(float64(links))
}

// RecordMutation records a structural mutation attempt
func (r *Registry) RecordMutation(operation, outcome string) {
	if r == nil {
		return
	}
	r.MutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordConfirmation records a step of the destructive-change dialogue
func (r *Registry) RecordConfirmation(outcome string) {
	if r == nil {
		return
	}
	r.ConfirmationsTotal.WithLabelValues(outcome).Inc()
}

// RecordPurge records nodes removed for being unreachable
func (r *Registry) RecordPurge(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.PurgedNodesTotal.Add(float64(count))
}

// RecordNavigation records a focus transition
func (r *Registry) RecordNavigation(kind string) {
	if r == nil {
		return
	}
	r.NavigationsTotal.WithLabelValues(kind).Inc()
}

// RecordLinkAction records what a link-mode arrival did
func (r *Registry) RecordLinkAction(action string) {
	if r == nil {
		return
	}
	r.LinkModeActionsTotal.WithLabelValues(action).Inc()
}

// RecordTick records one simulation tick
func (r *Registry) RecordTick(duration time.Duration, activeNodes int, alpha float64) {
	if r == nil {
		return
	}
	r.LayoutTickDuration.Observe(duration.Seconds())
	r.LayoutActiveNodes.Set(float64(activeNodes))
	r.LayoutAlpha.Set(alpha)
}

// SetVisibleNodes sets the visibility gauge
func (r *Registry) SetVisibleNodes(n int) {
	if r == nil {
		return
	}
	r.VisibleNodes.Set(float64(n))
}

// RecordSave records a snapshot save
func (r *Registry) RecordSave(backend, status string, duration time.Duration, size int) {
	if r == nil {
		return
	}
	r.SnapshotSavesTotal.WithLabelValues(backend, status).Inc()
	r.SnapshotSaveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if size > 0 {
		r.SnapshotSizeBytes.WithLabelValues(backend).Observe(float64(size))
	}
}

// RecordLoad records a snapshot load
func (r *Registry) RecordLoad(backend, status string) {
	if r == nil {
		return
	}
	r.SnapshotLoadsTotal.WithLabelValues(backend, status).Inc()
}

// RecordExternalChange records a snapshot edit made by another process
func (r *Registry) RecordExternalChange() {
	if r == nil {
		return
	}
	r.ExternalChangesTotal.Inc()
}

// UpdateSystemMetrics refreshes uptime and runtime gauges
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	if r == nil {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
