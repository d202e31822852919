package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_graph_nodes_total",
			Help: "Number of nodes in the graph",
		},
	)

	r.GraphLinksTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_graph_links_total",
			Help: "Number of links in the graph",
		},
	)

	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_graph_mutations_total",
			Help: "Structural mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	r.ConfirmationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_graph_confirmations_total",
			Help: "Destructive-change confirmations by outcome",
		},
		[]string{"outcome"},
	)

	r.PurgedNodesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_graph_purged_nodes_total",
			Help: "Nodes removed because they became unreachable",
		},
	)

	r.NavigationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_navigations_total",
			Help: "Focus transitions by kind",
		},
		[]string{"kind"},
	)

	r.LinkModeActionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_link_mode_actions_total",
			Help: "Link-mode arrivals by action",
		},
		[]string{"action"},
	)
}
