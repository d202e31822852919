// Package layout runs the force simulation that positions nodes. Only the
// nodes within a bounded number of hops of the focus are simulated on each
// frame; the rest hold their positions until the focus comes near them again.
package layout

import (
	"sync"
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// Simulation is a decaying force simulation in the style of d3-force. Alpha
// is the energy left in the system: it decays toward a target every tick and
// the simulation sleeps once it drops below Config.AlphaMin.
type Simulation struct {
	cfg     Config
	logger  logging.Logger
	metrics *metrics.Registry

	mu          sync.Mutex
	alpha       float64
	alphaTarget float64
	dragID      storage.NodeID
	dragTarget  Vector
}

// NewSimulation creates a simulation starting at full energy.
func NewSimulation(cfg Config, logger logging.Logger, m *metrics.Registry) *Simulation {
	return &Simulation{
		cfg:     cfg.WithDefaults(),
		logger:  logging.OrNop(logger).With(logging.Component("layout")),
		metrics: m,
		alpha:   1,
	}
}

// Config returns the effective configuration.
func (s *Simulation) Config() Config { return s.cfg }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Settled reports whether the simulation has gone to sleep.
func (s *Simulation) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settledLocked()
}

func (s *Simulation) settledLocked() bool {
	return s.alpha < s.cfg.AlphaMin && s.alphaTarget < s.cfg.AlphaMin
}

// Reheat raises alpha to at least a. A non-positive a uses Config.ReheatAlpha.
// Structural mutations call it so the layout visibly reorganizes.
func (s *Simulation) Reheat(a float64) {
	if a <= 0 {
		a = s.cfg.ReheatAlpha
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alpha < a {
		s.alpha = a
	}
}

// Drag starts or moves a pointer drag of node id toward target. While a drag
// is held the simulation stays warm.
func (s *Simulation) Drag(id storage.NodeID, target Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragID = id
	s.dragTarget = target
	s.alphaTarget = s.cfg.ReheatAlpha
	if s.alpha < s.cfg.ReheatAlpha {
		s.alpha = s.cfg.ReheatAlpha
	}
}

// Release ends the pointer drag and lets the simulation cool down.
func (s *Simulation) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragID = ""
	s.alphaTarget = 0
}

// Dragging returns the node being dragged, if any.
func (s *Simulation) Dragging() (storage.NodeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragID, s.dragID != ""
}

// Step advances the given nodes by one frame of dt. Nodes not passed in are
// untouched. It reports whether anything moved.
func (s *Simulation) Step(nodes []*storage.Node, links []*storage.Link, dt time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	scale := s.cfg.frameScale(dt)
	if scale == 0 || len(nodes) == 0 || s.settledLocked() {
		return false
	}

	s.alpha += (s.alphaTarget - s.alpha) * (1 - pow1m(s.cfg.AlphaDecay, scale))
	alpha := s.alpha * scale

	index := make(map[storage.NodeID]*storage.Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}

	applyCharge(nodes, s.cfg.Charge, alpha)
	applyLinks(index, links, s.cfg.LinkDistance, s.cfg.LinkStrength, alpha)
	applyCollide(nodes, s.cfg.CollideRadius, s.cfg.CollideStrength, scale)
	if s.dragID != "" {
		if n, ok := index[s.dragID]; ok {
			applyDrag(n, s.dragTarget, s.cfg.DragStrength, s.cfg.DragFalloff, scale)
		}
	}
	integrate(nodes, s.cfg.VelocityDecay, scale)
	applyCenter(nodes, s.cfg.CenterStrength, scale)
	return true
}

// Tick resolves the active set of state around its focus and steps it.
func (s *Simulation) Tick(state *storage.State, dt time.Duration) bool {
	if s.Settled() {
		return false
	}
	start := time.Now()
	nodes, links := ActiveSet(state, s.cfg.ActiveDepth)
	moved := s.Step(nodes, links, dt)
	s.metrics.RecordTick(time.Since(start), len(nodes), s.Alpha())
	return moved
}
