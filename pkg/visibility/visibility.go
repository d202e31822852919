// Package visibility decides which nodes and links are in view and eases
// their opacity toward that target every frame.
package visibility

import (
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

const (
	MinRadius = 1
	MaxRadius = 7

	// DefaultRate is the opacity change per second.
	DefaultRate = 3.0
)

// Origin is one traversal root: the focus with the view-layer radius, or
// the hovered and preview nodes with radius 1.
type Origin struct {
	Node   storage.NodeID
	Radius int
}

// Set is the union of every origin's traversal.
type Set struct {
	Nodes map[storage.NodeID]bool
	Links map[storage.LinkID]bool
}

// Visible reports whether node id is in the set.
func (v Set) Visible(id storage.NodeID) bool { return v.Nodes[id] }

// LinkVisible reports whether link id is in the set.
func (v Set) LinkVisible(id storage.LinkID) bool { return v.Links[id] }

// Compute runs an independent breadth-first traversal from each origin and
// unions the results. Origins that are empty or absent from s are skipped.
// A link is in the set when a traversal crosses it, which happens from any
// node visited at depth below that origin's radius.
func Compute(s *storage.State, origins ...Origin) Set {
	set := Set{
		Nodes: make(map[storage.NodeID]bool),
		Links: make(map[storage.LinkID]bool),
	}

	for _, o := range origins {
		if o.Node == "" || !s.HasNode(o.Node) {
			continue
		}
		radius := clampRadius(o.Radius)

		depth := map[storage.NodeID]int{o.Node: 0}
		queue := []storage.NodeID{o.Node}
		set.Nodes[o.Node] = true

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if depth[current] >= radius {
				continue
			}
			for _, l := range s.IncidentLinks(current) {
				set.Links[l.ID] = true
				next := l.Other(current)
				if _, seen := depth[next]; seen {
					continue
				}
				depth[next] = depth[current] + 1
				set.Nodes[next] = true
				queue = append(queue, next)
			}
		}
	}
	return set
}

// ForState computes the set for the usual three origins: the focus at the
// state's view-layer radius plus hover and preview at radius 1.
func ForState(s *storage.State, hover, preview storage.NodeID) Set {
	return Compute(s,
		Origin{Node: s.Focus(), Radius: s.ViewLayers()},
		Origin{Node: hover, Radius: 1},
		Origin{Node: preview, Radius: 1},
	)
}

func clampRadius(r int) int {
	if r < MinRadius {
		return MinRadius
	}
	if r > MaxRadius {
		return MaxRadius
	}
	return r
}

// Fader moves node and link opacities toward their targets at Rate per second.
type Fader struct {
	Rate float64
}

// NewFader returns a fader with rate, or DefaultRate when rate is not positive.
func NewFader(rate float64) *Fader {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Fader{Rate: rate}
}

// Step advances every opacity by dt. The focus is forced to 1. It reports
// whether any value is still short of its target.
func (f *Fader) Step(s *storage.State, set Set, dt time.Duration) bool {
	delta := f.Rate * dt.Seconds()
	animating := false

	for _, n := range s.Nodes() {
		if n.ID == s.Focus() {
			n.Alpha = 1
			continue
		}
		target := 0.0
		if set.Nodes[n.ID] {
			target = 1
		}
		n.Alpha = approach(n.Alpha, target, delta)
		animating = animating || n.Alpha != target
	}
	for _, l := range s.Links() {
		target := 0.0
		if set.Links[l.ID] {
			target = 1
		}
		l.Alpha = approach(l.Alpha, target, delta)
		animating = animating || l.Alpha != target
	}
	return animating
}

// Prime snaps everything to its target opacity. Used for the first paint
// after a load so nothing fades in.
func (f *Fader) Prime(s *storage.State, set Set) {
	for _, n := range s.Nodes() {
		n.Alpha = 0
		if set.Nodes[n.ID] || n.ID == s.Focus() {
			n.Alpha = 1
		}
	}
	for _, l := range s.Links() {
		l.Alpha = 0
		if set.Links[l.ID] {
			l.Alpha = 1
		}
	}
}

// approach moves v linearly toward target by at most delta, clamped to [0, 1].
func approach(v, target, delta float64) float64 {
	switch {
	case v < target:
		v += delta
		if v > target {
			v = target
		}
	case v > target:
		v -= delta
		if v < target {
			v = target
		}
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
