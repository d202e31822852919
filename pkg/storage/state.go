package storage

import (
	"slices"
)

// State is the canonical graph aggregate: nodes, links, slots, focus,
// history, view radius and relationship presets. Everything is addressed by
// ID; links never hold pointers into the node set.
//
// A State is not safe for concurrent use. The Store hands out the live State
// for reads on the event loop and applies structural changes to clones.
type State struct {
	nodes     map[NodeID]*Node
	nodeOrder []NodeID
	links     map[LinkID]*Link
	linkOrder []LinkID

	slots      [SlotCount]NodeID
	focus      NodeID
	history    []NodeID
	viewLayers int
	presets    []Preset
}

// NewState returns an empty state with default view layers.
func NewState() *State {
	return &State{
		nodes:      make(map[NodeID]*Node),
		links:      make(map[LinkID]*Link),
		viewLayers: DefaultViewLayers,
	}
}

// NewRootState returns a state holding a single root node, focused.
func NewRootState(label string) *State {
	s := NewState()
	root, _ := s.AddNode(Node{Label: label, IsRoot: true})
	root.Alpha = 1
	return s
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		nodes:      make(map[NodeID]*Node, len(s.nodes)),
		nodeOrder:  slices.Clone(s.nodeOrder),
		links:      make(map[LinkID]*Link, len(s.links)),
		linkOrder:  slices.Clone(s.linkOrder),
		slots:      s.slots,
		focus:      s.focus,
		history:    slices.Clone(s.history),
		viewLayers: s.viewLayers,
		presets:    slices.Clone(s.presets),
	}
	for id, n := range s.nodes {
		cp := *n
		c.nodes[id] = &cp
	}
	for id, l := range s.links {
		cp := *l
		c.links[id] = &cp
	}
	return c
}

// Node returns the node with the given id.
func (s *State) Node(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// HasNode reports whether id is present.
func (s *State) HasNode(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (s *State) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id])
	}
	return out
}

// NodeIDs returns all node ids in insertion order.
func (s *State) NodeIDs() []NodeID {
	return slices.Clone(s.nodeOrder)
}

func (s *State) NodeCount() int { return len(s.nodes) }

// Link returns the link with the given id.
func (s *State) Link(id LinkID) (*Link, bool) {
	l, ok := s.links[id]
	return l, ok
}

// Links returns all links in insertion order.
func (s *State) Links() []*Link {
	out := make([]*Link, 0, len(s.linkOrder))
	for _, id := range s.linkOrder {
		out = append(out, s.links[id])
	}
	return out
}

func (s *State) LinkCount() int { return len(s.links) }

// Root returns the root node, if any.
func (s *State) Root() (*Node, bool) {
	for _, id := range s.nodeOrder {
		if n := s.nodes[id]; n.IsRoot {
			return n, true
		}
	}
	return nil, false
}

// RootID returns the root's id or "" when there is none.
func (s *State) RootID() NodeID {
	if r, ok := s.Root(); ok {
		return r.ID
	}
	return ""
}

func (s *State) Focus() NodeID { return s.focus }

func (s *State) ViewLayers() int { return s.viewLayers }

// Slots returns a copy of the slot registers. Empty slots are "".
func (s *State) Slots() [SlotCount]NodeID { return s.slots }

// Slot returns the node held in slot i.
func (s *State) Slot(i int) (NodeID, error) {
	if i < 0 || i >= SlotCount {
		return "", NewError("Slot").Slot(i).Cause(ErrInvalidSlot).Err()
	}
	return s.slots[i], nil
}

// History returns the back-navigation stack, oldest first.
func (s *State) History() []NodeID { return slices.Clone(s.history) }

// Presets returns a copy of the relationship preset table.
func (s *State) Presets() []Preset { return slices.Clone(s.presets) }

// IncidentLinks returns every link touching id, in insertion order.
func (s *State) IncidentLinks(id NodeID) []*Link {
	var out []*Link
	for _, lid := range s.linkOrder {
		if l := s.links[lid]; l.Touches(id) {
			out = append(out, l)
		}
	}
	return out
}

// Neighbors returns the distinct nodes sharing a link with id.
func (s *State) Neighbors(id NodeID) []NodeID {
	var out []NodeID
	for _, l := range s.IncidentLinks(id) {
		other := l.Other(id)
		if !slices.Contains(out, other) {
			out = append(out, other)
		}
	}
	return out
}

// Adjacency builds an undirected adjacency list over the current links.
func (s *State) Adjacency() map[NodeID][]NodeID {
	adj := make(map[NodeID][]NodeID, len(s.nodes))
	for _, lid := range s.linkOrder {
		l := s.links[lid]
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}
	return adj
}

// LinkBetween finds the link joining a and b regardless of recorded direction.
func (s *State) LinkBetween(a, b NodeID) (*Link, bool) {
	for _, lid := range s.linkOrder {
		if l := s.links[lid]; l.Connects(a, b) {
			return l, true
		}
	}
	return nil, false
}
