package storage

import (
	"github.com/google/uuid"
)

// NodeID identifies a node. It is stable across sessions.
type NodeID string

// LinkID identifies a link within a session.
type LinkID string

const (
	// SlotCount is the number of bookmark registers.
	SlotCount = 4
	// MaxHistory bounds the back-navigation stack; the oldest entry is evicted first.
	MaxHistory = 50
	// DefaultViewLayers is the focus traversal radius used when none is configured.
	DefaultViewLayers = 2
)

// NewNodeID returns a fresh random node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// NewLinkID returns a fresh random link identifier.
func NewLinkID() LinkID {
	return LinkID(uuid.NewString())
}

// Node is a labeled concept in the graph.
//
// X, Y, VX, VY and Alpha are transient: the layout engine owns position and
// velocity and the fade engine owns Alpha. Neither may add or remove nodes.
type Node struct {
	ID      NodeID
	Label   string
	IsRoot  bool
	Color   string
	Summary string
	Content string

	X, Y   float64
	VX, VY float64
	Alpha  float64
}

// Link is a typed relationship. Direction is recorded but traversal treats
// links as undirected.
type Link struct {
	ID     LinkID
	Source NodeID
	Target NodeID
	Type   string
	Alpha  float64
}

// Touches reports whether id is one of the link's endpoints.
func (l *Link) Touches(id NodeID) bool {
	return l.Source == id || l.Target == id
}

// Other returns the endpoint opposite id.
func (l *Link) Other(id NodeID) NodeID {
	if l.Source == id {
		return l.Target
	}
	return l.Source
}

// Connects reports whether the link joins a and b in either direction.
func (l *Link) Connects(a, b NodeID) bool {
	return (l.Source == a && l.Target == b) || (l.Source == b && l.Target == a)
}

// Preset is a named relationship type offered when creating links.
type Preset struct {
	Label string `json:"label" yaml:"label" validate:"required,max=40"`
	Value string `json:"value" yaml:"value" validate:"required,max=32"`
	Color string `json:"color" yaml:"color" validate:"omitempty,hexcolor"`
}

// NodeEdit carries the free-text fields a user may change on a node.
// Nil fields are left untouched.
type NodeEdit struct {
	Label   *string
	Summary *string
	Content *string
	Color   *string
}

// Apply writes the non-nil fields onto n.
func (e NodeEdit) Apply(n *Node) {
	if e.Label != nil {
		n.Label = *e.Label
	}
	if e.Summary != nil {
		n.Summary = *e.Summary
	}
	if e.Content != nil {
		n.Content = *e.Content
	}
	if e.Color != nil {
		n.Color = *e.Color
	}
}
