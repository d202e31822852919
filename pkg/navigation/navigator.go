// Package navigation moves the focus: directly, by screen direction, by
// cycling a preview around the focus's neighbors, or back through history.
// Every focus change is proposed through the reachability guard because it
// changes the anchor set.
package navigation

import (
	"errors"
	"sync"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/reachability"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

var (
	ErrNoHistory   = errors.New("no earlier focus to return to")
	ErrNoNeighbor  = errors.New("no neighbor in that direction")
	ErrNoPreview   = errors.New("no preview selected")
	ErrEmptyTarget = errors.New("navigation target is empty")
)

// Navigator owns the view rotation and the cycling preview.
type Navigator struct {
	store   *storage.Store
	guard   *reachability.Guard
	logger  logging.Logger
	metrics *metrics.Registry

	mu       sync.Mutex
	rotation float64
	preview  storage.NodeID
}

// NewNavigator creates a navigator proposing focus changes through guard.
func NewNavigator(store *storage.Store, guard *reachability.Guard, logger logging.Logger, m *metrics.Registry) *Navigator {
	return &Navigator{
		store:   store,
		guard:   guard,
		logger:  logging.OrNop(logger).With(logging.Component("navigation")),
		metrics: m,
	}
}

// Rotation returns the current view rotation in radians.
func (n *Navigator) Rotation() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rotation
}

// SetRotation replaces the view rotation.
func (n *Navigator) SetRotation(r float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotation = Normalize(r)
}

// Preview returns the node selected by cycling, or "".
func (n *Navigator) Preview() storage.NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.preview
}

// ClearPreview drops the cycling selection.
func (n *Navigator) ClearPreview() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.preview = ""
}

// Focus proposes moving the focus to target and pushing the previous focus
// onto history. Moving to the current focus is a no-op. A non-nil Pending
// means the move strands nodes and waits for confirmation.
func (n *Navigator) Focus(target storage.NodeID) (*reachability.Pending, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	if target == n.store.Current().Focus() {
		return nil, nil
	}
	p, err := n.guard.Propose("navigate", FocusTransition(target))
	if err == nil {
		n.ClearPreview()
		n.metrics.RecordNavigation("focus")
	}
	return p, err
}

// FocusTransition sets the focus to target and records the previous focus.
func FocusTransition(target storage.NodeID) reachability.Transition {
	return func(s *storage.State) error {
		prev := s.Focus()
		if err := s.SetFocus(target); err != nil {
			return err
		}
		if prev != target {
			s.PushHistory(prev)
		}
		return nil
	}
}

// Resolve returns the neighbor of the focus lying in direction dir on screen.
func (n *Navigator) Resolve(dir Direction) (storage.NodeID, bool) {
	s := n.store.Current()
	b, ok := PickDirection(Bearings(s, s.Focus(), n.Rotation()), dir)
	return b.Node, ok
}

// Jump moves the focus toward dir. With no neighbor within tolerance the
// input is ignored and ErrNoNeighbor returned.
func (n *Navigator) Jump(dir Direction) (*reachability.Pending, error) {
	target, ok := n.Resolve(dir)
	if !ok {
		return nil, ErrNoNeighbor
	}
	return n.Focus(target)
}

// CyclePreview advances the preview around the focus's neighbors and
// counter-rotates the view so the preview sits straight up.
func (n *Navigator) CyclePreview(clockwise bool) (storage.NodeID, bool) {
	s := n.store.Current()

	n.mu.Lock()
	defer n.mu.Unlock()

	next, delta, ok := Cycle(Bearings(s, s.Focus(), n.rotation), clockwise)
	if !ok {
		return "", false
	}
	n.preview = next.Node
	n.rotation = Normalize(n.rotation + delta)
	n.metrics.RecordNavigation("cycle")
	return next.Node, true
}

// CommitPreview moves the focus to the previewed neighbor.
func (n *Navigator) CommitPreview() (*reachability.Pending, error) {
	target := n.Preview()
	if target == "" || !n.store.Current().HasNode(target) {
		n.ClearPreview()
		return nil, ErrNoPreview
	}
	return n.Focus(target)
}

// Back returns to the most recent valid history entry. It does not push the
// focus it leaves.
func (n *Navigator) Back() (*reachability.Pending, error) {
	if _, ok := n.store.Current().Clone().PopHistory(); !ok {
		return nil, ErrNoHistory
	}
	p, err := n.guard.Propose("back", func(s *storage.State) error {
		id, ok := s.PopHistory()
		if !ok {
			return ErrNoHistory
		}
		return s.SetFocus(id)
	})
	if err == nil {
		n.ClearPreview()
		n.metrics.RecordNavigation("back")
	}
	return p, err
}

// FocusAfterRemoval picks where the focus goes when removed is deleted: the
// most recent history entry that survives, else the first surviving
// neighbor of removed, else the root.
func FocusAfterRemoval(s *storage.State, removed storage.NodeID) storage.NodeID {
	h := s.History()
	for i := len(h) - 1; i >= 0; i-- {
		if id := h[i]; id != removed && s.HasNode(id) {
			return id
		}
	}
	for _, id := range s.Neighbors(removed) {
		if id != removed {
			return id
		}
	}
	return s.RootID()
}
