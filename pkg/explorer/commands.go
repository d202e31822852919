package explorer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-explorer/pkg/layout"
	"github.com/dd0wney/cluso-explorer/pkg/navigation"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-explorer/pkg/reachability"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

var (
	ErrNoPending  = errors.New("no change is awaiting confirmation")
	ErrEmptyLabel = errors.New("label must not be empty")
)

// DefaultChildLabel names nodes created without a label.
const DefaultChildLabel = "New node"

// propose routes a guarded transition and reports whether it committed or
// now awaits confirmation.
func (s *Session) propose(op string, t reachability.Transition) (reachability.Outcome, error) {
	p, err := s.guard.Propose(op, t)
	return s.settle(p, err)
}

func (s *Session) settle(p *reachability.Pending, err error) (reachability.Outcome, error) {
	if err != nil {
		s.fail(err)
		return reachability.Declined, err
	}
	if p != nil {
		return reachability.AwaitingConfirmation, nil
	}
	return reachability.Committed, nil
}

// update applies an unguarded edit that cannot change reachability. It is
// refused while a confirmation is open so the proposal does not go stale.
func (s *Session) update(op string, fn func(*storage.State) error) error {
	if s.guard.Pending() != nil {
		err := fmt.Errorf("%s: %w", op, reachability.ErrProposalPending)
		s.fail(err)
		return err
	}
	if err := s.store.Update(op, fn); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// AddChild creates a node linked from the focus and moves the focus to it.
// The link uses the first preset's type. When the change awaits
// confirmation the returned id names the node it will create.
func (s *Session) AddChild(label string) (storage.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultChildLabel
	}
	if len(label) > validation.MaxLabelLength {
		err := fmt.Errorf("label longer than %d characters", validation.MaxLabelLength)
		s.fail(err)
		return "", err
	}

	// Identity and placement are fixed up front so a confirmed re-run of the
	// transition creates the same node.
	cur := s.store.Current()
	parent, ok := cur.Node(cur.Focus())
	if !ok {
		err := storage.NodeNotFoundError("AddChild", cur.Focus())
		s.fail(err)
		return "", err
	}
	childID := storage.NewNodeID()
	pos := layout.Jitter(s.rng, layout.Position(parent), s.sim.Config().LinkDistance/3)

	_, err := s.propose("add_child", func(st *storage.State) error {
		child, err := st.AddNode(storage.Node{ID: childID, Label: label, X: pos.X, Y: pos.Y})
		if err != nil {
			return err
		}
		if _, err := st.UpsertLink(parent.ID, child.ID, defaultLinkType(st)); err != nil {
			return err
		}
		return navigation.FocusTransition(child.ID)(st)
	})
	if err != nil {
		return "", err
	}
	s.nav.ClearPreview()
	return childID, nil
}

func defaultLinkType(st *storage.State) string {
	if presets := st.Presets(); len(presets) > 0 {
		return presets[0].Value
	}
	return snapshot.DefaultPresets()[0].Value
}

// DeleteNode removes id with its links. Deleting the focus first moves the
// focus to the most recent surviving history entry, a neighbor, or the root.
func (s *Session) DeleteNode(id storage.NodeID) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteNode(id)
}

// DeleteFocus deletes the focused node.
func (s *Session) DeleteFocus() (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteNode(s.store.Current().Focus())
}

func (s *Session) deleteNode(id storage.NodeID) (reachability.Outcome, error) {
	outcome, err := s.propose("delete_node", func(st *storage.State) error {
		if st.Focus() == id {
			if err := st.SetFocus(navigation.FocusAfterRemoval(st, id)); err != nil {
				return err
			}
		}
		return st.RemoveNode(id)
	})
	if err == nil && outcome == reachability.Committed {
		s.forgetMissing()
	}
	return outcome, err
}

// Unlink removes the link between a and b in either direction.
func (s *Session) Unlink(a, b storage.NodeID) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propose("delete_link", unlinkTransition(a, b))
}

func unlinkTransition(a, b storage.NodeID) reachability.Transition {
	return func(st *storage.State) error {
		l, ok := st.LinkBetween(a, b)
		if !ok {
			return storage.NewError("Unlink").Context(fmt.Sprintf("%s - %s", a, b)).Cause(storage.ErrLinkNotFound).Err()
		}
		st.RemoveLink(l.ID)
		return nil
	}
}

// Navigate moves the focus to target. In active link mode arriving at a node
// other than the source performs the link action instead.
func (s *Session) Navigate(target storage.NodeID) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(target)
}

func (s *Session) navigate(target storage.NodeID) (reachability.Outcome, error) {
	if s.guard.Pending() != nil {
		return s.settle(nil, fmt.Errorf("navigate: %w", reachability.ErrProposalPending))
	}
	if action, ok := s.links.Arrive(target); ok {
		return s.executeLink(action)
	}
	return s.settle(s.nav.Focus(target))
}

// Jump moves toward the neighbor in direction dir on screen. Without a
// neighbor within tolerance nothing happens and ErrNoNeighbor is returned.
func (s *Session) Jump(dir navigation.Direction) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.nav.Resolve(dir)
	if !ok {
		return reachability.Declined, navigation.ErrNoNeighbor
	}
	return s.navigate(target)
}

// CyclePreview advances the preview around the focus's neighbors.
func (s *Session) CyclePreview(clockwise bool) (storage.NodeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.CyclePreview(clockwise)
}

// CommitPreview navigates to the previewed neighbor.
func (s *Session) CommitPreview() (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.nav.Preview()
	if target == "" || !s.store.Current().HasNode(target) {
		s.nav.ClearPreview()
		return reachability.Declined, navigation.ErrNoPreview
	}
	return s.navigate(target)
}

// Back returns to the previous focus.
func (s *Session) Back() (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.nav.Back()
	if errors.Is(err, navigation.ErrNoHistory) {
		return reachability.Declined, err
	}
	return s.settle(p, err)
}

// Hover sets the secondary traversal origin; "" clears it.
func (s *Session) Hover(id storage.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && !s.store.Current().HasNode(id) {
		id = ""
	}
	s.hover = id
}

// StoreSlot bookmarks the focus in slot i.
func (s *Session) StoreSlot(i int) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propose("store_slot", func(st *storage.State) error {
		return st.SetSlot(i, st.Focus())
	})
}

// RecallSlot navigates to the node bookmarked in slot i.
func (s *Session) RecallSlot(i int) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.store.Current().Slot(i)
	if err != nil {
		return s.settle(nil, err)
	}
	if id == "" {
		s.notice(pubsub.SeverityInfo, fmt.Sprintf("Slot %d is empty.", i+1))
		return reachability.Declined, nil
	}
	return s.navigate(id)
}

// ClearSlot empties slot i. Nodes held only by that bookmark need confirmation.
func (s *Session) ClearSlot(i int) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propose("clear_slot", func(st *storage.State) error { return st.ClearSlot(i) })
}

// MoveSlot moves the bookmark in slot from to slot to, replacing its content.
func (s *Session) MoveSlot(from, to int) (reachability.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propose("move_slot", func(st *storage.State) error { return st.MoveSlot(from, to) })
}

// EditNode changes free-text fields. It bypasses the guard.
func (s *Session) EditNode(id storage.NodeID, edit storage.NodeEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edit.Label != nil {
		label := strings.TrimSpace(*edit.Label)
		if label == "" {
			s.fail(ErrEmptyLabel)
			return ErrEmptyLabel
		}
		edit.Label = &label
	}
	if err := s.store.EditNode(id, edit); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// SetViewLayers changes the focus traversal radius.
func (s *Session) SetViewLayers(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update("set_view_layers", func(st *storage.State) error { return st.SetViewLayers(n) })
}

// SetPresets replaces the preset table after validating it.
func (s *Session) SetPresets(presets []storage.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update("set_presets", func(st *storage.State) error { return st.SetPresets(presets) })
}

// ImportPresets decodes a preset table and installs it. Undecodable data is
// rejected with a notice that tells unparseable from wrong-shape input.
func (s *Session) ImportPresets(data []byte, format snapshot.Format) error {
	presets, err := snapshot.DecodePresets(data, format)
	if err != nil {
		s.fail(err)
		return err
	}
	return s.SetPresets(presets)
}

// Drag pulls node id toward (x, y) in layout space.
func (s *Session) Drag(id storage.NodeID, x, y float64) {
	s.sim.Drag(id, layout.Vector{X: x, Y: y})
}

// Release ends a pointer drag.
func (s *Session) Release() {
	s.sim.Release()
}

// Pending returns the open confirmation prompt, if any.
func (s *Session) Pending() (reachability.Prompt, bool) {
	p := s.guard.Pending()
	if p == nil {
		return reachability.Prompt{}, false
	}
	return p.Prompt(), true
}

// Confirm accepts the open confirmation: the edit is applied and every node
// it strands is purged in one commit.
func (s *Session) Confirm() (reachability.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.guard.Pending()
	if p == nil {
		return reachability.Result{}, ErrNoPending
	}
	res, err := p.Confirm()
	if err != nil {
		s.fail(err)
		return res, err
	}
	s.forgetMissing()
	s.nav.ClearPreview()
	s.sim.Reheat(1)
	if n := len(res.Purged); n > 0 {
		s.notice(pubsub.SeverityInfo, fmt.Sprintf("Removed %d unreachable %s.", n, plural(n, "node", "nodes")))
	}
	return res, nil
}

// Decline abandons the open confirmation. Nothing changes.
func (s *Session) Decline() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.guard.Pending()
	if p == nil {
		return ErrNoPending
	}
	p.Decline()
	return nil
}

// Cancel backs out of whatever is in progress: an open confirmation, then
// link mode, then the preview. It reports whether anything was cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.guard.Pending(); p != nil {
		p.Decline()
		return true
	}
	if s.links.Cancel() {
		s.metrics.RecordLinkAction("cancel")
		return true
	}
	if s.nav.Preview() != "" {
		s.nav.ClearPreview()
		return true
	}
	return false
}

// forgetMissing drops session references to nodes that no longer exist.
func (s *Session) forgetMissing() {
	cur := s.store.Current()
	if s.hover != "" && !cur.HasNode(s.hover) {
		s.hover = ""
	}
	if p := s.nav.Preview(); p != "" && !cur.HasNode(p) {
		s.nav.ClearPreview()
	}
	if src := s.links.Source(); src != "" && !cur.HasNode(src) {
		s.links.Abort()
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
