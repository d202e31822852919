package storage

import (
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

// AddNode inserts n, assigning a fresh id when n.ID is empty. New nodes start
// fully transparent so they fade in. The first node added becomes the focus.
func (s *State) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		n.ID = NewNodeID()
	}
	if _, exists := s.nodes[n.ID]; exists {
		return nil, NewError("AddNode").Node(n.ID).Cause(ErrDuplicateNode).Err()
	}
	if n.IsRoot {
		if _, ok := s.Root(); ok {
			return nil, NewError("AddNode").Node(n.ID).Cause(ErrDuplicateRoot).Err()
		}
	}
	n.Alpha = 0

	node := &n
	s.nodes[n.ID] = node
	s.nodeOrder = append(s.nodeOrder, n.ID)
	if s.focus == "" {
		s.focus = n.ID
	}
	return node, nil
}

// RemoveNode deletes a non-root node, every link touching it and every slot
// referencing it. History entries are left for lazy pruning. The focus is not
// moved; callers removing the focus must pick a new one.
func (s *State) RemoveNode(id NodeID) error {
	n, ok := s.nodes[id]
	if !ok {
		return NodeNotFoundError("RemoveNode", id)
	}
	if n.IsRoot {
		return NewError("RemoveNode").Node(id).Cause(ErrRootImmortal).Err()
	}

	for _, l := range s.IncidentLinks(id) {
		s.RemoveLink(l.ID)
	}
	for i := range s.slots {
		if s.slots[i] == id {
			s.slots[i] = ""
		}
	}
	delete(s.nodes, id)
	s.nodeOrder = slices.DeleteFunc(s.nodeOrder, func(x NodeID) bool { return x == id })
	return nil
}

// UpsertLink creates a link from source to target, or, when any link already
// joins the pair, overwrites its type and re-orients it to (source, target).
// At most one link exists between two nodes.
func (s *State) UpsertLink(source, target NodeID, typ string) (*Link, error) {
	if source == target {
		return nil, NewError("UpsertLink").Node(source).Cause(ErrSelfLink).Err()
	}
	if !s.HasNode(source) {
		return nil, NodeNotFoundError("UpsertLink", source)
	}
	if !s.HasNode(target) {
		return nil, NodeNotFoundError("UpsertLink", target)
	}

	if l, ok := s.LinkBetween(source, target); ok {
		l.Source, l.Target, l.Type = source, target, typ
		return l, nil
	}

	l := &Link{ID: NewLinkID(), Source: source, Target: target, Type: typ}
	s.links[l.ID] = l
	s.linkOrder = append(s.linkOrder, l.ID)
	return l, nil
}

// RemoveLink removes a link by identity. It reports whether anything was removed.
func (s *State) RemoveLink(id LinkID) bool {
	if _, ok := s.links[id]; !ok {
		return false
	}
	delete(s.links, id)
	s.linkOrder = slices.DeleteFunc(s.linkOrder, func(x LinkID) bool { return x == id })
	return true
}

// SetFocus replaces the focus. It does not touch history.
func (s *State) SetFocus(id NodeID) error {
	if !s.HasNode(id) {
		return NodeNotFoundError("SetFocus", id)
	}
	s.focus = id
	return nil
}

// SetSlot stores id in slot i.
func (s *State) SetSlot(i int, id NodeID) error {
	if i < 0 || i >= SlotCount {
		return NewError("SetSlot").Slot(i).Cause(ErrInvalidSlot).Err()
	}
	if id != "" && !s.HasNode(id) {
		return NodeNotFoundError("SetSlot", id)
	}
	s.slots[i] = id
	return nil
}

// ClearSlot empties slot i.
func (s *State) ClearSlot(i int) error {
	return s.SetSlot(i, "")
}

// MoveSlot moves the reference in slot from into slot to, emptying from.
// Whatever slot to held before is overwritten.
func (s *State) MoveSlot(from, to int) error {
	if from < 0 || from >= SlotCount {
		return NewError("MoveSlot").Slot(from).Cause(ErrInvalidSlot).Err()
	}
	if to < 0 || to >= SlotCount {
		return NewError("MoveSlot").Slot(to).Cause(ErrInvalidSlot).Err()
	}
	if from == to {
		return nil
	}
	s.slots[to] = s.slots[from]
	s.slots[from] = ""
	return nil
}

// PushHistory records id as the most recent history entry, evicting the
// oldest entry once MaxHistory is exceeded. Repeating the top entry is a no-op.
func (s *State) PushHistory(id NodeID) {
	if id == "" {
		return
	}
	if n := len(s.history); n > 0 && s.history[n-1] == id {
		return
	}
	s.history = append(s.history, id)
	if over := len(s.history) - MaxHistory; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
}

// PopHistory removes entries from the top of the stack until it finds one
// that still exists and is not the current focus, and returns it.
func (s *State) PopHistory() (NodeID, bool) {
	for len(s.history) > 0 {
		top := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		if top != s.focus && s.HasNode(top) {
			return top, true
		}
	}
	return "", false
}

// PruneHistory drops entries referencing nodes that no longer exist.
func (s *State) PruneHistory() {
	s.history = slices.DeleteFunc(s.history, func(id NodeID) bool { return !s.HasNode(id) })
}

// SetViewLayers sets the focus traversal radius (1-7).
func (s *State) SetViewLayers(n int) error {
	if err := validation.ViewLayers(n); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidViewLayers, err)
	}
	s.viewLayers = n
	return nil
}

// SetPresets replaces the preset table after validating it.
func (s *State) SetPresets(presets []Preset) error {
	if err := ValidatePresets(presets); err != nil {
		return err
	}
	s.presets = slices.Clone(presets)
	return nil
}

// ValidatePresets enforces the preset table invariants: every entry well
// formed, values non-empty and unique, count capped.
func ValidatePresets(presets []Preset) error {
	values := make([]string, len(presets))
	for i := range presets {
		if err := validation.Struct(&presets[i]); err != nil {
			return fmt.Errorf("%w: preset %d: %w", ErrInvalidPresets, i, err)
		}
		values[i] = presets[i].Value
	}
	if err := validation.PresetValues(values); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPresets, err)
	}
	return nil
}
