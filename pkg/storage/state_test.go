package storage

import (
	"errors"
	"testing"
)

func newTestState(t *testing.T) (*State, NodeID) {
	t.Helper()
	s := NewRootState("Root")
	return s, s.RootID()
}

func mustAdd(t *testing.T, s *State, label string) NodeID {
	t.Helper()
	n, err := s.AddNode(Node{Label: label})
	if err != nil {
		t.Fatalf("AddNode(%s) failed: %v", label, err)
	}
	return n.ID
}

func mustLink(t *testing.T, s *State, a, b NodeID, typ string) *Link {
	t.Helper()
	l, err := s.UpsertLink(a, b, typ)
	if err != nil {
		t.Fatalf("UpsertLink failed: %v", err)
	}
	return l
}

func TestAddNode(t *testing.T) {
	s, root := newTestState(t)

	if s.Focus() != root {
		t.Errorf("first node should become focus, got %q", s.Focus())
	}

	n, err := s.AddNode(Node{Label: "A", Alpha: 0.7})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if n.ID == "" {
		t.Error("AddNode should assign an id")
	}
	if n.Alpha != 0 {
		t.Errorf("new node alpha = %v, want 0", n.Alpha)
	}
	if s.Focus() != root {
		t.Error("adding a node must not move an existing focus")
	}

	if _, err := s.AddNode(Node{ID: n.ID}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate id: got %v, want ErrDuplicateNode", err)
	}
	if _, err := s.AddNode(Node{IsRoot: true}); !errors.Is(err, ErrDuplicateRoot) {
		t.Errorf("second root: got %v, want ErrDuplicateRoot", err)
	}
}

func TestRemoveNode(t *testing.T) {
	s, root := newTestState(t)
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")
	mustLink(t, s, root, a, "rel")
	mustLink(t, s, a, b, "rel")
	if err := s.SetSlot(2, a); err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveNode(a); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}
	if s.HasNode(a) {
		t.Error("node should be gone")
	}
	if s.LinkCount() != 0 {
		t.Errorf("links touching the node should cascade, %d left", s.LinkCount())
	}
	if slot, _ := s.Slot(2); slot != "" {
		t.Errorf("slot referencing removed node should be nulled, got %q", slot)
	}

	if err := s.RemoveNode(root); !errors.Is(err, ErrRootImmortal) {
		t.Errorf("RemoveNode(root) = %v, want ErrRootImmortal", err)
	}
	if err := s.RemoveNode("missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("RemoveNode(missing) = %v, want ErrNodeNotFound", err)
	}
	if !s.HasNode(b) {
		t.Error("unrelated node should survive")
	}
}

func TestUpsertLink(t *testing.T) {
	s, root := newTestState(t)
	a := mustAdd(t, s, "A")

	first := mustLink(t, s, root, a, "rel")
	second := mustLink(t, s, a, root, "part")

	if s.LinkCount() != 1 {
		t.Fatalf("expected one link between the pair, got %d", s.LinkCount())
	}
	if first.ID != second.ID {
		t.Error("upsert should reuse the existing link")
	}
	if second.Source != a || second.Target != root || second.Type != "part" {
		t.Errorf("link should be re-oriented and retyped, got %+v", second)
	}

	if _, err := s.UpsertLink(a, a, "rel"); !errors.Is(err, ErrSelfLink) {
		t.Errorf("self link: got %v", err)
	}
	if _, err := s.UpsertLink(a, "ghost", "rel"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("dangling target: got %v", err)
	}

	if !s.RemoveLink(first.ID) {
		t.Error("RemoveLink should report removal")
	}
	if s.RemoveLink(first.ID) {
		t.Error("removing twice should be a no-op")
	}
}

func TestSlots(t *testing.T) {
	s, root := newTestState(t)
	a := mustAdd(t, s, "A")

	if err := s.SetSlot(0, a); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveSlot(0, 3); err != nil {
		t.Fatal(err)
	}
	slots := s.Slots()
	if slots[0] != "" || slots[3] != a {
		t.Errorf("MoveSlot result = %v", slots)
	}
	if err := s.SetSlot(4, root); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("SetSlot(4) = %v, want ErrInvalidSlot", err)
	}
	if err := s.SetSlot(1, "ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("SetSlot(ghost) = %v", err)
	}
	if err := s.ClearSlot(3); err != nil {
		t.Fatal(err)
	}
	if slot, _ := s.Slot(3); slot != "" {
		t.Error("ClearSlot should empty the slot")
	}
}

func TestHistory(t *testing.T) {
	s, root := newTestState(t)

	ids := make([]NodeID, 0, MaxHistory+5)
	for i := 0; i < MaxHistory+5; i++ {
		ids = append(ids, mustAdd(t, s, "n"))
	}
	for _, id := range ids {
		s.PushHistory(id)
	}

	h := s.History()
	if len(h) != MaxHistory {
		t.Fatalf("history length = %d, want %d", len(h), MaxHistory)
	}
	if h[0] != ids[5] {
		t.Error("oldest entries should be evicted first")
	}

	s.PushHistory(ids[len(ids)-1])
	if len(s.History()) != MaxHistory {
		t.Error("pushing the current top again should not grow the stack")
	}

	// Top entry deleted, next entry is the focus: both skipped.
	top := ids[len(ids)-1]
	below := ids[len(ids)-2]
	if err := s.RemoveNode(top); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFocus(below); err != nil {
		t.Fatal(err)
	}
	got, ok := s.PopHistory()
	if !ok || got != ids[len(ids)-3] {
		t.Errorf("PopHistory() = %q, %v; want %q", got, ok, ids[len(ids)-3])
	}

	s.PruneHistory()
	for _, id := range s.History() {
		if !s.HasNode(id) {
			t.Errorf("PruneHistory left dangling entry %q", id)
		}
	}
	_ = root
}

func TestViewLayersAndPresets(t *testing.T) {
	s, _ := newTestState(t)

	if s.ViewLayers() != DefaultViewLayers {
		t.Errorf("default view layers = %d", s.ViewLayers())
	}
	if err := s.SetViewLayers(8); !errors.Is(err, ErrInvalidViewLayers) {
		t.Errorf("SetViewLayers(8) = %v", err)
	}
	if err := s.SetViewLayers(5); err != nil || s.ViewLayers() != 5 {
		t.Errorf("SetViewLayers(5) = %v, layers %d", err, s.ViewLayers())
	}

	good := []Preset{{Label: "Related", Value: "rel", Color: "#888888"}, {Label: "Part of", Value: "part"}}
	if err := s.SetPresets(good); err != nil {
		t.Fatalf("SetPresets failed: %v", err)
	}

	bad := []Preset{{Label: "A", Value: "x"}, {Label: "B", Value: "x"}}
	if err := s.SetPresets(bad); !errors.Is(err, ErrInvalidPresets) {
		t.Errorf("duplicate values: got %v", err)
	}
	if len(s.Presets()) != 2 || s.Presets()[0].Value != "rel" {
		t.Error("rejected preset table must leave the old one in place")
	}

	if err := s.SetPresets([]Preset{{Label: "Empty"}}); !errors.Is(err, ErrInvalidPresets) {
		t.Errorf("empty value: got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, root := newTestState(t)
	a := mustAdd(t, s, "A")
	mustLink(t, s, root, a, "rel")

	c := s.Clone()
	c.nodes[a].Label = "changed"
	if err := c.RemoveNode(a); err != nil {
		t.Fatal(err)
	}

	if n, _ := s.Node(a); n.Label != "A" {
		t.Error("clone must not share node values")
	}
	if s.LinkCount() != 1 || !s.HasNode(a) {
		t.Error("clone mutations leaked into the original")
	}
}

func TestNeighborsAndAdjacency(t *testing.T) {
	s, root := newTestState(t)
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")
	mustLink(t, s, root, a, "rel")
	mustLink(t, s, b, root, "rel")

	n := s.Neighbors(root)
	if len(n) != 2 || n[0] != a || n[1] != b {
		t.Errorf("Neighbors(root) = %v", n)
	}
	adj := s.Adjacency()
	if len(adj[b]) != 1 || adj[b][0] != root {
		t.Errorf("adjacency should be undirected, got %v", adj[b])
	}
	if _, ok := s.LinkBetween(root, b); !ok {
		t.Error("LinkBetween should ignore direction")
	}
}
