package storage

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestStoreUpdate(t *testing.T) {
	store := NewStore(NewRootState("Root"), nil)

	var changes []Change
	store.OnCommit(func(c Change, _ *State) { changes = append(changes, c) })

	before := store.Current()
	err := store.Update("add", func(s *State) error {
		_, err := s.AddNode(Node{Label: "A"})
		return err
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if store.Current() == before {
		t.Error("Update should swap in a new state")
	}
	if before.NodeCount() != 1 {
		t.Error("the previous state must not be mutated")
	}
	if store.Revision() != 1 || len(changes) != 1 || !changes[0].Structural {
		t.Errorf("revision %d, changes %+v", store.Revision(), changes)
	}

	sentinel := errors.New("nope")
	err = store.Update("fail", func(s *State) error {
		s.AddNode(Node{Label: "B"})
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Update error = %v", err)
	}
	if store.Current().NodeCount() != 2 || store.Revision() != 1 {
		t.Error("a failed update must leave the store untouched")
	}
}

func TestStoreCommitStale(t *testing.T) {
	store := NewStore(NewRootState("Root"), nil)
	rev := store.Revision()
	next := store.Current().Clone()

	if err := store.Update("bump", func(*State) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := store.Commit("late", rev, next); !errors.Is(err, ErrStaleRevision) {
		t.Errorf("Commit on moved store = %v, want ErrStaleRevision", err)
	}
}

func TestStoreCarriesKinematics(t *testing.T) {
	store := NewStore(NewRootState("Root"), nil)
	root := store.Current().RootID()

	next := store.Current().Clone()
	rev := store.Revision()

	// The simulation keeps moving the live node while the proposal waits.
	live, _ := store.Current().Node(root)
	live.X, live.Y, live.Alpha = 42, -7, 0.5

	if err := store.Commit("noop", rev, next); err != nil {
		t.Fatal(err)
	}
	n, _ := store.Current().Node(root)
	if n.X != 42 || n.Y != -7 || n.Alpha != 0.5 {
		t.Errorf("kinematics not carried over: %+v", n)
	}
}

func TestStoreEditNode(t *testing.T) {
	store := NewStore(NewRootState("Root"), nil)
	root := store.Current().RootID()

	var structural []bool
	store.OnCommit(func(c Change, _ *State) { structural = append(structural, c.Structural) })

	label := "Renamed"
	if err := store.EditNode(root, NodeEdit{Label: &label}); err != nil {
		t.Fatal(err)
	}
	n, _ := store.Current().Node(root)
	if n.Label != "Renamed" {
		t.Errorf("label = %q", n.Label)
	}
	if store.Revision() != 0 {
		t.Error("field edits must not bump the structural revision")
	}
	if len(structural) != 1 || structural[0] {
		t.Errorf("observer saw %v", structural)
	}
	if err := store.EditNode("ghost", NodeEdit{}); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("EditNode(ghost) = %v", err)
	}
}

func TestStoreReplace(t *testing.T) {
	store := NewStore(nil, nil)
	var replaced bool
	store.OnCommit(func(c Change, s *State) { replaced = c.Replaced && s.NodeCount() == 1 })

	store.Replace("load", NewRootState("Loaded"))
	if !replaced {
		t.Error("observers should see the replaced state")
	}
}

// graphOp is one random step in a mutation sequence.
type graphOp struct {
	Kind int
	A, B int
}

func genOps() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 4),
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	).Map(func(v []any) graphOp {
		return graphOp{Kind: v[0].(int), A: v[1].(int), B: v[2].(int)}
	}))
}

func pick(ids []NodeID, i int) NodeID {
	if len(ids) == 0 {
		return ""
	}
	return ids[i%len(ids)]
}

func applyOps(s *State, ops []graphOp) {
	for _, op := range ops {
		ids := s.NodeIDs()
		switch op.Kind {
		case 0:
			s.AddNode(Node{Label: "n"})
		case 1:
			s.UpsertLink(pick(ids, op.A), pick(ids, op.B), "rel")
		case 2:
			s.RemoveNode(pick(ids, op.A))
		case 3:
			if links := s.Links(); len(links) > 0 {
				s.RemoveLink(links[op.A%len(links)].ID)
			}
		case 4:
			s.SetSlot(op.B%SlotCount, pick(ids, op.A))
		}
	}
}

func TestGraphInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("links never dangle", prop.ForAll(
		func(ops []graphOp) bool {
			s := NewRootState("Root")
			applyOps(s, ops)
			for _, l := range s.Links() {
				if !s.HasNode(l.Source) || !s.HasNode(l.Target) {
					return false
				}
			}
			return true
		},
		genOps(),
	))

	properties.Property("root survives every sequence", prop.ForAll(
		func(ops []graphOp) bool {
			s := NewRootState("Root")
			root := s.RootID()
			applyOps(s, ops)
			r, ok := s.Root()
			return ok && r.ID == root
		},
		genOps(),
	))

	properties.Property("at most one link per unordered pair", prop.ForAll(
		func(ops []graphOp) bool {
			s := NewRootState("Root")
			applyOps(s, ops)
			seen := make(map[[2]NodeID]bool)
			for _, l := range s.Links() {
				key := [2]NodeID{l.Source, l.Target}
				if l.Target < l.Source {
					key = [2]NodeID{l.Target, l.Source}
				}
				if seen[key] {
					return false
				}
				seen[key] = true
			}
			return true
		},
		genOps(),
	))

	properties.Property("slots only reference live nodes", prop.ForAll(
		func(ops []graphOp) bool {
			s := NewRootState("Root")
			applyOps(s, ops)
			for _, id := range s.Slots() {
				if id != "" && !s.HasNode(id) {
					return false
				}
			}
			return true
		},
		genOps(),
	))

	properties.TestingRun(t)
}
