package reachability

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

func removeNode(id storage.NodeID) Transition {
	return func(s *storage.State) error { return s.RemoveNode(id) }
}

func removeLinkBetween(a, b storage.NodeID) Transition {
	return func(s *storage.State) error {
		l, ok := s.LinkBetween(a, b)
		if !ok {
			return storage.ErrLinkNotFound
		}
		s.RemoveLink(l.ID)
		return nil
	}
}

func TestProposeCommitsWhenNothingIsLost(t *testing.T) {
	s, _, _, b := chain(t)
	store := storage.NewStore(s, nil)
	guard := NewGuard(store, nil, metrics.NewRegistry())

	p, err := guard.Propose("delete_node", removeNode(b))
	require.NoError(t, err)
	assert.Nil(t, p, "deleting a leaf strands nothing")
	assert.False(t, store.Current().HasNode(b))
	assert.EqualValues(t, 1, store.Revision())
}

func TestProposeHoldsDestructiveChange(t *testing.T) {
	s, root, a, b := chain(t)
	require.NoError(t, s.SetFocus(b))
	store := storage.NewStore(s, nil)
	guard := NewGuard(store, nil, nil)

	// With the focus on B, cutting Root - A leaves A and B anchored by the
	// focus, so nothing is lost.
	p, err := guard.Propose("delete_link", removeLinkBetween(root, a))
	require.NoError(t, err)
	require.Nil(t, p)

	// Re-link and move the focus home: now the same cut strands both.
	require.NoError(t, store.Update("relink", func(s *storage.State) error {
		if _, err := s.UpsertLink(root, a, "rel"); err != nil {
			return err
		}
		return s.SetFocus(root)
	}))

	before := store.Current()
	p, err = guard.Propose("delete_link", removeLinkBetween(root, a))
	require.NoError(t, err)
	require.NotNil(t, p)

	prompt := p.Prompt()
	assert.Equal(t, 2, prompt.Count)
	assert.Equal(t, "A", prompt.Example)
	assert.ElementsMatch(t, []storage.NodeID{a, b}, prompt.Lost)
	assert.Contains(t, prompt.Message(), "2 nodes")
	assert.Same(t, before, store.Current(), "nothing commits while the prompt is open")
	assert.Same(t, p, guard.Pending())

	_, err = guard.Propose("add_node", func(s *storage.State) error { return nil })
	assert.ErrorIs(t, err, ErrProposalPending)

	p.Decline()
	assert.Same(t, before, store.Current())
	assert.Nil(t, guard.Pending())
	assert.True(t, store.Current().HasNode(a))
	assert.True(t, store.Current().HasNode(b))
}

func TestConfirmPurgesExactlyTheLostSet(t *testing.T) {
	s, root, a, b := chain(t)
	c, err := s.AddNode(storage.Node{Label: "C"})
	require.NoError(t, err)
	_, err = s.UpsertLink(root, c.ID, "rel")
	require.NoError(t, err)
	s.PushHistory(a)
	s.PushHistory(b)
	require.NoError(t, s.SetSlot(1, root))

	store := storage.NewStore(s, nil)
	reg := metrics.NewRegistry()
	guard := NewGuard(store, nil, reg)

	p, err := guard.Propose("delete_node", removeNode(a))
	require.NoError(t, err)
	require.NotNil(t, p)

	res, err := p.Confirm()
	require.NoError(t, err)
	assert.Equal(t, Committed, res.Outcome)
	assert.Equal(t, []storage.NodeID{b}, res.Purged)

	cur := store.Current()
	assert.False(t, cur.HasNode(a))
	assert.False(t, cur.HasNode(b))
	assert.True(t, cur.HasNode(c.ID))
	assert.Empty(t, cur.History())
	assert.Empty(t, Lost(cur))

	_, err = p.Confirm()
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestConfirmAfterExternalCommitIsStale(t *testing.T) {
	s, _, a, _ := chain(t)
	store := storage.NewStore(s, nil)
	guard := NewGuard(store, nil, nil)

	p, err := guard.Propose("delete_node", removeNode(a))
	require.NoError(t, err)
	require.NotNil(t, p)

	require.NoError(t, store.Update("external", func(*storage.State) error { return nil }))

	_, err = p.Confirm()
	assert.ErrorIs(t, err, ErrStaleProposal)
	assert.Nil(t, guard.Pending())
	assert.True(t, store.Current().HasNode(a))
}

func TestProposeRejectsInvalidTransitions(t *testing.T) {
	s, root, a, _ := chain(t)
	store := storage.NewStore(s, nil)
	guard := NewGuard(store, nil, nil)

	_, err := guard.Propose("delete_node", removeNode(root))
	assert.ErrorIs(t, err, storage.ErrRootImmortal)

	require.NoError(t, store.Update("focus", func(s *storage.State) error { return s.SetFocus(a) }))
	_, err = guard.Propose("delete_node", removeNode(a))
	assert.ErrorIs(t, err, ErrFocusMissing, "removing the focus without moving it is refused")

	sentinel := errors.New("boom")
	_, err = guard.Propose("noop", func(*storage.State) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Nil(t, guard.Pending())
}

func TestApplyAsksConfirmer(t *testing.T) {
	s, _, a, b := chain(t)
	store := storage.NewStore(s, nil)
	guard := NewGuard(store, nil, nil)

	var asked Prompt
	decline := ConfirmFunc(func(_ context.Context, p Prompt) (bool, error) {
		asked = p
		return false, nil
	})
	res, err := guard.Apply(context.Background(), "delete_node", removeNode(a), decline)
	require.NoError(t, err)
	assert.Equal(t, Declined, res.Outcome)
	assert.Equal(t, 1, asked.Count)
	assert.True(t, store.Current().HasNode(b))

	accept := ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })
	res, err = guard.Apply(context.Background(), "delete_node", removeNode(a), accept)
	require.NoError(t, err)
	assert.Equal(t, Committed, res.Outcome)
	assert.Equal(t, []storage.NodeID{b}, res.Purged)
}

// randomGraph builds a graph from a list of (a, b) link choices over n nodes.
func randomGraph(n int, pairs [][2]int) (*storage.State, []storage.NodeID) {
	s := storage.NewRootState("Root")
	ids := []storage.NodeID{s.RootID()}
	for i := 0; i < n; i++ {
		node, _ := s.AddNode(storage.Node{Label: "n"})
		ids = append(ids, node.ID)
	}
	for _, p := range pairs {
		s.UpsertLink(ids[p[0]%len(ids)], ids[p[1]%len(ids)], "rel")
	}
	return s, ids
}

func genPairs() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 12),
		gen.IntRange(0, 12),
	).Map(func(v []any) [2]int { return [2]int{v[0].(int), v[1].(int)} }))
}

func TestGuardProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("declining leaves the store untouched", prop.ForAll(
		func(pairs [][2]int, victim int) bool {
			s, ids := randomGraph(12, pairs)
			store := storage.NewStore(s, nil)
			guard := NewGuard(store, nil, nil)
			before := store.Current()
			rev := store.Revision()

			target := ids[1+victim%(len(ids)-1)]
			p, err := guard.Propose("delete_node", removeNode(target))
			if err != nil {
				return false
			}
			if p == nil {
				return true
			}
			p.Decline()
			return store.Current() == before && store.Revision() == rev && before.HasNode(target)
		},
		genPairs(),
		gen.IntRange(0, 100),
	))

	properties.Property("accepting leaves no unreachable node", prop.ForAll(
		func(pairs [][2]int, victim int) bool {
			s, ids := randomGraph(12, pairs)
			store := storage.NewStore(s, nil)
			guard := NewGuard(store, nil, nil)

			target := ids[1+victim%(len(ids)-1)]
			p, err := guard.Propose("delete_node", removeNode(target))
			if err != nil {
				return false
			}
			if p != nil {
				if _, err := p.Confirm(); err != nil {
					return false
				}
			}
			cur := store.Current()
			// Nodes already stranded before the edit are purged too.
			return len(Lost(cur)) == 0 && !cur.HasNode(target) && cur.NodeCount() < s.NodeCount()
		},
		genPairs(),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
