package reachability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// chain builds Root - A - B and returns the ids.
func chain(t *testing.T) (*storage.State, storage.NodeID, storage.NodeID, storage.NodeID) {
	t.Helper()
	s := storage.NewRootState("Root")
	root := s.RootID()
	a, err := s.AddNode(storage.Node{Label: "A"})
	require.NoError(t, err)
	b, err := s.AddNode(storage.Node{Label: "B"})
	require.NoError(t, err)
	_, err = s.UpsertLink(root, a.ID, "rel")
	require.NoError(t, err)
	_, err = s.UpsertLink(a.ID, b.ID, "rel")
	require.NoError(t, err)
	return s, root, a.ID, b.ID
}

func TestAnchors(t *testing.T) {
	s, root, a, b := chain(t)
	require.NoError(t, s.SetFocus(b))
	require.NoError(t, s.SetSlot(0, a))
	require.NoError(t, s.SetSlot(1, b))

	assert.Equal(t, []storage.NodeID{root, b, a}, Anchors(s))
}

func TestReachableIgnoresDirection(t *testing.T) {
	s, root, a, b := chain(t)
	// Reverse A - B so B is only reachable against link direction.
	_, err := s.UpsertLink(b, a, "rel")
	require.NoError(t, err)

	reached := Reachable(s, []storage.NodeID{root})
	assert.True(t, reached[a])
	assert.True(t, reached[b])
	assert.Empty(t, Lost(s))
}

func TestLostAfterCut(t *testing.T) {
	s, root, a, b := chain(t)
	l, ok := s.LinkBetween(root, a)
	require.True(t, ok)
	s.RemoveLink(l.ID)

	assert.Equal(t, []storage.NodeID{a, b}, Lost(s))

	// A slot anchors the island.
	require.NoError(t, s.SetSlot(3, b))
	assert.Empty(t, Lost(s))
}

func TestPurge(t *testing.T) {
	s, root, a, b := chain(t)
	s.PushHistory(a)
	s.PushHistory(b)
	require.NoError(t, s.SetSlot(2, b))

	purged := Purge(s, []storage.NodeID{root, a, b})

	assert.Equal(t, []storage.NodeID{a, b}, purged, "root is never purged")
	assert.Equal(t, 1, s.NodeCount())
	assert.Zero(t, s.LinkCount())
	assert.Empty(t, s.History())
	slot, _ := s.Slot(2)
	assert.Empty(t, slot)
}
