// Package reachability keeps every mutation from silently stranding nodes.
//
// The anchors of a state are the root, the focus and every occupied slot. A
// node is lost when no undirected path connects it to any anchor. Guard
// evaluates proposed transitions against that rule and holds destructive ones
// until the user confirms them.
package reachability

import (
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// Anchors returns the nodes that must stay reachable in s: the root (if
// present), the focus and every non-empty slot. Absent ids are skipped.
func Anchors(s *storage.State) []storage.NodeID {
	var anchors []storage.NodeID
	add := func(id storage.NodeID) {
		if id == "" || !s.HasNode(id) {
			return
		}
		for _, a := range anchors {
			if a == id {
				return
			}
		}
		anchors = append(anchors, id)
	}

	add(s.RootID())
	add(s.Focus())
	for _, id := range s.Slots() {
		add(id)
	}
	return anchors
}

// Reachable runs one breadth-first traversal seeded with every anchor at once
// and returns the visited set. Links are treated as undirected.
func Reachable(s *storage.State, anchors []storage.NodeID) map[storage.NodeID]bool {
	adj := s.Adjacency()
	visited := make(map[storage.NodeID]bool, s.NodeCount())
	queue := make([]storage.NodeID, 0, len(anchors))

	for _, a := range anchors {
		if !visited[a] && s.HasNode(a) {
			visited[a] = true
			queue = append(queue, a)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adj[current] {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}

// Lost returns the nodes of s not reachable from its anchors, in insertion order.
func Lost(s *storage.State) []storage.NodeID {
	reached := Reachable(s, Anchors(s))
	var lost []storage.NodeID
	for _, id := range s.NodeIDs() {
		if !reached[id] {
			lost = append(lost, id)
		}
	}
	return lost
}

// Purge removes the given nodes with their links, slot references and
// history entries. The root is never removed.
func Purge(s *storage.State, ids []storage.NodeID) []storage.NodeID {
	var purged []storage.NodeID
	for _, id := range ids {
		if err := s.RemoveNode(id); err == nil {
			purged = append(purged, id)
		}
	}
	s.PruneHistory()
	return purged
}
