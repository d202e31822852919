package layout

import (
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// ActiveSet returns the nodes within depth hops of the focus and the links
// joining two of them. Only this subset is simulated; every other node keeps
// its position. When the state has no focus the root is used.
func ActiveSet(s *storage.State, depth int) ([]*storage.Node, []*storage.Link) {
	start := s.Focus()
	if !s.HasNode(start) {
		start = s.RootID()
	}
	if start == "" {
		return nil, nil
	}

	adj := s.Adjacency()
	depths := map[storage.NodeID]int{start: 0}
	queue := []storage.NodeID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if depths[current] >= depth {
			continue
		}
		for _, next := range adj[current] {
			if _, seen := depths[next]; seen {
				continue
			}
			depths[next] = depths[current] + 1
			queue = append(queue, next)
		}
	}

	nodes := make([]*storage.Node, 0, len(depths))
	for _, n := range s.Nodes() {
		if _, ok := depths[n.ID]; ok {
			nodes = append(nodes, n)
		}
	}

	var links []*storage.Link
	for _, l := range s.Links() {
		_, okS := depths[l.Source]
		_, okT := depths[l.Target]
		if okS && okT {
			links = append(links, l)
		}
	}
	return nodes, links
}
