package snapshot

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/layout"
	"github.com/dd0wney/cluso-explorer/pkg/reachability"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
	"github.com/dd0wney/cluso-explorer/pkg/visibility"
)

// DefaultRootLabel names a root synthesized for a document without one.
const DefaultRootLabel = "Root"

// Options tune Ingest.
type Options struct {
	Rand   *rand.Rand // source for placing nodes without coordinates
	Spread float64    // radius of that random placement
}

// Report lists what Ingest repaired.
type Report struct {
	DroppedNodes      int
	DroppedLinks      int
	MergedLinks       int
	DemotedRoots      int
	SynthesizedRoot   bool
	Positioned        int
	NulledSlots       int
	ClampedViewLayers bool
	DefaultedPresets  bool
	FocusFallback     bool
	Unreachable       int
	Warnings          []string
}

// Clean reports whether the document was ingested without repairs.
func (r Report) Clean() bool { return len(r.Warnings) == 0 }

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Ingest builds a valid state from doc. It never fails: anything that would
// break a graph invariant is dropped or repaired and noted in the report.
// Alphas are reset so that only nodes within the focus's view radius start
// visible.
func Ingest(doc *Document, opts Options) (*storage.State, Report) {
	var rep Report
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	spread := opts.Spread
	if spread <= 0 {
		spread = 200
	}

	// A declared root can still be dropped as a duplicate id.
	s := storage.NewState()
	ingestNodes(s, doc.Nodes, rng, spread, &rep)
	if s.RootID() == "" {
		s = storage.NewRootState(DefaultRootLabel)
		rep.SynthesizedRoot = true
		rep.DroppedNodes = len(doc.Nodes)
		rep.DroppedLinks = len(doc.Links)
		rep.warn("no root node; started a fresh graph with a new root")
	} else {
		ingestLinks(s, doc.Links, &rep)
		ingestSlots(s, doc.Slots, &rep)
	}

	ingestViewLayers(s, doc.ViewLayers, &rep)
	ingestPresets(s, doc.Presets, &rep)

	focus := storage.NodeID(doc.Focus)
	if !s.HasNode(focus) {
		if doc.Focus != "" {
			rep.FocusFallback = true
			rep.warn("focus %q not found; focusing the root", doc.Focus)
		}
		focus = s.RootID()
	}
	_ = s.SetFocus(focus)

	if lost := reachability.Lost(s); len(lost) > 0 {
		rep.Unreachable = len(lost)
		rep.warn("%d nodes are not connected to the root, focus or a slot", len(lost))
	}

	visibility.NewFader(0).Prime(s, visibility.ForState(s, "", ""))
	return s, rep
}

func ingestNodes(s *storage.State, nodes []NodeDoc, rng *rand.Rand, spread float64, rep *Report) {
	rootSeen := false
	for _, nd := range nodes {
		if nd.ID == "" {
			rep.DroppedNodes++
			rep.warn("dropped a node without id")
			continue
		}
		if s.HasNode(storage.NodeID(nd.ID)) {
			rep.DroppedNodes++
			rep.warn("dropped duplicate node %q", nd.ID)
			continue
		}

		isRoot := nd.IsRoot
		if isRoot && rootSeen {
			isRoot = false
			rep.DemotedRoots++
			rep.warn("node %q demoted: only one root is allowed", nd.ID)
		}
		rootSeen = rootSeen || isRoot

		n := storage.Node{
			ID:      storage.NodeID(nd.ID),
			Label:   nd.Label,
			IsRoot:  isRoot,
			Summary: nd.Summary,
			Content: nd.Content,
			Color:   nd.Color,
		}
		if validCoord(nd.X) && validCoord(nd.Y) {
			n.X, n.Y = *nd.X, *nd.Y
		} else {
			p := layout.Jitter(rng, layout.Vector{}, spread)
			n.X, n.Y = p.X, p.Y
			rep.Positioned++
		}
		if _, err := s.AddNode(n); err != nil {
			rep.DroppedNodes++
			rep.warn("dropped node %q: %v", nd.ID, err)
		}
	}
}

func validCoord(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func ingestLinks(s *storage.State, links []LinkDoc, rep *Report) {
	for _, ld := range links {
		before := s.LinkCount()
		if _, err := s.UpsertLink(storage.NodeID(ld.Source), storage.NodeID(ld.Target), ld.Type); err != nil {
			rep.DroppedLinks++
			rep.warn("dropped link %s -> %s: %v", ld.Source, ld.Target, err)
			continue
		}
		if s.LinkCount() == before {
			rep.MergedLinks++
			rep.warn("merged a second link between %s and %s", ld.Source, ld.Target)
		}
	}
}

func ingestSlots(s *storage.State, slots []*string, rep *Report) {
	for i, ref := range slots {
		if i >= storage.SlotCount || ref == nil || *ref == "" {
			continue
		}
		if err := s.SetSlot(i, storage.NodeID(*ref)); err != nil {
			rep.NulledSlots++
			rep.warn("slot %d cleared: %q not found", i+1, *ref)
		}
	}
}

func ingestViewLayers(s *storage.State, n int, rep *Report) {
	if n == 0 {
		return
	}
	clamped := min(max(n, validation.MinViewLayers), validation.MaxViewLayers)
	if clamped != n {
		rep.ClampedViewLayers = true
		rep.warn("view layers %d clamped to %d", n, clamped)
	}
	_ = s.SetViewLayers(clamped)
}

func ingestPresets(s *storage.State, presets []storage.Preset, rep *Report) {
	if len(presets) == 0 {
		_ = s.SetPresets(DefaultPresets())
		return
	}
	if err := s.SetPresets(presets); err != nil {
		rep.DefaultedPresets = true
		rep.warn("presets replaced with defaults: %v", err)
		_ = s.SetPresets(DefaultPresets())
	}
}
