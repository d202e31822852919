// Package snapshot is the external document format of an explorer graph and
// the lenient ingest that turns any decodable document into a valid state.
package snapshot

import (
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// SlotCount is the fixed length of the slots list.
const SlotCount = storage.SlotCount

// NodeDoc is one node as persisted. Missing coordinates are nil.
type NodeDoc struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	IsRoot  bool     `json:"isRoot,omitempty" yaml:"isRoot,omitempty"`
	X       *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y       *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Content string   `json:"content,omitempty" yaml:"content,omitempty"`
	Color   string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// LinkDoc is one link as persisted.
type LinkDoc struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Type   string `json:"type" yaml:"type" validate:"max=200"`
}

// Document is the full snapshot exchanged with the host.
type Document struct {
	Nodes      []NodeDoc        `json:"nodes" yaml:"nodes" validate:"dive"`
	Links      []LinkDoc        `json:"links" yaml:"links" validate:"dive"`
	Slots      []*string        `json:"slots" yaml:"slots" validate:"omitempty,len=4"`
	ViewLayers int              `json:"viewLayers,omitempty" yaml:"viewLayers,omitempty"`
	Presets    []storage.Preset `json:"presets,omitempty" yaml:"presets,omitempty"`
	Focus      string           `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// DefaultPresets is the preset table used when a document carries none or
// an invalid one.
func DefaultPresets() []storage.Preset {
	return []storage.Preset{
		{Label: "Related", Value: "rel", Color: "#9e9e9e"},
		{Label: "Part of", Value: "part", Color: "#4caf50"},
		{Label: "Causes", Value: "cause", Color: "#f44336"},
		{Label: "Example of", Value: "example", Color: "#2196f3"},
		{Label: "Contrasts with", Value: "contrast", Color: "#ff9800"},
	}
}

// Export converts a state into a document. Coordinates are always written.
func Export(s *storage.State) *Document {
	doc := &Document{
		Nodes:      make([]NodeDoc, 0, s.NodeCount()),
		Links:      make([]LinkDoc, 0, s.LinkCount()),
		Slots:      make([]*string, SlotCount),
		ViewLayers: s.ViewLayers(),
		Presets:    s.Presets(),
		Focus:      string(s.Focus()),
	}
	for _, n := range s.Nodes() {
		x, y := n.X, n.Y
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:      string(n.ID),
			Label:   n.Label,
			IsRoot:  n.IsRoot,
			X:       &x,
			Y:       &y,
			Summary: n.Summary,
			Content: n.Content,
			Color:   n.Color,
		})
	}
	for _, l := range s.Links() {
		doc.Links = append(doc.Links, LinkDoc{
			Source: string(l.Source),
			Target: string(l.Target),
			Type:   l.Type,
		})
	}
	for i, id := range s.Slots() {
		if id != "" {
			v := string(id)
			doc.Slots[i] = &v
		}
	}
	return doc
}
