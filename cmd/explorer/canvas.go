package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-explorer/pkg/layout"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

const (
	minScale      = 3.0 // world units per column
	fitPadding    = 3
	maxLabelRunes = 18
	minAlpha      = 0.05
)

const (
	defaultNodeColor = "#FFFFFF"
	defaultLinkColor = "#9E9E9E"
	focusColor       = "#FF00FF"
	previewColor     = "#00FFFF"
	sourceColor      = "#FFFF00"
)

type cell struct {
	r     rune
	color string
	bold  bool
}

// canvas is a character grid with a color per cell.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *canvas) set(col, row int, r rune, color string, bold bool) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	c.cells[row*c.w+col] = cell{r: r, color: color, bold: bold}
}

func (c *canvas) text(col, row int, s, color string, bold bool) {
	for _, r := range s {
		c.set(col, row, r, color, bold)
		col++
	}
}

// line draws between two cells with Bresenham's algorithm, leaving both
// endpoints untouched.
func (c *canvas) line(c0, r0, c1, r1 int, color string) {
	glyph := slopeGlyph(c1-c0, r1-r0)
	dc, dr := absInt(c1-c0), -absInt(r1-r0)
	sc, sr := 1, 1
	if c0 > c1 {
		sc = -1
	}
	if r0 > r1 {
		sr = -1
	}
	err := dc + dr
	col, row := c0, r0
	for {
		if (col != c0 || row != r0) && (col != c1 || row != r1) {
			c.set(col, row, glyph, color, false)
		}
		if col == c1 && row == r1 {
			return
		}
		e2 := 2 * err
		if e2 >= dr {
			err += dr
			col += sc
		}
		if e2 <= dc {
			err += dc
			row += sr
		}
	}
}

func slopeGlyph(dc, dr int) rune {
	switch {
	case absInt(dr)*3 < absInt(dc):
		return '-'
	case absInt(dc)*3 < absInt(dr):
		return '|'
	case (dc > 0) == (dr > 0):
		return '\\'
	default:
		return '/'
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// String renders the grid, grouping runs of equal style.
func (c *canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.w : (row+1)*c.w]
		for start := 0; start < len(line); {
			end := start + 1
			for end < len(line) && line[end].color == line[start].color && line[end].bold == line[start].bold {
				end++
			}
			run := make([]rune, 0, end-start)
			for _, cl := range line[start:end] {
				run = append(run, cl.r)
			}
			if line[start].color == "" && !line[start].bold {
				b.WriteString(string(run))
			} else {
				style := lipgloss.NewStyle().Bold(line[start].bold)
				if line[start].color != "" {
					style = style.Foreground(lipgloss.Color(line[start].color))
				}
				b.WriteString(style.Render(string(run)))
			}
			start = end
		}
	}
	return b.String()
}

// shade dims a #rrggbb color toward black by alpha.
func shade(hex string, alpha float64) string {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	alpha = math.Max(0, math.Min(1, alpha))
	scale := func(v uint8) uint8 { return uint8(math.Round(float64(v) * alpha)) }
	return fmt.Sprintf("#%02X%02X%02X", scale(r), scale(g), scale(b))
}

// scene is what one frame of the canvas shows.
type scene struct {
	state      *storage.State
	viewport   layout.Viewport
	preview    storage.NodeID
	hover      storage.NodeID
	linkSource storage.NodeID
}

// viewportFor centers on the focus and zooms to fit the visible nodes.
func viewportFor(s *storage.State, width, height int, rotation float64) layout.Viewport {
	vp := layout.Viewport{Width: width, Height: height, Rotation: rotation, Aspect: 2}
	if focus, ok := s.Node(s.Focus()); ok {
		vp.Center = layout.Position(focus)
	}
	var visible []*storage.Node
	for _, n := range s.Nodes() {
		if n.Alpha >= minAlpha {
			visible = append(visible, n)
		}
	}
	vp.Scale = math.Max(minScale, vp.Fit(visible, fitPadding))
	return vp
}

func (sc scene) draw() *canvas {
	vp := sc.viewport
	c := newCanvas(vp.Width, vp.Height)

	colors := make(map[string]string)
	for _, p := range sc.state.Presets() {
		colors[p.Value] = p.Color
	}

	type placed struct {
		node     *storage.Node
		col, row int
	}
	var nodes []placed
	cells := make(map[storage.NodeID][2]int)
	for _, n := range sc.state.Nodes() {
		col, row, _ := vp.Project(layout.Position(n))
		cells[n.ID] = [2]int{col, row}
		if n.Alpha >= minAlpha {
			nodes = append(nodes, placed{node: n, col: col, row: row})
		}
	}

	for _, l := range sc.state.Links() {
		if l.Alpha < minAlpha {
			continue
		}
		color := colors[l.Type]
		if color == "" {
			color = defaultLinkColor
		}
		a, b := cells[l.Source], cells[l.Target]
		if absInt(a[0]-b[0])+absInt(a[1]-b[1]) > 4*(vp.Width+vp.Height) {
			continue
		}
		c.line(a[0], a[1], b[0], b[1], shade(color, l.Alpha))
	}

	focus := sc.state.Focus()
	for _, p := range nodes {
		label := truncate(p.node.Label, maxLabelRunes)
		color := p.node.Color
		if color == "" {
			color = defaultNodeColor
		}
		bold := p.node.ID == focus || p.node.ID == sc.hover
		if p.node.ID == focus {
			label = "[" + label + "]"
			color = focusColor
		}
		c.text(p.col+2, p.row, label, shade(color, p.node.Alpha), bold)
	}

	// Markers go last so labels never hide a node.
	for _, p := range nodes {
		marker, color := '○', p.node.Color
		if color == "" {
			color = defaultNodeColor
		}
		switch {
		case p.node.ID == focus:
			marker, color = '●', focusColor
		case p.node.ID == sc.linkSource:
			marker, color = '◈', sourceColor
		case p.node.ID == sc.preview:
			marker, color = '◎', previewColor
		case p.node.IsRoot:
			marker = '◆'
		}
		c.set(p.col, p.row, marker, shade(color, p.node.Alpha), true)
	}
	return c
}

// nodeAt returns the visible node drawn at or next to cell (col, row).
func (sc scene) nodeAt(col, row int) (storage.NodeID, bool) {
	best, bestDist := storage.NodeID(""), math.MaxInt
	for _, n := range sc.state.Nodes() {
		if n.Alpha < minAlpha {
			continue
		}
		nc, nr, ok := sc.viewport.Project(layout.Position(n))
		if !ok || nr != row {
			continue
		}
		if d := absInt(nc - col); d <= 1 && d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best, best != ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
