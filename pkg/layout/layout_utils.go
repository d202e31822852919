package layout

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// Jitter returns a random point within spread of center.
func Jitter(rng *rand.Rand, center Vector, spread float64) Vector {
	r := spread * math.Sqrt(rng.Float64())
	theta := rng.Float64() * 2 * math.Pi
	return Vector{X: center.X + r*math.Cos(theta), Y: center.Y + r*math.Sin(theta)}
}

// Seed scatters nodes around center and clears their velocities.
func Seed(rng *rand.Rand, nodes []*storage.Node, center Vector, spread float64) {
	for _, n := range nodes {
		p := Jitter(rng, center, spread)
		n.X, n.Y = p.X, p.Y
		n.VX, n.VY = 0, 0
	}
}

// Position returns a node's coordinates as a Vector.
func Position(n *storage.Node) Vector {
	return Vector{X: n.X, Y: n.Y}
}

// Bounds returns the bounding box of the given nodes.
func Bounds(nodes []*storage.Node) (lo, hi Vector) {
	if len(nodes) == 0 {
		return Vector{}, Vector{}
	}
	lo = Vector{X: math.MaxFloat64, Y: math.MaxFloat64}
	hi = Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64}
	for _, n := range nodes {
		lo.X = math.Min(lo.X, n.X)
		lo.Y = math.Min(lo.Y, n.Y)
		hi.X = math.Max(hi.X, n.X)
		hi.Y = math.Max(hi.Y, n.Y)
	}
	return lo, hi
}

// Viewport maps world coordinates onto a character grid. The view is centered
// on Center and rotated by Rotation radians, so a world angle a appears at
// screen angle a + Rotation.
type Viewport struct {
	Width    int
	Height   int
	Center   Vector
	Scale    float64 // world units per column
	Rotation float64
	Aspect   float64 // row height in columns, terminal cells are about twice as tall as wide
}

// Project returns the grid cell of world point p and whether it is on screen.
func (v Viewport) Project(p Vector) (col, row int, ok bool) {
	scale := v.Scale
	if scale <= 0 {
		scale = 1
	}
	aspect := v.Aspect
	if aspect <= 0 {
		aspect = 2
	}

	d := p.Sub(v.Center)
	sin, cos := math.Sincos(v.Rotation)
	rx := d.X*cos - d.Y*sin
	ry := d.X*sin + d.Y*cos

	col = int(math.Round(float64(v.Width)/2 + rx/scale))
	row = int(math.Round(float64(v.Height)/2 + ry/(scale*aspect)))
	ok = col >= 0 && col < v.Width && row >= 0 && row < v.Height
	return col, row, ok
}

// Unproject returns the world point under grid cell (col, row).
func (v Viewport) Unproject(col, row int) Vector {
	scale := v.Scale
	if scale <= 0 {
		scale = 1
	}
	aspect := v.Aspect
	if aspect <= 0 {
		aspect = 2
	}

	rx := (float64(col) - float64(v.Width)/2) * scale
	ry := (float64(row) - float64(v.Height)/2) * scale * aspect
	sin, cos := math.Sincos(v.Rotation)
	return v.Center.Add(Vector{X: rx*cos + ry*sin, Y: -rx*sin + ry*cos})
}

// Fit returns the scale that makes every node fit in the viewport with
// padding cells to spare on each side.
func (v Viewport) Fit(nodes []*storage.Node, padding int) float64 {
	aspect := v.Aspect
	if aspect <= 0 {
		aspect = 2
	}
	w := float64(v.Width - 2*padding)
	h := float64(v.Height-2*padding) * aspect
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	// Rotation can swing any extent onto either axis.
	var extent float64
	for _, n := range nodes {
		extent = math.Max(extent, Position(n).Dist(v.Center)*2)
	}
	if extent < 0.01 {
		return 1
	}
	return extent / math.Min(w, h)
}
