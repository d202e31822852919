package layout

import (
	"math"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// Forces accumulate into node velocities; positions move only in integrate.
// Each force takes the current alpha already multiplied by the frame scale.

const (
	// minDist2 softens repulsion between nearly coincident nodes.
	minDist2 = 1.0
	// maxSpeed caps per-frame displacement so a bad seed cannot fling nodes away.
	maxSpeed = 60.0
)

// applyCharge is the pairwise long-range repulsion between all active nodes.
func applyCharge(nodes []*storage.Node, charge, alpha float64) {
	for i, a := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			b := nodes[j]
			dx := b.X - a.X
			dy := b.Y - a.Y
			l := dx*dx + dy*dy
			if l == 0 {
				dx, dy = jiggle(i, j), jiggle(j, i)
				l = dx*dx + dy*dy
			}
			if l < minDist2 {
				l = math.Sqrt(minDist2 * l)
			}
			w := charge * alpha / l
			a.VX += dx * w
			a.VY += dy * w
			b.VX -= dx * w
			b.VY -= dy * w
		}
	}
}

// applyLinks pulls linked nodes toward distance apart. The correction is split
// by degree so hubs move less than leaves.
func applyLinks(index map[storage.NodeID]*storage.Node, links []*storage.Link, distance, strength, alpha float64) {
	degree := make(map[storage.NodeID]int, len(index))
	for _, l := range links {
		degree[l.Source]++
		degree[l.Target]++
	}

	for i, l := range links {
		src, okS := index[l.Source]
		dst, okT := index[l.Target]
		if !okS || !okT {
			continue
		}
		dx := dst.X + dst.VX - src.X - src.VX
		dy := dst.Y + dst.VY - src.Y - src.VY
		d := math.Hypot(dx, dy)
		if d < 1e-6 {
			dx, dy = jiggle(i, 0), jiggle(0, i)
			d = math.Hypot(dx, dy)
		}
		k := (d - distance) / d * alpha * strength
		dx *= k
		dy *= k

		bias := float64(degree[l.Source]) / float64(degree[l.Source]+degree[l.Target])
		dst.VX -= dx * bias
		dst.VY -= dy * bias
		src.VX += dx * (1 - bias)
		src.VY += dy * (1 - bias)
	}
}

// applyCollide separates nodes closer than two radii.
func applyCollide(nodes []*storage.Node, radius, strength, scale float64) {
	minSep := 2 * radius
	for i, a := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			b := nodes[j]
			dx := (b.X + b.VX) - (a.X + a.VX)
			dy := (b.Y + b.VY) - (a.Y + a.VY)
			d := math.Hypot(dx, dy)
			if d >= minSep {
				continue
			}
			if d < 1e-6 {
				dx, dy = jiggle(i, j), jiggle(j, i)
				d = math.Hypot(dx, dy)
			}
			push := (minSep - d) / d * strength * 0.5 * scale
			a.VX -= dx * push
			a.VY -= dy * push
			b.VX += dx * push
			b.VY += dy * push
		}
	}
}

// applyCenter shifts the whole active set toward the origin.
func applyCenter(nodes []*storage.Node, strength, scale float64) {
	if len(nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx / float64(len(nodes)) * strength * scale
	sy = sy / float64(len(nodes)) * strength * scale
	for _, n := range nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// dragPull returns the fraction of the remaining distance a dragged node is
// pulled per frame. It rises toward strength with distance: far drags respond
// quickly while short ones stay steady.
func dragPull(dist, strength, falloff float64) float64 {
	return strength * (1 - math.Exp(-dist/falloff))
}

// applyDrag pulls one node toward the pointer target.
func applyDrag(n *storage.Node, target Vector, strength, falloff, scale float64) {
	dx := target.X - n.X
	dy := target.Y - n.Y
	k := dragPull(math.Hypot(dx, dy), strength, falloff) * scale
	n.VX += dx * k
	n.VY += dy * k
}

// integrate applies velocity decay and moves every node.
func integrate(nodes []*storage.Node, velocityDecay, scale float64) {
	keep := math.Pow(1-velocityDecay, scale)
	for _, n := range nodes {
		n.VX *= keep
		n.VY *= keep
		if speed := math.Hypot(n.VX, n.VY); speed > maxSpeed {
			n.VX *= maxSpeed / speed
			n.VY *= maxSpeed / speed
		}
		n.X += n.VX * scale
		n.Y += n.VY * scale
	}
}

// jiggle returns a tiny non-zero deterministic offset derived from two indices.
func jiggle(i, j int) float64 {
	return (float64((i*31+j*17)%13) - 6.5) * 1e-3
}
