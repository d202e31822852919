package navigation

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// Direction is a cardinal input direction.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Angle returns the screen angle of d. Screen y grows downward, so up is -π/2.
func (d Direction) Angle() float64 {
	switch d {
	case Up:
		return -math.Pi / 2
	case Down:
		return math.Pi / 2
	case Left:
		return math.Pi
	default:
		return 0
	}
}

const (
	// Tolerance is how far from a cardinal direction a neighbor may lie and
	// still be chosen by a directional jump (about 69°).
	Tolerance = 1.2
	// SnapAngle is how close to straight up a neighbor must be to count as
	// already aligned when cycling.
	SnapAngle = 5 * math.Pi / 180
)

// Normalize maps a into (-π, π].
func Normalize(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngularDistance returns the absolute difference between two angles, in [0, π].
func AngularDistance(a, b float64) float64 {
	return math.Abs(Normalize(a - b))
}

// Bearing is a neighbor's screen angle as seen from the focus.
type Bearing struct {
	Node  storage.NodeID
	Angle float64
}

// Bearings returns the neighbors of focus sorted by screen angle, where the
// screen angle is the geometric angle plus the view rotation.
func Bearings(s *storage.State, focus storage.NodeID, rotation float64) []Bearing {
	f, ok := s.Node(focus)
	if !ok {
		return nil
	}
	var out []Bearing
	for _, id := range s.Neighbors(focus) {
		n, ok := s.Node(id)
		if !ok {
			continue
		}
		geo := math.Atan2(n.Y-f.Y, n.X-f.X)
		out = append(out, Bearing{Node: id, Angle: Normalize(geo + rotation)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Angle < out[j].Angle })
	return out
}

// PickDirection returns the bearing closest to dir, if it lies within Tolerance.
func PickDirection(bearings []Bearing, dir Direction) (Bearing, bool) {
	want := dir.Angle()
	best := -1
	bestDist := math.Inf(1)
	for i, b := range bearings {
		if d := AngularDistance(b.Angle, want); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > Tolerance {
		return Bearing{}, false
	}
	return bearings[best], true
}

// Cycle picks the next neighbor strictly clockwise (or counterclockwise)
// from straight up. A neighbor within SnapAngle of up counts as the current
// one and is passed over rather than snapped to, even when it is the only
// candidate near up, so repeated input walks around the ring. The
// returned delta is the rotation that brings the chosen neighbor to straight
// up. With a single neighbor that neighbor is returned.
func Cycle(bearings []Bearing, clockwise bool) (next Bearing, delta float64, ok bool) {
	if len(bearings) == 0 {
		return Bearing{}, 0, false
	}
	up := Up.Angle()

	best := -1
	bestSweep := math.Inf(1)
	for i, b := range bearings {
		rel := Normalize(b.Angle - up)
		sweep := rel
		if !clockwise {
			sweep = -rel
		}
		if sweep < 0 {
			sweep += 2 * math.Pi
		}
		if sweep < SnapAngle || sweep > 2*math.Pi-SnapAngle {
			continue
		}
		if sweep < bestSweep {
			best, bestSweep = i, sweep
		}
	}
	if best < 0 {
		// Every neighbor is already at the top.
		best = 0
	}

	next = bearings[best]
	return next, -Normalize(next.Angle - up), true
}
