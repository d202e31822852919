package layout

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// line builds Root - n1 - n2 - ... - n(count) with the given spacing on the x axis.
func line(t *testing.T, count int, spacing float64) (*storage.State, []storage.NodeID) {
	t.Helper()
	s := storage.NewRootState("Root")
	ids := []storage.NodeID{s.RootID()}
	for i := 0; i < count; i++ {
		n, err := s.AddNode(storage.Node{Label: "n", X: float64(i+1) * spacing})
		if err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
		if _, err := s.UpsertLink(ids[len(ids)-1], n.ID, "rel"); err != nil {
			t.Fatalf("UpsertLink failed: %v", err)
		}
		ids = append(ids, n.ID)
	}
	return s, ids
}

func TestActiveSet(t *testing.T) {
	s, ids := line(t, 10, 50)

	nodes, links := ActiveSet(s, 3)
	if len(nodes) != 4 {
		t.Errorf("active nodes = %d, want 4", len(nodes))
	}
	if len(links) != 3 {
		t.Errorf("active links = %d, want 3", len(links))
	}

	if err := s.SetFocus(ids[5]); err != nil {
		t.Fatal(err)
	}
	nodes, _ = ActiveSet(s, 2)
	if len(nodes) != 5 {
		t.Errorf("active nodes around the middle = %d, want 5", len(nodes))
	}

	if nodes, links := ActiveSet(storage.NewState(), 7); nodes != nil || links != nil {
		t.Error("empty state should have no active set")
	}
}

func TestSpringPullsLinkedNodesTogether(t *testing.T) {
	s, ids := line(t, 1, 500)
	sim := NewSimulation(DefaultConfig(), nil, nil)

	for i := 0; i < 60; i++ {
		sim.Tick(s, FrameDuration)
	}

	a, _ := s.Node(ids[0])
	b, _ := s.Node(ids[1])
	if d := Position(a).Dist(Position(b)); d >= 500 {
		t.Errorf("linked nodes should be pulled together, distance %.1f", d)
	}
}

func TestRepulsionSeparatesCloseNodes(t *testing.T) {
	s := storage.NewRootState("Root")
	root := s.RootID()
	b, _ := s.AddNode(storage.Node{Label: "B", X: 5})
	if _, err := s.UpsertLink(root, b.ID, "rel"); err != nil {
		t.Fatal(err)
	}
	c, _ := s.AddNode(storage.Node{Label: "C", X: 2, Y: 3})
	if _, err := s.UpsertLink(root, c.ID, "rel"); err != nil {
		t.Fatal(err)
	}

	sim := NewSimulation(DefaultConfig(), nil, nil)
	for i := 0; i < 30; i++ {
		sim.Tick(s, FrameDuration)
	}

	bn, _ := s.Node(b.ID)
	cn, _ := s.Node(c.ID)
	if d := Position(bn).Dist(Position(cn)); d < DefaultConfig().CollideRadius {
		t.Errorf("nodes should not overlap, distance %.1f", d)
	}
	for _, n := range s.Nodes() {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Fatalf("node %s has NaN position", n.ID)
		}
	}
}

func TestSimulationSettlesAndReheats(t *testing.T) {
	s, _ := line(t, 3, 60)
	sim := NewSimulation(DefaultConfig(), nil, nil)

	for i := 0; i < 1000 && !sim.Settled(); i++ {
		sim.Tick(s, FrameDuration)
	}
	if !sim.Settled() {
		t.Fatalf("simulation did not settle, alpha %v", sim.Alpha())
	}
	if sim.Tick(s, FrameDuration) {
		t.Error("a settled simulation should not move nodes")
	}

	sim.Reheat(0)
	if sim.Settled() {
		t.Error("Reheat should wake the simulation")
	}
	if sim.Alpha() != DefaultConfig().ReheatAlpha {
		t.Errorf("alpha after reheat = %v", sim.Alpha())
	}
	if !sim.Tick(s, FrameDuration) {
		t.Error("a reheated simulation should move")
	}
}

func TestNodesOutsideActiveSetAreFrozen(t *testing.T) {
	s, ids := line(t, 6, 40)
	far, _ := s.Node(ids[6])
	before := Position(far)

	cfg := DefaultConfig()
	cfg.ActiveDepth = 2
	sim := NewSimulation(cfg, nil, nil)
	for i := 0; i < 30; i++ {
		sim.Tick(s, FrameDuration)
	}

	if Position(far) != before {
		t.Errorf("far node moved from %v to %v", before, Position(far))
	}
}

func TestDragPullsNodeTowardTarget(t *testing.T) {
	s, ids := line(t, 2, 60)
	sim := NewSimulation(DefaultConfig(), nil, nil)

	target := Vector{X: 400, Y: 300}
	n, _ := s.Node(ids[2])
	start := Position(n).Dist(target)

	sim.Drag(ids[2], target)
	if id, ok := sim.Dragging(); !ok || id != ids[2] {
		t.Fatalf("Dragging() = %q, %v", id, ok)
	}
	for i := 0; i < 30; i++ {
		sim.Tick(s, FrameDuration)
	}
	if d := Position(n).Dist(target); d >= start {
		t.Errorf("dragged node should approach the target: %.1f -> %.1f", start, d)
	}

	sim.Release()
	if _, ok := sim.Dragging(); ok {
		t.Error("Release should end the drag")
	}
}

func TestDragPullFalloff(t *testing.T) {
	near := dragPull(10, 0.25, 120)
	far := dragPull(600, 0.25, 120)
	if !(near < far) {
		t.Errorf("pull should grow with distance: near %v, far %v", near, far)
	}
	if far > 0.25 {
		t.Errorf("pull must not exceed strength, got %v", far)
	}
	if dragPull(0, 0.25, 120) != 0 {
		t.Error("no pull at zero distance")
	}
}

func TestFrameScale(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.frameScale(0); got != 0 {
		t.Errorf("frameScale(0) = %v", got)
	}
	if got := cfg.frameScale(FrameDuration); math.Abs(got-1) > 1e-9 {
		t.Errorf("frameScale(frame) = %v, want 1", got)
	}
	if got := cfg.frameScale(5 * time.Second); got != cfg.MaxFrameScale {
		t.Errorf("long frames should clamp, got %v", got)
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{LinkDistance: 120}.WithDefaults()
	if cfg.LinkDistance != 120 {
		t.Error("explicit values must be kept")
	}
	if cfg.ActiveDepth != 7 || cfg.Charge != -220 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestSeed(t *testing.T) {
	s, _ := line(t, 20, 0)
	rng := rand.New(rand.NewSource(1))
	center := Vector{X: 100, Y: -50}

	Seed(rng, s.Nodes(), center, 30)
	for _, n := range s.Nodes() {
		if d := Position(n).Dist(center); d > 30 {
			t.Errorf("seeded node %.1f from center, want <= 30", d)
		}
	}
}

func TestViewportProject(t *testing.T) {
	v := Viewport{Width: 80, Height: 24, Scale: 1, Aspect: 2}

	col, row, ok := v.Project(Vector{})
	if !ok || col != 40 || row != 12 {
		t.Errorf("origin projects to (%d, %d, %v)", col, row, ok)
	}

	v.Rotation = math.Pi / 2
	col, row, _ = v.Project(Vector{X: 10})
	if col != 40 || row != 17 {
		t.Errorf("rotated point projects to (%d, %d), want (40, 17)", col, row)
	}

	if _, _, ok := v.Project(Vector{X: 1000}); ok {
		t.Error("far point should be off screen")
	}
}

func TestViewportUnproject(t *testing.T) {
	v := Viewport{Width: 80, Height: 24, Center: Vector{X: 5, Y: -3}, Scale: 2, Rotation: 0.7, Aspect: 2}

	for _, p := range []Vector{{X: 5, Y: -3}, {X: 25, Y: 1}, {X: -11, Y: 9}} {
		col, row, ok := v.Project(p)
		if !ok {
			t.Fatalf("%v off screen", p)
		}
		back := v.Unproject(col, row)
		// Rounding to a cell loses at most half a cell on each axis.
		if d := back.Dist(p); d > v.Scale*v.Aspect {
			t.Errorf("Unproject(Project(%v)) = %v, %.2f away", p, back, d)
		}
	}
}

func TestViewportFit(t *testing.T) {
	s, _ := line(t, 4, 100)
	v := Viewport{Width: 80, Height: 40, Aspect: 2}
	v.Scale = v.Fit(s.Nodes(), 2)

	for _, n := range s.Nodes() {
		if _, _, ok := v.Project(Position(n)); !ok {
			t.Errorf("node at %v is off screen with scale %v", Position(n), v.Scale)
		}
	}
}
