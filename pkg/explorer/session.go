// Package explorer wires the graph core into one interactive session: every
// user command, host message and frame tick enters through Session.
//
// A Session is driven from a single event loop. Commands and Frame may be
// called from that loop only; Snapshot and SaveNow are safe from any
// goroutine.
package explorer

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/layout"
	"github.com/dd0wney/cluso-explorer/pkg/linkmode"
	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/navigation"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-explorer/pkg/reachability"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/visibility"
)

// DefaultAutosaveDelay is the quiet period before a save request is emitted.
const DefaultAutosaveDelay = 800 * time.Millisecond

// Options configure a Session. Zero values select defaults.
type Options struct {
	Layout        layout.Config
	FadeRate      float64
	ViewLayers    int
	AutosaveDelay time.Duration
	Rand          *rand.Rand

	Bus     *pubsub.Bus
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Session is one explorer view over one graph.
type Session struct {
	store  *storage.Store
	guard  *reachability.Guard
	sim    *layout.Simulation
	fader  *visibility.Fader
	nav    *navigation.Navigator
	links  *linkmode.Machine
	bus    *pubsub.Bus
	rng    *rand.Rand
	logger logging.Logger

	metrics *metrics.Registry

	// mu serializes state access between the event loop and Snapshot.
	mu      sync.Mutex
	hover   storage.NodeID
	locale  string
	visible int

	ready      sync.Once
	generation atomic.Uint64

	saveMu    sync.Mutex
	saveDelay time.Duration
	saveTimer *time.Timer
}

// New creates a session over a fresh single-root graph.
func New(opts Options) *Session {
	logger := logging.OrNop(opts.Logger)
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bus := opts.Bus
	if bus == nil {
		bus = pubsub.New(pubsub.DefaultBuffer)
	}
	delay := opts.AutosaveDelay
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}

	initial := storage.NewRootState(snapshot.DefaultRootLabel)
	if opts.ViewLayers > 0 {
		_ = initial.SetViewLayers(opts.ViewLayers)
	}
	_ = initial.SetPresets(snapshot.DefaultPresets())

	store := storage.NewStore(initial, logger)
	guard := reachability.NewGuard(store, logger, opts.Metrics)

	s := &Session{
		store:     store,
		guard:     guard,
		sim:       layout.NewSimulation(opts.Layout, logger, opts.Metrics),
		fader:     visibility.NewFader(opts.FadeRate),
		nav:       navigation.NewNavigator(store, guard, logger, opts.Metrics),
		links:     &linkmode.Machine{},
		bus:       bus,
		rng:       rng,
		logger:    logger.With(logging.Component("session")),
		metrics:   opts.Metrics,
		saveDelay: delay,
	}
	store.OnCommit(s.onCommit)
	s.metrics.UpdateGraphSize(initial.NodeCount(), initial.LinkCount())
	return s
}

// Bus returns the session's event bus.
func (s *Session) Bus() *pubsub.Bus { return s.bus }

// Store exposes the graph store for read access.
func (s *Session) Store() *storage.Store { return s.store }

// Simulation exposes the layout simulation.
func (s *Session) Simulation() *layout.Simulation { return s.sim }

// Rotation returns the canvas rotation in radians.
func (s *Session) Rotation() float64 { return s.nav.Rotation() }

// Preview returns the previewed neighbor, or "" when none is.
func (s *Session) Preview() storage.NodeID { return s.nav.Preview() }

// Start announces that the session is ready for its first snapshot. Only the
// first call publishes; it reports whether this call did.
func (s *Session) Start() bool {
	first := false
	s.ready.Do(func() {
		first = true
		cur := s.store.Current()
		s.bus.Publish(pubsub.TopicReady, pubsub.Ready{Nodes: cur.NodeCount(), Links: cur.LinkCount()})
		s.logger.Info("session ready")
	})
	return first
}

// SetLocale records the host's language hint. It has no effect on the core.
func (s *Session) SetLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale
}

// Locale returns the last language hint.
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// Load replaces the whole graph with doc. Anything invalid in doc is
// repaired; repairs are reported as a warning notice. A pending
// confirmation, link mode, hover and preview are all abandoned.
func (s *Session) Load(doc *snapshot.Document, source string) snapshot.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.guard.Pending(); p != nil {
		p.Decline()
	}
	s.links.Cancel()
	s.nav.ClearPreview()
	s.nav.SetRotation(0)
	s.hover = ""

	state, report := snapshot.Ingest(doc, snapshot.Options{Rand: s.rng, Spread: s.sim.Config().LinkDistance * 2})
	s.store.Replace("load", state)
	s.sim.Reheat(1)

	s.bus.Publish(pubsub.TopicLoaded, pubsub.Loaded{
		Source:   source,
		Nodes:    state.NodeCount(),
		Links:    state.LinkCount(),
		Warnings: report.Warnings,
	})
	if !report.Clean() {
		s.logger.Warn("snapshot repaired on load",
			logging.String("source", source),
			logging.Count(len(report.Warnings)))
		s.notice(pubsub.SeverityWarning, loadWarning(report))
	}
	return report
}

// Import decodes data and loads it. Payloads that cannot be decoded are
// rejected before the live graph is touched.
func (s *Session) Import(data []byte, format snapshot.Format, source string) (snapshot.Report, error) {
	doc, err := snapshot.Decode(data, format)
	if err != nil {
		s.fail(err)
		return snapshot.Report{}, err
	}
	return s.Load(doc, source), nil
}

// Snapshot exports the current graph with the generation it reflects. The
// generation advances on every commit, field edits included.
func (s *Session) Snapshot() (*snapshot.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Export(s.store.Current()), s.generation.Load()
}

// Frame advances the layout and the fades by dt. It reports whether another
// frame would change anything.
func (s *Session) Frame(dt time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Current()
	moved := s.sim.Tick(state, dt)
	set := visibility.ForState(state, s.hover, s.nav.Preview())
	fading := s.fader.Step(state, set, dt)

	if n := len(set.Nodes); n != s.visible {
		s.visible = n
		s.metrics.SetVisibleNodes(n)
	}
	return moved || fading
}

// onCommit runs after every store commit, on the committing goroutine.
func (s *Session) onCommit(change storage.Change, state *storage.State) {
	s.generation.Add(1)
	s.metrics.UpdateGraphSize(state.NodeCount(), state.LinkCount())
	if change.Structural && !change.Replaced {
		s.sim.Reheat(0)
	}
	if !change.Replaced {
		s.scheduleSave()
	}
}

// scheduleSave restarts the autosave quiet period.
func (s *Session) scheduleSave() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, s.emitSave)
}

// SaveNow cancels any pending autosave and requests a save immediately.
func (s *Session) SaveNow() {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.saveMu.Unlock()
	s.emitSave()
}

func (s *Session) emitSave() {
	s.bus.Publish(pubsub.TopicSave, pubsub.SaveRequest{
		Revision: s.generation.Load(),
		At:       time.Now(),
	})
}

// Close stops the autosave timer. The bus is left to its owner.
func (s *Session) Close() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}
