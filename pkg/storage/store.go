package storage

import (
	"sync"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
)

// Change describes a committed mutation.
type Change struct {
	Op         string
	Revision   uint64
	Structural bool // false for field edits that cannot affect reachability
	Replaced   bool // true when the whole state was swapped in by a load
}

// Observer is notified after every commit, outside the store lock.
type Observer func(Change, *State)

// Store is the single owner of the live graph State. Structural changes are
// built on a clone and swapped in atomically, so readers never observe a
// partially applied mutation.
type Store struct {
	mu        sync.RWMutex
	state     *State
	revision  uint64
	observers []Observer
	logger    logging.Logger
}

// NewStore creates a store around state. A nil state starts empty.
func NewStore(state *State, logger logging.Logger) *Store {
	if state == nil {
		state = NewState()
	}
	return &Store{
		state:  state,
		logger: logging.OrNop(logger).With(logging.Component("store")),
	}
}

// Current returns the live state. Callers on the event loop may read it and
// the layout and fade engines may write kinematic fields (X, Y, VX, VY,
// Alpha); nothing else may mutate it directly.
func (s *Store) Current() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Revision is incremented on every structural commit.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// OnCommit registers an observer.
func (s *Store) OnCommit(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Update applies fn to a clone of the live state and commits the clone when
// fn succeeds. On error nothing changes.
func (s *Store) Update(op string, fn func(*State) error) error {
	s.mu.Lock()
	next := s.state.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		s.logger.Debug("update rejected", logging.Operation(op), logging.Error(err))
		return err
	}
	change := s.swapLocked(op, next)
	observers, state := s.observers, s.state
	s.mu.Unlock()

	s.notify(observers, change, state)
	return nil
}

// Commit swaps in next if the store is still at revision expected. It is the
// commit path for proposals evaluated ahead of time.
func (s *Store) Commit(op string, expected uint64, next *State) error {
	s.mu.Lock()
	if s.revision != expected {
		s.mu.Unlock()
		return NewError("Commit").Context(op).Cause(ErrStaleRevision).Err()
	}
	change := s.swapLocked(op, next)
	observers, state := s.observers, s.state
	s.mu.Unlock()

	s.notify(observers, change, state)
	return nil
}

// Replace installs a freshly loaded state wholesale.
func (s *Store) Replace(op string, next *State) {
	s.mu.Lock()
	s.state = next
	s.revision++
	change := Change{Op: op, Revision: s.revision, Structural: true, Replaced: true}
	observers := s.observers
	s.mu.Unlock()

	s.logger.Info("state replaced",
		logging.Operation(op),
		logging.Revision(change.Revision),
		logging.Int("nodes", next.NodeCount()),
		logging.Int("links", next.LinkCount()))
	s.notify(observers, change, next)
}

// EditNode changes free-text fields in place. Field edits never affect
// reachability, so they bypass the structural revision.
func (s *Store) EditNode(id NodeID, edit NodeEdit) error {
	s.mu.Lock()
	n, ok := s.state.nodes[id]
	if !ok {
		s.mu.Unlock()
		return NodeNotFoundError("EditNode", id)
	}
	edit.Apply(n)
	change := Change{Op: "edit_node", Revision: s.revision}
	observers, state := s.observers, s.state
	s.mu.Unlock()

	s.notify(observers, change, state)
	return nil
}

// swapLocked installs next, carrying the live kinematics of surviving nodes
// and links over so a commit never rewinds the simulation.
func (s *Store) swapLocked(op string, next *State) Change {
	for id, n := range next.nodes {
		if live, ok := s.state.nodes[id]; ok && live != n {
			n.X, n.Y, n.VX, n.VY, n.Alpha = live.X, live.Y, live.VX, live.VY, live.Alpha
		}
	}
	for id, l := range next.links {
		if live, ok := s.state.links[id]; ok && live != l {
			l.Alpha = live.Alpha
		}
	}
	s.state = next
	s.revision++

	s.logger.Debug("committed",
		logging.Operation(op),
		logging.Revision(s.revision),
		logging.Int("nodes", next.NodeCount()),
		logging.Int("links", next.LinkCount()))

	return Change{Op: op, Revision: s.revision, Structural: true}
}

func (s *Store) notify(observers []Observer, change Change, state *State) {
	for _, o := range observers {
		o(change, state)
	}
}
