package reachability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

var (
	ErrProposalPending = errors.New("another change is awaiting confirmation")
	ErrStaleProposal   = errors.New("graph changed while the confirmation was open")
	ErrNotPending      = errors.New("proposal is no longer pending")
	ErrFocusMissing    = errors.New("proposed state has no valid focus")
)

// Transition performs an intended edit on a working copy of the state.
type Transition func(*storage.State) error

// Prompt is what the user is asked before a destructive change commits.
type Prompt struct {
	Op      string
	Count   int
	Example string
	Lost    []storage.NodeID
}

// Message renders the prompt as a single sentence.
func (p Prompt) Message() string {
	noun := "nodes"
	if p.Count == 1 {
		noun = "node"
	}
	return fmt.Sprintf("This will remove %d %s that can no longer be reached (e.g. %q). Continue?", p.Count, noun, p.Example)
}

// Outcome is how a proposal ended.
type Outcome int

const (
	Committed Outcome = iota
	Declined
	AwaitingConfirmation
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Declined:
		return "declined"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

// Result reports what a proposal did.
type Result struct {
	Outcome Outcome
	Purged  []storage.NodeID
}

// Confirmer asks the user to accept a destructive change.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// Guard is the only path through which structural edits reach the store.
// At most one proposal may await confirmation at a time.
type Guard struct {
	store   *storage.Store
	logger  logging.Logger
	metrics *metrics.Registry

	mu      sync.Mutex
	pending *Pending
}

// NewGuard creates a guard committing to store. metrics may be nil.
func NewGuard(store *storage.Store, logger logging.Logger, m *metrics.Registry) *Guard {
	return &Guard{
		store:   store,
		logger:  logging.OrNop(logger).With(logging.Component("guard")),
		metrics: m,
	}
}

// Pending returns the proposal awaiting confirmation, or nil.
func (g *Guard) Pending() *Pending {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Propose evaluates t against a copy of the live state. When nothing would be
// lost the change commits immediately and the returned Pending is nil.
// Otherwise the store is left untouched and the caller must Confirm or
// Decline the returned Pending.
func (g *Guard) Propose(op string, t Transition) (*Pending, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		g.metrics.RecordMutation(op, "blocked")
		return nil, fmt.Errorf("%s: %w", op, ErrProposalPending)
	}

	before := g.store.Current()
	revision := g.store.Revision()

	next, lost, err := evaluate(before, t)
	if err != nil {
		g.metrics.RecordMutation(op, "rejected")
		g.logger.Debug("proposal rejected", logging.Operation(op), logging.Error(err))
		return nil, err
	}

	if len(lost) == 0 {
		if err := g.store.Commit(op, revision, next); err != nil {
			return nil, err
		}
		g.metrics.RecordMutation(op, "committed")
		return nil, nil
	}

	example := ""
	if n, ok := next.Node(lost[0]); ok {
		example = n.Label
	}
	g.pending = &Pending{
		guard:      g,
		op:         op,
		revision:   revision,
		before:     before,
		transition: t,
		prompt:     Prompt{Op: op, Count: len(lost), Example: example, Lost: lost},
	}
	g.metrics.RecordConfirmation("requested")
	g.logger.Info("confirmation required",
		logging.Operation(op),
		logging.Count(len(lost)),
		logging.String("example", example))
	return g.pending, nil
}

// Apply proposes t and, when confirmation is needed, asks c synchronously.
func (g *Guard) Apply(ctx context.Context, op string, t Transition, c Confirmer) (Result, error) {
	p, err := g.Propose(op, t)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return Result{Outcome: Committed}, nil
	}

	ok, err := c.Confirm(ctx, p.Prompt())
	if err != nil || !ok {
		p.Decline()
		return Result{Outcome: Declined}, err
	}
	return p.Confirm()
}

// evaluate runs t on a clone of before and reports the lost set. It refuses
// transitions that drop the root or leave a non-empty graph without focus.
func evaluate(before *storage.State, t Transition) (*storage.State, []storage.NodeID, error) {
	next := before.Clone()
	if err := t(next); err != nil {
		return nil, nil, err
	}
	if before.RootID() != "" && next.RootID() != before.RootID() {
		return nil, nil, storage.NewError("Propose").Node(before.RootID()).Cause(storage.ErrRootImmortal).Err()
	}
	if next.NodeCount() > 0 && !next.HasNode(next.Focus()) {
		return nil, nil, ErrFocusMissing
	}
	return next, Lost(next), nil
}

// Pending is a destructive proposal held open for the user's answer. It
// captures the state it was evaluated against, so the answer is applied to
// exactly what the user was shown.
type Pending struct {
	guard      *Guard
	op         string
	revision   uint64
	before     *storage.State
	transition Transition
	prompt     Prompt
	done       bool
}

// Prompt returns the question to put to the user.
func (p *Pending) Prompt() Prompt { return p.prompt }

// Op names the proposed operation.
func (p *Pending) Op() string { return p.op }

// Confirm commits the proposal: the edit is re-run on the captured state,
// every node it strands is purged with its links, slot and history
// references, and the result is committed in one swap.
func (p *Pending) Confirm() (Result, error) {
	g := p.guard
	g.mu.Lock()
	defer g.mu.Unlock()

	if p.done {
		return Result{}, ErrNotPending
	}
	p.done = true
	g.pending = nil

	if g.store.Revision() != p.revision {
		g.metrics.RecordConfirmation("stale")
		return Result{}, fmt.Errorf("%s: %w", p.op, ErrStaleProposal)
	}

	next, lost, err := evaluate(p.before, p.transition)
	if err != nil {
		g.metrics.RecordConfirmation("failed")
		return Result{}, err
	}
	purged := Purge(next, lost)

	if err := g.store.Commit(p.op, p.revision, next); err != nil {
		g.metrics.RecordConfirmation("stale")
		return Result{}, err
	}

	g.metrics.RecordConfirmation("accepted")
	g.metrics.RecordMutation(p.op, "committed")
	g.metrics.RecordPurge(len(purged))
	g.logger.Info("confirmed change committed",
		logging.Operation(p.op),
		logging.Count(len(purged)))
	return Result{Outcome: Committed, Purged: purged}, nil
}

// Decline abandons the proposal. The store is left exactly as it was.
func (p *Pending) Decline() {
	g := p.guard
	g.mu.Lock()
	defer g.mu.Unlock()

	if p.done {
		return
	}
	p.done = true
	g.pending = nil
	g.metrics.RecordConfirmation("declined")
	g.logger.Debug("change declined", logging.Operation(p.op))
}
