// Package linkmode is the state machine behind creating, retyping and
// deleting links by navigating from a source node to a target.
package linkmode

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

// State is the machine's current phase.
type State int

const (
	Idle State = iota
	AwaitingType
	AwaitingLabel
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingType:
		return "awaiting_type"
	case AwaitingLabel:
		return "awaiting_label"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

var (
	ErrWrongState    = errors.New("link mode is not in the required state")
	ErrEmptyLabel    = errors.New("custom relationship label is empty")
	ErrLabelTooLong  = errors.New("custom relationship label is too long")
	ErrInvalidOption = errors.New("no such relationship option")
	ErrNoSource      = errors.New("link source is empty")
)

// ActionKind is what arriving at a target does.
type ActionKind int

const (
	Create ActionKind = iota
	Delete
)

func (k ActionKind) String() string {
	if k == Delete {
		return "delete"
	}
	return "create"
}

// Action is the link operation to execute on arrival.
type Action struct {
	Kind   ActionKind
	Source storage.NodeID
	Target storage.NodeID
	Type   string
}

// OptionKind distinguishes entries in the type menu.
type OptionKind int

const (
	OptionPreset OptionKind = iota
	OptionCustom
	OptionDelete
)

// Option is one entry offered while awaiting a type.
type Option struct {
	Kind   OptionKind
	Key    string // keyboard shortcut
	Label  string
	Preset storage.Preset
}

// Options lists the first nine presets on digit keys plus the custom and
// delete entries.
func Options(presets []storage.Preset) []Option {
	n := min(len(presets), validation.MaxKeyboardPresets)
	opts := make([]Option, 0, n+2)
	for i := 0; i < n; i++ {
		opts = append(opts, Option{
			Kind:   OptionPreset,
			Key:    fmt.Sprint(i + 1),
			Label:  presets[i].Label,
			Preset: presets[i],
		})
	}
	opts = append(opts,
		Option{Kind: OptionCustom, Key: "c", Label: "Custom…"},
		Option{Kind: OptionDelete, Key: "x", Label: "Delete link"},
	)
	return opts
}

// Machine holds link-mode state. The zero value is Idle.
type Machine struct {
	mu     sync.Mutex
	state  State
	source storage.NodeID
	kind   ActionKind
	typ    string
}

// State returns the current phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Source returns the node link mode started from, or "" when idle.
func (m *Machine) Source() storage.NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// Chosen returns the action kind and relationship type picked so far.
func (m *Machine) Chosen() (ActionKind, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind, m.typ
}

// Begin enters AwaitingType with source as the link origin.
func (m *Machine) Begin(source storage.NodeID) error {
	if source == "" {
		return ErrNoSource
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return fmt.Errorf("begin from %s: %w", m.state, ErrWrongState)
	}
	m.state = AwaitingType
	m.source = source
	m.kind, m.typ = Create, ""
	return nil
}

// ChoosePreset picks preset i (zero-based) and activates.
func (m *Machine) ChoosePreset(i int, presets []storage.Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingType {
		return fmt.Errorf("choose preset from %s: %w", m.state, ErrWrongState)
	}
	if i < 0 || i >= len(presets) || i >= validation.MaxKeyboardPresets {
		return fmt.Errorf("preset %d: %w", i+1, ErrInvalidOption)
	}
	m.kind, m.typ = Create, presets[i].Value
	m.state = Active
	return nil
}

// RequestCustom suspends for a free-text relationship label.
func (m *Machine) RequestCustom() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingType {
		return fmt.Errorf("request custom from %s: %w", m.state, ErrWrongState)
	}
	m.state = AwaitingLabel
	return nil
}

// SubmitCustom resumes with the user's label. A label matching a preset's
// label (case-insensitive, trimmed) becomes that preset's value. An empty
// label leaves the machine waiting for another answer.
func (m *Machine) SubmitCustom(label string, presets []storage.Preset) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingLabel {
		return "", fmt.Errorf("submit custom from %s: %w", m.state, ErrWrongState)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	if len(label) > validation.MaxLabelLength {
		return "", ErrLabelTooLong
	}
	m.kind, m.typ = Create, NormalizeType(label, presets)
	m.state = Active
	return m.typ, nil
}

// NormalizeType maps label onto an existing preset value when it names that
// preset, so the same relationship is not stored under two codes.
func NormalizeType(label string, presets []storage.Preset) string {
	label = strings.TrimSpace(label)
	for _, p := range presets {
		if strings.EqualFold(strings.TrimSpace(p.Label), label) {
			return p.Value
		}
	}
	return label
}

// ChooseDelete picks the delete pseudo-type and activates.
func (m *Machine) ChooseDelete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingType {
		return fmt.Errorf("choose delete from %s: %w", m.state, ErrWrongState)
	}
	m.kind, m.typ = Delete, ""
	m.state = Active
	return nil
}

// Cancel returns to Idle from any state without side effects. It reports
// whether link mode was engaged.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.state != Idle
	m.reset()
	return was
}

// Arrive is called whenever the user navigates to target. While Active and
// target differs from the source, it returns the action to execute and
// returns to Idle. Otherwise it reports false and normal navigation applies.
func (m *Machine) Arrive(target storage.NodeID) (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active || target == "" || target == m.source {
		return Action{}, false
	}
	a := Action{Kind: m.kind, Source: m.source, Target: target, Type: m.typ}
	m.reset()
	return a, true
}

// Abort drops back to Idle after an action failed.
func (m *Machine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.source = ""
	m.kind, m.typ = Create, ""
}
