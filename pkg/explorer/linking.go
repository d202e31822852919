package explorer

import (
	"fmt"
	"strconv"

	"github.com/dd0wney/cluso-explorer/pkg/linkmode"
	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/navigation"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-explorer/pkg/reachability"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// LinkState returns the link-mode phase.
func (s *Session) LinkState() linkmode.State { return s.links.State() }

// LinkSource returns the node link mode started from, or "".
func (s *Session) LinkSource() storage.NodeID { return s.links.Source() }

// LinkChoice returns the action chosen for the active link mode.
func (s *Session) LinkChoice() (linkmode.ActionKind, string) { return s.links.Chosen() }

// LinkOptions lists the relationship choices offered after BeginLink.
func (s *Session) LinkOptions() []linkmode.Option {
	return linkmode.Options(s.store.Current().Presets())
}

// BeginLink enters link mode from the focus.
func (s *Session) BeginLink() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.links.Begin(s.store.Current().Focus()); err != nil {
		s.fail(err)
		return err
	}
	s.metrics.RecordLinkAction("begin")
	return nil
}

// ChooseLinkOption picks an option by its shortcut key.
func (s *Session) ChooseLinkOption(key string) error {
	switch key {
	case "c":
		return s.RequestCustom()
	case "x":
		return s.ChooseDelete()
	}
	i, err := strconv.Atoi(key)
	if err != nil {
		err = fmt.Errorf("option %q: %w", key, linkmode.ErrInvalidOption)
		s.mu.Lock()
		s.fail(err)
		s.mu.Unlock()
		return err
	}
	return s.ChoosePreset(i - 1)
}

// ChoosePreset picks preset i (zero-based) as the relationship type.
func (s *Session) ChoosePreset(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.links.ChoosePreset(i, s.store.Current().Presets()); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// RequestCustom asks for a free-text relationship label.
func (s *Session) RequestCustom() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.links.RequestCustom(); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// SubmitCustom answers the custom-label prompt and returns the stored type.
func (s *Session) SubmitCustom(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	typ, err := s.links.SubmitCustom(label, s.store.Current().Presets())
	if err != nil {
		s.fail(err)
		return "", err
	}
	return typ, nil
}

// ChooseDelete arms link mode to remove a link instead of creating one.
func (s *Session) ChooseDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.links.ChooseDelete(); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// executeLink performs the action link mode produced on arrival. Creation is
// additive and commits directly; deletion goes through the guard.
func (s *Session) executeLink(a linkmode.Action) (reachability.Outcome, error) {
	switch a.Kind {
	case linkmode.Delete:
		outcome, err := s.propose("link_delete", func(st *storage.State) error {
			if err := unlinkTransition(a.Source, a.Target)(st); err != nil {
				return err
			}
			return navigation.FocusTransition(a.Target)(st)
		})
		if err != nil {
			s.metrics.RecordLinkAction("delete_missing")
			return outcome, err
		}
		s.metrics.RecordLinkAction("delete")
		if outcome == reachability.Committed {
			s.forgetMissing()
		}
		return outcome, nil

	default:
		err := s.update("link_create", func(st *storage.State) error {
			if _, err := st.UpsertLink(a.Source, a.Target, a.Type); err != nil {
				return err
			}
			return navigation.FocusTransition(a.Target)(st)
		})
		if err != nil {
			return reachability.Declined, err
		}
		s.nav.ClearPreview()
		s.metrics.RecordLinkAction("create")
		s.logger.Debug("link created",
			logging.NodeID(string(a.Source)),
			logging.String("target", string(a.Target)),
			logging.String("type", a.Type))
		s.notice(pubsub.SeverityInfo, fmt.Sprintf("Linked %s → %s (%s).", s.label(a.Source), s.label(a.Target), a.Type))
		return reachability.Committed, nil
	}
}

func (s *Session) label(id storage.NodeID) string {
	if n, ok := s.store.Current().Node(id); ok {
		return n.Label
	}
	return string(id)
}
