package explorer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-explorer/pkg/linkmode"
	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/navigation"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-explorer/pkg/reachability"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

func (s *Session) notice(sev pubsub.Severity, msg string) {
	s.bus.Publish(pubsub.TopicNotice, pubsub.Notice{Severity: sev, Message: msg})
}

// fail publishes err as a user-facing notice. Rejected commands never change
// state, so most failures are warnings.
func (s *Session) fail(err error) {
	sev, msg := describe(err)
	s.logger.Debug("command rejected", logging.Error(err))
	s.notice(sev, msg)
}

func describe(err error) (pubsub.Severity, string) {
	switch {
	case errors.Is(err, storage.ErrRootImmortal):
		return pubsub.SeverityWarning, "The root node cannot be deleted."
	case errors.Is(err, reachability.ErrProposalPending):
		return pubsub.SeverityWarning, "Answer the open confirmation first."
	case errors.Is(err, reachability.ErrStaleProposal), errors.Is(err, storage.ErrStaleRevision):
		return pubsub.SeverityWarning, "The graph changed before the confirmation was answered; nothing was applied."
	case errors.Is(err, reachability.ErrFocusMissing):
		return pubsub.SeverityWarning, "That change would leave nothing in focus."
	case errors.Is(err, storage.ErrLinkNotFound):
		return pubsub.SeverityWarning, "There is no link between those nodes."
	case errors.Is(err, storage.ErrSelfLink):
		return pubsub.SeverityWarning, "A node cannot be linked to itself."
	case errors.Is(err, storage.ErrNodeNotFound):
		return pubsub.SeverityWarning, "That node no longer exists."
	case errors.Is(err, storage.ErrInvalidSlot):
		return pubsub.SeverityWarning, "No such slot."
	case errors.Is(err, snapshot.ErrUnparseable):
		return pubsub.SeverityError, "Import failed: the file is not valid JSON or YAML."
	case errors.Is(err, snapshot.ErrWrongShape):
		return pubsub.SeverityError, "Import failed: the file does not have the expected shape."
	case errors.Is(err, storage.ErrInvalidPresets):
		return pubsub.SeverityWarning, "Presets rejected: " + err.Error()
	case errors.Is(err, linkmode.ErrEmptyLabel), errors.Is(err, ErrEmptyLabel):
		return pubsub.SeverityWarning, "A label is required."
	case errors.Is(err, storage.ErrInvalidViewLayers):
		return pubsub.SeverityWarning, fmt.Sprintf("View layers must be between %d and %d.", validation.MinViewLayers, validation.MaxViewLayers)
	case errors.Is(err, navigation.ErrNoHistory):
		return pubsub.SeverityInfo, "Nothing to go back to."
	default:
		return pubsub.SeverityWarning, capitalize(err.Error())
	}
}

func loadWarning(r snapshot.Report) string {
	if len(r.Warnings) == 1 {
		return "Snapshot repaired: " + r.Warnings[0]
	}
	return fmt.Sprintf("Snapshot repaired (%d fixes): %s", len(r.Warnings), strings.Join(r.Warnings, "; "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
