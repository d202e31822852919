package pubsub

import "time"

// Severity grades a Notice.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Ready is published once the session has a live state.
type Ready struct {
	Nodes int
	Links int
}

// SaveRequest asks the persistence worker to write the current snapshot.
type SaveRequest struct {
	Revision uint64
	At       time.Time
}

// Notice is a user-facing message.
type Notice struct {
	Severity Severity
	Message  string
}

// Loaded reports a snapshot that replaced the live state.
type Loaded struct {
	Source   string
	Nodes    int
	Links    int
	Warnings []string
}
