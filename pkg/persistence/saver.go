package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
)

// Source produces the document to save and the revision it reflects.
type Source func() (*snapshot.Document, uint64)

// Saver writes a snapshot for every save request on the bus. Requests for a
// revision already written are skipped.
type Saver struct {
	backend Backend
	source  Source
	bus     *pubsub.Bus
	logger  logging.Logger

	mu    sync.Mutex
	saved uint64
}

// NewSaver creates a saver. Failures are published as error notices on bus.
func NewSaver(backend Backend, source Source, bus *pubsub.Bus, logger logging.Logger) *Saver {
	return &Saver{
		backend: backend,
		source:  source,
		bus:     bus,
		logger:  logging.OrNop(logger).With(logging.Component("saver"), logging.String("backend", backend.Name())),
	}
}

// Run consumes save requests until ctx is done or the bus shuts down.
func (s *Saver) Run(ctx context.Context) error {
	sub, err := s.bus.Subscribe(ctx, pubsub.TopicSave)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			if _, isSave := msg.(pubsub.SaveRequest); !isSave {
				continue
			}
			s.Flush(ctx)
		}
	}
}

// Mark records revision as already persisted, as after a load.
func (s *Saver) Mark(revision uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = revision
}

// Flush saves the current document if it has not been saved yet.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, revision := s.source()
	if revision != 0 && revision == s.saved {
		return nil
	}
	if err := s.backend.Save(ctx, doc); err != nil {
		s.logger.Error("autosave failed", logging.Revision(revision), logging.Error(err))
		s.bus.Publish(pubsub.TopicNotice, pubsub.Notice{
			Severity: pubsub.SeverityError,
			Message:  fmt.Sprintf("Save failed: %v", err),
		})
		return err
	}
	s.saved = revision
	s.logger.Debug("snapshot saved", logging.Revision(revision))
	return nil
}
