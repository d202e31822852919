package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
)

// DefaultDebounce coalesces the burst of events an editor produces per save.
const DefaultDebounce = 150 * time.Millisecond

// maxExpected bounds how many of our own writes are remembered.
const maxExpected = 16

// Watcher reports edits made to the snapshot file by other programs. Writes
// announced through Ignore are recognized by content and not reported.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   logging.Logger
	metrics  *metrics.Registry

	mu       sync.Mutex
	expected []string
}

// NewWatcher watches path. A debounce of zero uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, logger logging.Logger, m *metrics.Registry) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		logger:   logging.OrNop(logger).With(logging.Component("watcher"), logging.Path(path)),
		metrics:  m,
	}
}

// Ignore records the fingerprint of a write about to be made by this process.
func (w *Watcher) Ignore(fingerprint string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expected = append(w.expected, fingerprint)
	if len(w.expected) > maxExpected {
		w.expected = w.expected[len(w.expected)-maxExpected:]
	}
}

// own reports whether the file currently holds one of our writes.
func (w *Watcher) own(fingerprint string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.expected {
		if f == fingerprint {
			return true
		}
	}
	return false
}

// Run watches until ctx is done, calling onChange after each debounced
// external edit. The directory is watched so atomic renames are seen.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching snapshot for external changes")

	fire := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.handleChange(onChange)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleChange(onChange func()) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// Mid-rename or deleted; the next event retries.
		w.logger.Debug("snapshot unreadable after change", logging.Error(err))
		return
	}
	if w.own(Fingerprint(data)) {
		return
	}
	w.metrics.RecordExternalChange()
	w.logger.Info("snapshot changed on disk")
	onChange()
}
