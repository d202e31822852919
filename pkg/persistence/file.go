package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
)

const filePermissions = 0644

// FileStore keeps the snapshot in a single file. Writes go to a temporary
// file that is renamed over the target, so readers never see a torn file.
type FileStore struct {
	path    string
	codec   codec
	logger  logging.Logger
	metrics *metrics.Registry

	mu        sync.Mutex
	afterSave func(fingerprint string)
}

// NewFileStore creates a store for path. The format follows the extension.
func NewFileStore(path string, logger logging.Logger, m *metrics.Registry) *FileStore {
	return &FileStore{
		path:    path,
		codec:   codecFor(path),
		logger:  logging.OrNop(logger).With(logging.Component("file_store"), logging.Path(path)),
		metrics: m,
	}
}

// Name identifies the backend in metrics and logs.
func (f *FileStore) Name() string { return "file" }

// Path returns the snapshot file path.
func (f *FileStore) Path() string { return f.path }

// AfterSave registers a hook called with the fingerprint of every write.
func (f *FileStore) AfterSave(fn func(fingerprint string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterSave = fn
}

// Load reads and decodes the snapshot.
func (f *FileStore) Load(ctx context.Context) (*snapshot.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.metrics.RecordLoad(f.Name(), "missing")
		return nil, ErrNotFound
	}
	if err != nil {
		f.metrics.RecordLoad(f.Name(), "error")
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	doc, err := f.codec.decode(data)
	if err != nil {
		f.metrics.RecordLoad(f.Name(), "invalid")
		return nil, err
	}
	f.metrics.RecordLoad(f.Name(), "success")
	f.logger.Debug("snapshot loaded", logging.Int("bytes", len(data)))
	return doc, nil
}

// Save encodes doc and atomically replaces the file.
func (f *FileStore) Save(ctx context.Context, doc *snapshot.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := logging.StartTimer(f.logger, "save")
	start := time.Now()

	data, err := f.codec.encode(doc)
	if err != nil {
		f.metrics.RecordSave(f.Name(), "error", time.Since(start), 0)
		timer.EndError(err)
		return err
	}

	f.mu.Lock()
	hook := f.afterSave
	f.mu.Unlock()
	if hook != nil {
		// Registered before the rename so a watcher never sees an unknown write.
		hook(Fingerprint(data))
	}

	if err := writeAtomic(f.path, data); err != nil {
		f.metrics.RecordSave(f.Name(), "error", time.Since(start), 0)
		timer.EndError(err)
		return err
	}

	f.metrics.RecordSave(f.Name(), "success", time.Since(start), len(data))
	timer.End()
	return nil
}

// ReadFingerprint returns the fingerprint of the file's current contents.
func (f *FileStore) ReadFingerprint() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return Fingerprint(data), nil
}

func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}
