// Package persistence stores explorer snapshots on behalf of the host: on
// local disk, optionally snappy-compressed, or in an S3 bucket.
package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
)

// ErrNotFound is returned by Load when no snapshot exists yet.
var ErrNotFound = errors.New("snapshot not found")

// Backend loads and saves whole snapshot documents.
type Backend interface {
	Load(ctx context.Context) (*snapshot.Document, error)
	Save(ctx context.Context, doc *snapshot.Document) error
	Name() string
}

// codec turns documents into stored bytes and back, keyed by the object's
// name: the extension picks JSON or YAML and a trailing .sz adds snappy.
type codec struct {
	format     snapshot.Format
	compressed bool
}

func codecFor(name string) codec {
	return codec{
		format:     snapshot.FormatFromPath(name),
		compressed: strings.HasSuffix(name, ".sz"),
	}
}

func (c codec) encode(doc *snapshot.Document) ([]byte, error) {
	data, err := snapshot.Encode(doc, c.format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if c.compressed {
		data = snappy.Encode(nil, data)
	}
	return data, nil
}

func (c codec) decode(data []byte) (*snapshot.Document, error) {
	if c.compressed {
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", snapshot.ErrUnparseable, err)
		}
		data = raw
	}
	return snapshot.Decode(data, c.format)
}

// Fingerprint identifies stored bytes so a watcher can recognize its own writes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
