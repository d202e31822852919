package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

var (
	// ErrUnparseable means the bytes are not valid JSON or YAML at all.
	ErrUnparseable = errors.New("snapshot is not parseable")
	// ErrWrongShape means the bytes parse but do not describe a snapshot.
	ErrWrongShape = errors.New("snapshot has the wrong shape")
)

// Format is a snapshot serialization.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks a format by file extension, ignoring a trailing
// compression suffix. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	path = strings.TrimSuffix(path, ".sz")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Decode parses data as a Document.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, err
	}
	if err := validation.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongShape, err)
	}
	return &doc, nil
}

// Encode serializes doc.
func Encode(doc *Document, format Format) ([]byte, error) {
	if format == YAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodePresets parses a standalone preset table (a list of label, value,
// color entries) and validates it.
func DecodePresets(data []byte, format Format) ([]storage.Preset, error) {
	var presets []storage.Preset
	if err := unmarshal(data, format, &presets); err != nil {
		return nil, err
	}
	if err := storage.ValidatePresets(presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// unmarshal decodes into v, classifying failures as unparseable or wrong shape.
func unmarshal(data []byte, format Format, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty input", ErrUnparseable)
	}

	if format == YAML {
		if err := yaml.Unmarshal(trimmed, v); err != nil {
			var typeErr *yaml.TypeError
			if errors.As(err, &typeErr) {
				return fmt.Errorf("%w: %w", ErrWrongShape, err)
			}
			return fmt.Errorf("%w: %w", ErrUnparseable, err)
		}
		if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("~")) {
			return fmt.Errorf("%w: document is null", ErrWrongShape)
		}
		return nil
	}

	if err := json.Unmarshal(trimmed, v); err != nil {
		var syntaxErr *json.SyntaxError
		switch {
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return fmt.Errorf("%w: %w", ErrUnparseable, err)
		default:
			return fmt.Errorf("%w: %w", ErrWrongShape, err)
		}
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: document is null", ErrWrongShape)
	}
	return nil
}
