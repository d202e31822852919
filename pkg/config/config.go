// Package config loads the explorer host configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-explorer/pkg/layout"
	"github.com/dd0wney/cluso-explorer/pkg/persistence"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/validation"
	"github.com/dd0wney/cluso-explorer/pkg/visibility"
)

// Environment variables that override file settings.
const (
	EnvSnapshot    = "EXPLORER_SNAPSHOT"
	EnvLogLevel    = "LOG_LEVEL"
	EnvMetricsAddr = "EXPLORER_METRICS_ADDR"
)

const (
	DefaultSnapshotPath  = "explorer.json"
	DefaultAutosaveDelay = 800 * time.Millisecond
	DefaultFrameRate     = 30
	DefaultLogLevel      = "info"
	DefaultLogFile       = "explorer.log"
)

// Config is the full host configuration.
type Config struct {
	Snapshot SnapshotConfig `yaml:"snapshot"`
	View     ViewConfig     `yaml:"view"`
	Layout   layout.Config  `yaml:"layout"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SnapshotConfig selects where the graph is persisted. When S3 is set the
// object store is used instead of Path.
type SnapshotConfig struct {
	Path          string                `yaml:"path"`
	AutosaveDelay time.Duration         `yaml:"autosave_delay"`
	Watch         *bool                 `yaml:"watch"`
	S3            *persistence.S3Config `yaml:"s3"`
}

// WatchEnabled reports whether external edits to Path are reloaded.
func (s SnapshotConfig) WatchEnabled() bool {
	return s.S3 == nil && (s.Watch == nil || *s.Watch)
}

// ViewConfig controls what the canvas shows.
type ViewConfig struct {
	// Layers seeds the traversal radius of graphs created from scratch.
	Layers    int     `yaml:"layers"`
	FadeRate  float64 `yaml:"fade_rate"`
	FrameRate int     `yaml:"frame_rate"`
}

// FrameInterval is the time between rendered frames.
func (v ViewConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(v.FrameRate)
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, applies defaults and environment overrides, and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Snapshot.Path = validation.DefaultOr(c.Snapshot.Path, DefaultSnapshotPath)
	c.Snapshot.AutosaveDelay = validation.DefaultOrDuration(c.Snapshot.AutosaveDelay, DefaultAutosaveDelay)

	c.View.Layers = validation.DefaultOr(c.View.Layers, storage.DefaultViewLayers)
	c.View.FadeRate = validation.DefaultOr(c.View.FadeRate, visibility.DefaultRate)
	c.View.FrameRate = validation.DefaultOr(c.View.FrameRate, DefaultFrameRate)

	c.Layout = c.Layout.WithDefaults()

	c.Log.Level = validation.DefaultOr(c.Log.Level, DefaultLogLevel)
	c.Log.File = validation.DefaultOr(c.Log.File, DefaultLogFile)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSnapshot); v != "" {
		c.Snapshot.Path = v
		c.Snapshot.S3 = nil
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Addr = v
	}
}

// Validate checks every section and reports all problems together.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("Config")

	cv.Required("snapshot.path", c.Snapshot.Path).
		MinDuration("snapshot.autosave_delay", c.Snapshot.AutosaveDelay, 10*time.Millisecond).
		When(c.Snapshot.S3 != nil, func(cv *validation.ConfigValidator) {
			cv.Custom("snapshot.s3", func() error { return validation.Struct(c.Snapshot.S3) })
		})

	cv.RangeInt("view.layers", c.View.Layers, validation.MinViewLayers, validation.MaxViewLayers).
		PositiveFloat("view.fade_rate", c.View.FadeRate).
		RangeInt("view.frame_rate", c.View.FrameRate, 1, 240)

	cv.RangeInt("layout.active_depth", c.Layout.ActiveDepth, 1, 32).
		PositiveFloat("layout.link_distance", c.Layout.LinkDistance).
		RangeFloat("layout.velocity_decay", c.Layout.VelocityDecay, 0, 1).
		RangeFloat("layout.alpha_decay", c.Layout.AlphaDecay, 0, 1).
		RangeFloat("layout.reheat_alpha", c.Layout.ReheatAlpha, 0, 1)

	cv.OneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"})

	return cv.Validate()
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
