package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-explorer/pkg/layout"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
	"github.com/dd0wney/cluso-explorer/pkg/visibility"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "explorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSnapshotPath, cfg.Snapshot.Path)
	assert.Equal(t, DefaultAutosaveDelay, cfg.Snapshot.AutosaveDelay)
	assert.True(t, cfg.Snapshot.WatchEnabled())
	assert.Equal(t, storage.DefaultViewLayers, cfg.View.Layers)
	assert.Equal(t, visibility.DefaultRate, cfg.View.FadeRate)
	assert.Equal(t, time.Second/30, cfg.View.FrameInterval())
	assert.Equal(t, layout.DefaultConfig(), cfg.Layout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
snapshot:
  path: graphs/work.yaml.sz
  autosave_delay: 2s
  watch: false
view:
  layers: 4
  frame_rate: 60
layout:
  link_distance: 120
log:
  level: debug
metrics:
  addr: ":9102"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "graphs/work.yaml.sz", cfg.Snapshot.Path)
	assert.Equal(t, 2*time.Second, cfg.Snapshot.AutosaveDelay)
	assert.False(t, cfg.Snapshot.WatchEnabled())
	assert.Equal(t, 4, cfg.View.Layers)
	assert.Equal(t, 120.0, cfg.Layout.LinkDistance)
	assert.Equal(t, layout.DefaultConfig().Charge, cfg.Layout.Charge, "unset layout fields keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
}

func TestLoadS3Section(t *testing.T) {
	path := writeConfig(t, `
snapshot:
  s3:
    bucket: graphs
    key: main.json
    region: eu-west-1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Snapshot.S3)
	assert.Equal(t, "graphs", cfg.Snapshot.S3.Bucket)
	assert.False(t, cfg.Snapshot.WatchEnabled(), "object storage is not watched")

	bad := writeConfig(t, `
snapshot:
  s3:
    key: main.json
`)
	_, err = Load(bad)
	assert.ErrorContains(t, err, "snapshot.s3")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvSnapshot, "/tmp/other.json")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvMetricsAddr, "localhost:9000")

	path := writeConfig(t, `
snapshot:
  s3:
    bucket: graphs
    key: main.json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.json", cfg.Snapshot.Path)
	assert.Nil(t, cfg.Snapshot.S3, "an explicit snapshot path wins over object storage")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "localhost:9000", cfg.Metrics.Addr)
}

func TestValidateCollectsErrors(t *testing.T) {
	path := writeConfig(t, `
view:
  layers: 9
log:
  level: verbose
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors")

	_, err = Load(writeConfig(t, "view: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	path := writeConfig(t, string(data))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Layout, cfg.Layout)
	assert.Equal(t, Default().Snapshot.AutosaveDelay, cfg.Snapshot.AutosaveDelay)
}
