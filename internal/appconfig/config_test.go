package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/logs"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
intervals:
  - metric: power
    interval_ms: 500
thresholds:
  - device: "0000:00:02.0"
    component: 1
    value: 85
    shutdown: 100
sink:
  target: memory
`

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validConfig)
	cfg, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, len(cfg.Intervals), 1)
	assert.Equal(t, cfg.Intervals[0].Metric, "power")
	assert.Equal(t, cfg.Intervals[0].IntervalMillis, 500)
	assert.Equal(t, cfg.Thresholds[0].Device, "0000:00:02.0")
	assert.Equal(t, cfg.Thresholds[0].Shutdown, int64(100))
	assert.Equal(t, cfg.Sink.Target, "memory")
}

func TestLoadMissingRequiredField(t *testing.T) {
	const missingShutdown = `
thresholds:
  - component: 1
    value: 85
sink:
  target: memory
`
	path := writeConfig(t, t.TempDir(), missingShutdown)
	_, err := Load(path)
	assert.ErrorContains(t, err, "Shutdown")
}

func TestLoadRejectsComponentOutOfRange(t *testing.T) {
	const badComponent = `
thresholds:
  - component: 9
    value: 85
    shutdown: 100
sink:
  target: memory
`
	path := writeConfig(t, t.TempDir(), badComponent)
	_, err := Load(path)
	assert.ErrorContains(t, err, "Component")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Assert(t, err != nil)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, validConfig)
	logger, _ := logs.DiscardLogger()

	loaded := make(chan *Config, 4)
	w, err := NewWatcher(path, logger, func(cfg *Config) { loaded <- cfg })
	assert.NilError(t, err)
	defer w.Close()

	select {
	case cfg := <-loaded:
		assert.Equal(t, cfg.Sink.Target, "memory")
	case <-time.After(time.Second):
		t.Fatal("expected synchronous initial load")
	}

	updated := `
sink:
  target: disk
`
	assert.NilError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-loaded:
		assert.Equal(t, cfg.Sink.Target, "disk")
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after the file changed")
	}
}

func TestWatcherKeepsPreviousConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, validConfig)
	logger, observed := logs.DiscardLogger()

	loaded := make(chan *Config, 4)
	w, err := NewWatcher(path, logger, func(cfg *Config) { loaded <- cfg })
	assert.NilError(t, err)
	defer w.Close()
	<-loaded // drain the synchronous initial load

	assert.NilError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	select {
	case <-loaded:
		t.Fatal("an invalid reload must not call onLoad")
	case <-time.After(500 * time.Millisecond):
	}
	assert.Assert(t, observed.Len() >= 1) // invalid reload logs rather than panics
}
