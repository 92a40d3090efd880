// Package appconfig loads and live-reloads the daemon's YAML service
// configuration: per-metric-type sample intervals, health thresholds,
// and the persistence sink target.
package appconfig

import (
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/TApplencourt/xpumanager/internal/logs"
)

// IntervalConfig sets one metric type's sampling period.
type IntervalConfig struct {
	Metric         string `yaml:"metric" validate:"required"`
	IntervalMillis int    `yaml:"interval_ms" validate:"required,min=1"`
}

// ThresholdConfig sets one component's custom health threshold for one
// device (or every device when Device is empty). Shutdown is carried
// alongside Value because the evaluator validates a custom threshold
// against the component's shutdown ceiling at the point it's set, and a
// config-driven reload has no live hardware reading to consult.
type ThresholdConfig struct {
	Device    string `yaml:"device"` // PCI BDF string; empty applies to every device
	Component int    `yaml:"component" validate:"required,min=1,max=5"`
	Value     int64  `yaml:"value" validate:"required"`
	Shutdown  int64  `yaml:"shutdown" validate:"required"`
}

// SinkConfig names the persistence sink target.
type SinkConfig struct {
	Target string `yaml:"target" validate:"required"`
}

// Config is the complete daemon service configuration.
type Config struct {
	Intervals  []IntervalConfig  `yaml:"intervals"`
	Thresholds []ThresholdConfig `yaml:"thresholds"`
	Sink       SinkConfig        `yaml:"sink"`
}

var validate = validator.New()

// Load reads and validates the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Intervals {
		if err := validate.Struct(&cfg.Intervals[i]); err != nil {
			return nil, err
		}
	}
	for i := range cfg.Thresholds {
		if err := validate.Struct(&cfg.Thresholds[i]); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Watcher reloads Config on file change and rewires only the health
// evaluator's threshold table — it never touches the sampling loops,
// matching the config-reload contract.
type Watcher struct {
	path    string
	logger  logs.StructuredLogger
	watcher *fsnotify.Watcher
	onLoad  func(*Config)
}

// NewWatcher starts watching path for changes, invoking onLoad with each
// newly parsed Config (including the first, synchronous load).
func NewWatcher(path string, logger logs.StructuredLogger, onLoad func(*Config)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	onLoad(cfg)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{path: path, logger: logger, watcher: fw, onLoad: onLoad}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(100 * time.Millisecond)
		case <-debounce.C:
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Errorf("config reload failed, keeping previous thresholds: %v", err)
				continue
			}
			w.onLoad(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("config watcher error: %v", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
