// Command xpumd is the GPU fleet telemetry and control daemon: it loads
// the service configuration, builds the sampling pipeline, and runs
// until asked to stop.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/TApplencourt/xpumanager/internal/accelerators"
	"github.com/TApplencourt/xpumanager/internal/appconfig"
	"github.com/TApplencourt/xpumanager/internal/health"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/selfmetrics"
	"github.com/TApplencourt/xpumanager/internal/service"
	"github.com/TApplencourt/xpumanager/internal/sink"
	"github.com/TApplencourt/xpumanager/internal/sysman"
)

var (
	configPath     = flag.String("config", "/etc/xpumd/config.yaml", "path to the service configuration file")
	skipGpuCheck   = flag.Bool("skip-accelerator-check", false, "start even if no supported accelerator is detected (useful under the in-memory fake)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("xpumd exited: %v", err)
	}
}

// discardWriter is the persistence sink backend used until a real
// storage backend is wired in; spec.md treats the persistence backend
// as an external collaborator specified only at its append interface.
type discardWriter struct{}

func (discardWriter) Write(ctx context.Context, e sink.Entry) error { return nil }

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logs.Default()

	if !*skipGpuCheck {
		ok, err := accelerators.HasSupportedAccelerator()
		if err != nil {
			logger.Errorf("accelerator probe failed, continuing anyway: %v", err)
		} else if !ok {
			return errors.New("no supported accelerator detected on this host; pass -skip-accelerator-check to start anyway")
		}
	}

	metrics, err := selfmetrics.New(ctx, nil, logger)
	if err != nil {
		return err
	}

	// The real NVML/Level-Zero binding is out of scope; xpumd runs
	// against the deterministic in-memory fake until one is wired in.
	cap := sysman.NewFake()

	svc, err := service.New(ctx, service.Options{
		Cap:          cap,
		Logger:       logger,
		SinkWriter:   discardWriter{},
		SinkCapacity: 4096,
		Intervals:    defaultIntervals(),
		SelfMetrics:  metrics,
	})
	if err != nil {
		return err
	}

	watcher, err := appconfig.NewWatcher(*configPath, logger, func(cfg *appconfig.Config) {
		applyThresholds(svc, cfg, logger)
	})
	if err != nil {
		logger.Errorf("config watcher unavailable, running with default thresholds: %v", err)
	} else {
		defer watcher.Close()
	}

	svc.Start(ctx)
	logger.Infof("xpumd started with %d registered devices", len(svc.Registry.All()))

	<-ctx.Done()
	logger.Infof("shutting down")
	svc.Stop()
	return metrics.Shutdown(context.Background())
}

func defaultIntervals() map[metrictype.Type]time.Duration {
	intervals := map[metrictype.Type]time.Duration{}
	for _, t := range metrictype.All() {
		intervals[t] = time.Second
	}
	return intervals
}

func applyThresholds(svc *service.Service, cfg *appconfig.Config, logger logs.StructuredLogger) {
	for _, t := range cfg.Thresholds {
		deviceIDs := svc.Registry.All()
		if t.Device != "" {
			d, err := svc.Registry.ByBDF(t.Device)
			if err != nil {
				logger.Errorf("threshold reload: unknown device %q: %v", t.Device, err)
				continue
			}
			deviceIDs = []int{d.ID}
		}
		for _, id := range deviceIDs {
			if err := svc.ApplyThreshold(id, health.Component(t.Component), t.Value, t.Shutdown); err != nil {
				logger.Errorf("threshold reload rejected for device %d component %d: %v", id, t.Component, err)
			}
		}
	}
}
