// Package service wires together the device registry, persistence sink,
// data handler family, sampling loops, query API, health evaluator, and
// config command surface into one running daemon instance. Unlike a
// process-wide singleton, a Service value can be constructed more than
// once within the same process, which the test suite relies on.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blang/semver"

	"github.com/TApplencourt/xpumanager/internal/config"
	"github.com/TApplencourt/xpumanager/internal/device"
	"github.com/TApplencourt/xpumanager/internal/handler"
	"github.com/TApplencourt/xpumanager/internal/health"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/query"
	"github.com/TApplencourt/xpumanager/internal/sampler"
	"github.com/TApplencourt/xpumanager/internal/selfmetrics"
	"github.com/TApplencourt/xpumanager/internal/sink"
	"github.com/TApplencourt/xpumanager/internal/sysman"
)

// defaultInterval is used for every metric type not named in
// Options.Intervals.
const defaultInterval = 1 * time.Second

// Options configures a Service at construction time.
type Options struct {
	Cap             sysman.Capability
	Logger          logs.StructuredLogger
	SinkWriter      sink.Writer
	SinkCapacity    int
	Intervals       map[metrictype.Type]time.Duration
	MinFirmware     semver.Version
	ATSPredicate    func(sysman.Properties) bool
	SelfMetrics     *selfmetrics.Recorder // nil disables self-metrics hooks
}

// Service owns every long-lived component for one running daemon
// instance: the device registry, sink, handlers, sampling loops, query
// API, health evaluator, and config command surface.
type Service struct {
	Registry  *device.Registry
	Sink      sink.Sink
	Handlers  map[metrictype.Type]handler.Handler
	Query     *query.API
	Health    *health.Evaluator
	Config    *config.Surface
	Logger    logs.StructuredLogger
	metrics   *selfmetrics.Recorder

	loops []*sampler.Loop
}

// New constructs a Service: it enumerates devices, builds one handler per
// registered metric type, and prepares (but does not start) one sampling
// loop per metric type.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.SinkCapacity <= 0 {
		opts.SinkCapacity = 4096
	}
	reg, err := device.NewRegistry(ctx, opts.Cap, opts.ATSPredicate, opts.MinFirmware)
	if err != nil {
		return nil, fmt.Errorf("build device registry: %w", err)
	}

	s := sink.NewBufferedSink(opts.SinkWriter, opts.Logger, opts.SinkCapacity)
	// opts.SelfMetrics is a concrete *selfmetrics.Recorder; only wire it
	// through the narrow interfaces when non-nil, so a nil Options field
	// never turns into a non-nil-but-empty interface value.
	if opts.SelfMetrics != nil {
		s.SetMetrics(opts.SelfMetrics)
	}

	handlers := map[metrictype.Type]handler.Handler{}
	for _, t := range metrictype.All() {
		info, ok := metrictype.Lookup(t)
		if !ok {
			continue
		}
		base := handler.NewBase(t, s, opts.Logger)
		switch info.Variant {
		case metrictype.VariantPassthrough:
			handlers[t] = handler.NewPassthrough(base)
		case metrictype.VariantStats:
			handlers[t] = handler.NewStats(base)
		case metrictype.VariantCounterRate:
			handlers[t] = handler.NewCounterRate(base)
		case metrictype.VariantTimeWeightedAvg:
			handlers[t] = handler.NewTimeWeightedAvg(base)
		case metrictype.VariantEngineGroup:
			handlers[t] = handler.NewEngineGroup(base)
		default:
			handlers[t] = handler.NewPassthrough(base)
		}
	}

	queryAPI := query.NewAPI(handlers)
	evaluator := health.NewEvaluator()
	surface := config.NewSurface(reg, opts.Cap, queryAPI, opts.Logger)

	loops := make([]*sampler.Loop, 0, len(handlers))
	for _, t := range metrictype.All() {
		h, ok := handlers[t]
		if !ok {
			continue
		}
		interval := opts.Intervals[t]
		if interval <= 0 {
			interval = defaultInterval
		}
		loop := sampler.NewLoop(t, reg, opts.Cap, h, opts.Logger, interval)
		if opts.SelfMetrics != nil {
			loop.Metrics = opts.SelfMetrics
		}
		loops = append(loops, loop)
	}

	return &Service{
		Registry: reg,
		Sink:     s,
		Handlers: handlers,
		Query:    queryAPI,
		Health:   evaluator,
		Config:   surface,
		Logger:   opts.Logger,
		metrics:  opts.SelfMetrics,
		loops:    loops,
	}, nil
}

// Start launches every sampling loop's goroutine. It returns
// immediately; the loops run until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	for _, l := range s.loops {
		if s.metrics != nil {
			s.metrics.LoopStarted()
		}
		go func(l *sampler.Loop) {
			l.Run(ctx)
			if s.metrics != nil {
				s.metrics.LoopStopped()
			}
		}(l)
	}
}

// Stop signals every sampling loop to exit and drains the sink.
func (s *Service) Stop() {
	for _, l := range s.loops {
		l.Stop()
	}
	s.Sink.Close()
}

// ApplyThreshold pushes one custom health threshold read from the live
// service config reloader into the health evaluator, without touching
// any sampling loop.
func (s *Service) ApplyThreshold(deviceID int, component health.Component, threshold, shutdown int64) error {
	return s.Health.SetCustomThreshold(deviceID, component, threshold, shutdown)
}
