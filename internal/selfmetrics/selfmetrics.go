// Package selfmetrics instruments the daemon's own health: per-metric-type
// sample counts, sink failures, and the count of currently running
// sampling loops, exported through the OpenTelemetry SDK's periodic
// reader.
package selfmetrics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	metricapi "go.opentelemetry.io/otel/metric"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/TApplencourt/xpumanager/internal/logs"
)

// Recorder is the narrow surface the sampling loops and sink use to
// report their own activity; everything else about the OTel wiring is
// private to this package.
type Recorder struct {
	samples      metricapi.Int64Counter
	sinkFailures metricapi.Int64Counter
	activeLoops  atomic.Int64
	provider     *metricsdk.MeterProvider
	logger       logs.StructuredLogger
}

// New builds a Recorder whose meter provider periodically flushes to a
// push exporter. exporter must implement metricsdk.Exporter (the OTLP or
// stdout exporter the deployment wires in); passing nil disables export
// and the Recorder becomes a no-op counter sink, useful for tests.
func New(ctx context.Context, exporter metricsdk.Exporter, logger logs.StructuredLogger) (*Recorder, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "xpumd"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []metricsdk.Option{metricsdk.WithResource(res)}
	if exporter != nil {
		reader := metricsdk.NewPeriodicReader(exporter, metricsdk.WithInterval(30*time.Second))
		opts = append(opts, metricsdk.WithReader(reader))
	}
	provider := metricsdk.NewMeterProvider(opts...)

	meter := provider.Meter("xpumd/self_metrics")
	samples, err := meter.Int64Counter("xpumd/samples_collected",
		metricapi.WithDescription("number of samples successfully collected, by metric type"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instrument: %w", err)
	}
	sinkFailures, err := meter.Int64Counter("xpumd/sink_write_failures",
		metricapi.WithDescription("number of persistence sink writes that failed after exhausting retries"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instrument: %w", err)
	}

	r := &Recorder{samples: samples, sinkFailures: sinkFailures, provider: provider, logger: logger}

	activeLoopsGauge, err := meter.Int64ObservableGauge("xpumd/active_sampling_loops",
		metricapi.WithDescription("number of sampling loops currently running"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instrument: %w", err)
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, o metricapi.Observer) error {
		o.ObserveInt64(activeLoopsGauge, r.activeLoops.Load())
		return nil
	}, activeLoopsGauge)
	if err != nil {
		return nil, fmt.Errorf("failed to register callback: %w", err)
	}

	return r, nil
}

// RecordSample increments the sample counter for metricType.
func (r *Recorder) RecordSample(ctx context.Context, metricType string) {
	r.samples.Add(ctx, 1, metricapi.WithAttributes(attribute.String("metric_type", metricType)))
}

// RecordSinkFailure increments the sink-failure counter.
func (r *Recorder) RecordSinkFailure(ctx context.Context) {
	r.sinkFailures.Add(ctx, 1)
}

// LoopStarted marks one more sampling loop as running.
func (r *Recorder) LoopStarted() { r.activeLoops.Add(1) }

// LoopStopped marks one sampling loop as no longer running.
func (r *Recorder) LoopStopped() { r.activeLoops.Add(-1) }

// Shutdown flushes and tears down the meter provider, classifying the
// shutdown error the way a gRPC-based exporter reports cancellation.
func (r *Recorder) Shutdown(ctx context.Context) error {
	err := r.provider.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Canceled {
		r.logger.Infof("self-metrics shutdown canceled: %v", err)
		return nil
	}
	return fmt.Errorf("failed to shut down self-metrics provider: %w", err)
}
