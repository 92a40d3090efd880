package service

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/health"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sink"
	"github.com/TApplencourt/xpumanager/internal/sysman"
)

type discardWriter struct{}

func (discardWriter) Write(ctx context.Context, e sink.Entry) error { return nil }

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger, _ := logs.DiscardLogger()
	intervals := map[metrictype.Type]time.Duration{}
	for _, ty := range metrictype.All() {
		intervals[ty] = 10 * time.Millisecond
	}
	svc, err := New(context.Background(), Options{
		Cap:          sysman.NewFake(),
		Logger:       logger,
		SinkWriter:   discardWriter{},
		SinkCapacity: 64,
		Intervals:    intervals,
	})
	assert.NilError(t, err)
	return svc
}

func TestNewBuildsOneHandlerPerMetricType(t *testing.T) {
	svc := newTestService(t)
	for _, ty := range metrictype.All() {
		_, ok := svc.Handlers[ty]
		assert.Assert(t, ok, "missing handler for %v", ty)
	}
}

func TestStartStopRunsAndStopsEveryLoop(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
	// Stop must return promptly: it signals every loop without waiting
	// for it, then closes the sink, waiting only for the drain goroutine.
}

func TestApplyThresholdDelegatesToHealthEvaluator(t *testing.T) {
	svc := newTestService(t)
	err := svc.ApplyThreshold(0, health.CoreTemperature, 80, 100)
	assert.NilError(t, err)

	err = svc.ApplyThreshold(0, health.CoreTemperature, 150, 100)
	assert.ErrorContains(t, err, "must be > 0 and <= shutdown")
}

func TestNilSelfMetricsDisablesHooksWithoutPanicking(t *testing.T) {
	svc := newTestService(t) // Options.SelfMetrics left nil
	svc.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	svc.Stop()
}
