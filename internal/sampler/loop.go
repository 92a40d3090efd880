// Package sampler runs one goroutine per enabled metric type, ticking at
// its configured interval and feeding sample records to the bound data
// handler.
package sampler

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/TApplencourt/xpumanager/internal/device"
	"github.com/TApplencourt/xpumanager/internal/handler"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
	"github.com/TApplencourt/xpumanager/internal/sysman"
)

// Clock lets tests substitute a deterministic time source; production
// code uses time.Now.
type Clock func() time.Time

// SampleRecorder receives one notification per device successfully read
// in a tick. The service layer wires this to the self-metrics recorder.
type SampleRecorder interface {
	RecordSample(ctx context.Context, metricType string)
}

// Loop is one metric type's sampling goroutine: it owns a ticker, a
// device registry view, the hardware-sysman capability, and the handler
// it feeds.
type Loop struct {
	Type     metrictype.Type
	Registry *device.Registry
	Cap      sysman.Capability
	Handler  handler.Handler
	Logger   logs.StructuredLogger
	Interval time.Duration
	Clock    Clock
	Metrics  SampleRecorder

	stop chan struct{}
}

// NewLoop constructs a Loop; Clock defaults to time.Now if nil.
func NewLoop(t metrictype.Type, reg *device.Registry, cap sysman.Capability, h handler.Handler, logger logs.StructuredLogger, interval time.Duration) *Loop {
	return &Loop{
		Type:     t,
		Registry: reg,
		Cap:      cap,
		Handler:  h,
		Logger:   logger,
		Interval: interval,
		Clock:    time.Now,
		stop:     make(chan struct{}),
	}
}

// Run blocks, ticking at l.Interval until ctx is cancelled or Stop is
// called. A loop that falls behind skips a tick rather than queuing —
// the pipeline never accumulates backlog.
func (l *Loop) Run(ctx context.Context) {
	clock := l.Clock
	if clock == nil {
		clock = time.Now
	}
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.tick(ctx, clock())
		}
	}
}

// Stop signals Run to exit at the next tick boundary.
func (l *Loop) Stop() {
	close(l.stop)
}

func (l *Loop) tick(ctx context.Context, now time.Time) {
	info, ok := metrictype.Lookup(l.Type)
	if !ok {
		return
	}
	record := &sample.Record{
		Type:        l.Type,
		TimestampUs: now.UnixMicro(),
		Devices:     map[int]*sample.Datum{},
	}

	var errs error
	for _, id := range l.Registry.All() {
		d, err := l.Registry.ByID(id)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		datum, derr := l.readDevice(ctx, info, d)
		if derr != nil {
			errs = multierror.Append(errs, derr)
			continue
		}
		if datum != nil {
			record.Devices[id] = datum
			if l.Metrics != nil {
				l.Metrics.RecordSample(ctx, l.Type.String())
			}
		}
	}
	if errs != nil && l.Logger != nil {
		l.Logger.Errorf("sampling %s: %v", l.Type, errs)
	}

	l.Handler.PreHandle(record)
	l.Handler.Handle(record)
}

func (l *Loop) readDevice(ctx context.Context, info metrictype.Info, d *device.Device) (*sample.Datum, error) {
	handle := sysman.DeviceHandle{ID: d.ID}

	if info.Kind == metrictype.KindActiveTimePair {
		samples, err := l.Cap.ReadActiveTime(ctx, handle, l.Type)
		if err != nil {
			return nil, err
		}
		return &sample.Datum{
			Scale:         info.Scale,
			NumSubdevices: d.Properties.NumTiles,
			Extended:      samples,
		}, nil
	}

	datum, err := l.Cap.ReadGauge(ctx, handle, l.Type, -1)
	if err != nil {
		return nil, err
	}
	if datum == nil {
		datum = &sample.Datum{}
	}
	if datum.Scale == 0 {
		datum.Scale = info.Scale
	}
	return datum, nil
}
