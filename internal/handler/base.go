// Package handler implements the data handler family: the per-metric-type
// stateful transformers that turn raw sample records into published
// derived values, per the base pre_handle/handle contract shared by every
// variant.
package handler

import (
	"sync"

	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
	"github.com/TApplencourt/xpumanager/internal/sink"
)

// Handler is implemented by every data handler variant. PreHandle and
// Handle are called in sequence by the sampling loop for each tick;
// everything else is a read-only query.
type Handler interface {
	PreHandle(record *sample.Record)
	Handle(record *sample.Record)
	LatestFor(deviceID int) (*sample.Datum, error)
	BulkLatest() map[int]*sample.Datum
}

// Base implements the shared rotation/mutex contract every variant
// embeds: pre_handle atomically rotates previous<-latest, latest<-record,
// stamping each datum's timestamp, then enqueues to the sink after the
// mutex is released. Handle is left to each variant.
type Base struct {
	mu       sync.Mutex
	Type     metrictype.Type
	Sink     sink.Sink
	Logger   logs.StructuredLogger
	latest   *sample.Record
	previous *sample.Record
}

// NewBase constructs a Base bound to the given metric type, sink, and
// logger.
func NewBase(t metrictype.Type, s sink.Sink, logger logs.StructuredLogger) *Base {
	return &Base{Type: t, Sink: s, Logger: logger}
}

// PreHandle rotates the published records and stamps timestamps under
// the handler's mutex, then enqueues the record to the sink after
// releasing it — the sink is never called while the mutex is held.
func (b *Base) PreHandle(record *sample.Record) {
	b.mu.Lock()
	for _, d := range record.Devices {
		d.TimestampUs = record.TimestampUs
	}
	b.previous = b.latest
	b.latest = record
	b.mu.Unlock()

	if b.Sink != nil {
		b.Sink.Append(sink.Entry{
			Type:        record.Type,
			TimestampUs: record.TimestampUs,
			Devices:     record.Devices,
		})
	}
}

// withLatest runs fn with the handler's mutex held, for variants that
// must read or mutate latest/previous under the same lock readers use.
func (b *Base) withLatest(fn func(latest, previous *sample.Record)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.latest, b.previous)
}

// LatestFor returns a deep copy of device d's datum from the most
// recently published record, so a concurrent reader never observes a
// partial mixture of old and new state.
func (b *Base) LatestFor(deviceID int) (*sample.Datum, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return nil, nil
	}
	d, ok := b.latest.Devices[deviceID]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

// BulkLatest returns a deep copy of every device's datum in the most
// recently published record.
func (b *Base) BulkLatest() map[int]*sample.Datum {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[int]*sample.Datum{}
	if b.latest == nil {
		return out
	}
	for id, d := range b.latest.Devices {
		out[id] = d.Clone()
	}
	return out
}
