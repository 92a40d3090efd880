// Package sink implements the persistence boundary: a non-blocking,
// backoff-retrying append path that isolates durability failures from
// the sampling pipeline.
package sink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
)

// Entry is one append request: a metric type, the sample timestamp, and
// the per-device datum map it applies to.
type Entry struct {
	Type        metrictype.Type
	TimestampUs int64
	Devices     map[int]*sample.Datum
}

// Writer is the durable backend a Sink drains into. Implementations may
// be slow or occasionally fail; Sink retries and never lets a Writer
// error reach the handler.
type Writer interface {
	Write(ctx context.Context, e Entry) error
}

// Stats is the sink's own status surface — the "own status" the
// pipeline's handler must never learn about except through a logged,
// suppressed error.
type Stats struct {
	Appended  int64
	Dropped   int64
	LastError string
}

// Sink is the append-only boundary the data handler family enqueues to.
// append(...) returns immediately; a background goroutine drains the
// queue into the Writer with bounded exponential backoff.
type Sink interface {
	Append(e Entry)
	Stats() Stats
	Close()
}

// FailureRecorder receives a notification for every write that exhausts
// retries. The service layer wires this to the self-metrics recorder;
// sink itself stays unaware of the telemetry stack.
type FailureRecorder interface {
	RecordSinkFailure(ctx context.Context)
}

// BufferedSink is the production Sink: a bounded channel plus one drain
// goroutine, matching the "single-writer externally, may multiplex
// internally" contract of the concurrency model.
type BufferedSink struct {
	writer  Writer
	logger  logs.StructuredLogger
	metrics FailureRecorder
	queue   chan Entry
	done    chan struct{}
	wg      sync.WaitGroup

	appended  atomic.Int64
	dropped   atomic.Int64
	lastErrMu sync.Mutex
	lastErr   string
}

// NewBufferedSink starts the drain goroutine and returns a ready Sink.
// capacity bounds how many pending entries may queue before Append starts
// dropping — durability is best-effort, never a reason to block a sampler.
func NewBufferedSink(writer Writer, logger logs.StructuredLogger, capacity int) *BufferedSink {
	s := &BufferedSink{
		writer: writer,
		logger: logger,
		queue:  make(chan Entry, capacity),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.drain()
	return s
}

// SetMetrics wires a FailureRecorder; nil disables the hook. It must be
// called before the sink starts receiving writes that can fail.
func (s *BufferedSink) SetMetrics(m FailureRecorder) {
	s.metrics = m
}

// Append enqueues e without blocking; if the queue is full the entry is
// dropped and counted, never blocking the caller (the handler's
// pre_handle path).
func (s *BufferedSink) Append(e Entry) {
	select {
	case s.queue <- e:
	default:
		s.dropped.Add(1)
		s.logger.Errorf("sink queue full, dropping sample for %s", e.Type)
	}
}

func (s *BufferedSink) drain() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.queue:
			s.writeWithRetry(e)
		case <-s.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case e := <-s.queue:
					s.writeWithRetry(e)
				default:
					return
				}
			}
		}
	}
}

func (s *BufferedSink) writeWithRetry(e Entry) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Second
	err := backoff.Retry(func() error {
		return s.writer.Write(context.Background(), e)
	}, b)
	if err != nil {
		s.dropped.Add(1)
		s.lastErrMu.Lock()
		s.lastErr = err.Error()
		s.lastErrMu.Unlock()
		s.logger.Errorf("persistence sink append failed for %s: %v", e.Type, err)
		if s.metrics != nil {
			s.metrics.RecordSinkFailure(context.Background())
		}
		return
	}
	s.appended.Add(1)
}

// Stats returns the sink's current counters.
func (s *BufferedSink) Stats() Stats {
	s.lastErrMu.Lock()
	defer s.lastErrMu.Unlock()
	return Stats{
		Appended:  s.appended.Load(),
		Dropped:   s.dropped.Load(),
		LastError: s.lastErr,
	}
}

// Close signals the drain goroutine to flush and stop, then waits for it.
func (s *BufferedSink) Close() {
	close(s.done)
	s.wg.Wait()
}

var _ Sink = (*BufferedSink)(nil)
