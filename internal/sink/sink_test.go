package sink

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
)

type recordingWriter struct {
	writes atomic.Int64
	err    error
}

func (w *recordingWriter) Write(ctx context.Context, e Entry) error {
	w.writes.Add(1)
	return w.err
}

type countingFailureRecorder struct {
	failures atomic.Int64
}

func (r *countingFailureRecorder) RecordSinkFailure(ctx context.Context) {
	r.failures.Add(1)
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestBufferedSinkAppendsSuccessfully(t *testing.T) {
	logger, _ := logs.DiscardLogger()
	w := &recordingWriter{}
	s := NewBufferedSink(w, logger, 8)
	defer s.Close()

	s.Append(Entry{Type: metrictype.Power, TimestampUs: 1})
	waitUntil(t, time.Second, func() bool { return s.Stats().Appended == 1 })
	assert.Equal(t, s.Stats().Dropped, int64(0))
}

func TestBufferedSinkDropsWhenQueueFull(t *testing.T) {
	logger, _ := logs.DiscardLogger()
	w := &recordingWriter{}
	s := NewBufferedSink(w, logger, 0) // unbuffered: Append always races the drain goroutine
	defer s.Close()

	for i := 0; i < 50; i++ {
		s.Append(Entry{Type: metrictype.Power, TimestampUs: int64(i)})
	}
	waitUntil(t, time.Second, func() bool {
		st := s.Stats()
		return st.Appended+st.Dropped == 50
	})
}

func TestBufferedSinkRecordsFailureMetric(t *testing.T) {
	logger, _ := logs.DiscardLogger()
	w := &recordingWriter{err: errors.New("disk full")}
	s := NewBufferedSink(w, logger, 8)
	rec := &countingFailureRecorder{}
	s.SetMetrics(rec)
	defer s.Close()

	s.Append(Entry{Type: metrictype.Power, TimestampUs: 1})
	// writeWithRetry backs off for up to 5s before giving up permanently.
	waitUntil(t, 6*time.Second, func() bool { return rec.failures.Load() == 1 })
	assert.Equal(t, s.Stats().Dropped, int64(1))
	assert.Assert(t, s.Stats().LastError != "")
}

func TestBufferedSinkNilMetricsDoesNotPanic(t *testing.T) {
	logger, _ := logs.DiscardLogger()
	w := &recordingWriter{err: errors.New("disk full")}
	s := NewBufferedSink(w, logger, 8)
	defer s.Close()

	s.Append(Entry{Type: metrictype.Power, TimestampUs: 1})
	waitUntil(t, 6*time.Second, func() bool { return s.Stats().Dropped == 1 })
}
