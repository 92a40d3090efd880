package handler

import (
	"sync"

	"github.com/TApplencourt/xpumanager/internal/sample"
)

// sessionState is one session's running min/max/sum/count for one
// device, seeded from the first observed current value.
type sessionState struct {
	min         int64
	max         int64
	sum         float64
	count       int64
	initialized bool
}

// Stats is the metric-statistics base variant: it maintains, per device
// and per opaque session_id, a running min/max/avg and writes it back
// into the published datum on every tick. Sessions are created by
// EnsureSession and reset explicitly by ResetSession — never implicitly.
type Stats struct {
	*Base

	sessMu   sync.Mutex
	sessions map[int]map[string]*sessionState
}

// NewStats wraps b as a Stats handler.
func NewStats(b *Base) *Stats {
	return &Stats{Base: b, sessions: map[int]map[string]*sessionState{}}
}

// EnsureSession registers sessionID for deviceID if it does not already
// exist, so the next Handle call starts accumulating for it.
func (s *Stats) EnsureSession(deviceID int, sessionID string) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	byDevice, ok := s.sessions[deviceID]
	if !ok {
		byDevice = map[string]*sessionState{}
		s.sessions[deviceID] = byDevice
	}
	if _, ok := byDevice[sessionID]; !ok {
		byDevice[sessionID] = &sessionState{}
	}
}

// ResetSession clears sessionID's accumulated min/max/avg state for
// deviceID, per the "cooperative stats reset per session" design note.
func (s *Stats) ResetSession(deviceID int, sessionID string) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if byDevice, ok := s.sessions[deviceID]; ok {
		byDevice[sessionID] = &sessionState{}
	}
}

// Handle updates every active session's running statistics for every
// device present in record, then writes the resulting min/max/avg back
// into the published datum under the handler's mutex.
func (s *Stats) Handle(record *sample.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return
	}
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	for deviceID, datum := range s.latest.Devices {
		byDevice, ok := s.sessions[deviceID]
		if !ok {
			continue
		}
		for _, st := range byDevice {
			if !st.initialized {
				st.min, st.max = datum.Current, datum.Current
				st.initialized = true
			}
			if datum.Current < st.min {
				st.min = datum.Current
			}
			if datum.Current > st.max {
				st.max = datum.Current
			}
			st.sum += float64(datum.Current)
			st.count++
		}
		// The datum's own min/max/avg reflect the "default" (empty
		// sessionID) session when one is registered for this device;
		// otherwise they are left as sampled — callers needing a specific
		// session's view use LatestStatsFor.
		if st, ok := byDevice[""]; ok {
			datum.Min, datum.Max = st.min, st.max
			datum.Avg = st.sum / float64(st.count)
		}
	}
}

// LatestStatsFor returns device deviceID's latest datum with min/max/avg
// overwritten from sessionID's own running statistics.
func (s *Stats) LatestStatsFor(deviceID int, sessionID string) (*sample.Datum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, nil
	}
	d, ok := s.latest.Devices[deviceID]
	if !ok {
		return nil, nil
	}
	out := d.Clone()

	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if byDevice, ok := s.sessions[deviceID]; ok {
		if st, ok := byDevice[sessionID]; ok && st.initialized {
			out.Min, out.Max = st.min, st.max
			out.Avg = st.sum / float64(st.count)
		}
	}
	return out, nil
}

var _ Handler = (*Stats)(nil)
