// Package query implements the sink-facing query API: snapshot lookups
// by device and metric, by device and session, and bulk current values
// across devices, without ever blocking a sampling loop longer than a
// single handler's own mutex hold.
package query

import (
	"sort"

	"github.com/TApplencourt/xpumanager/internal/handler"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
)

// StatsHandler is implemented by handler.Stats; query depends on this
// narrow interface rather than the concrete type so it can be faked in
// tests.
type StatsHandler interface {
	handler.Handler
	LatestStatsFor(deviceID int, sessionID string) (*sample.Datum, error)
}

// API binds the registered handlers for every enabled metric type and
// exposes the four read-only snapshot operations.
type API struct {
	handlers map[metrictype.Type]handler.Handler
}

// NewAPI wraps the given metric-type-to-handler bindings.
func NewAPI(handlers map[metrictype.Type]handler.Handler) *API {
	return &API{handlers: handlers}
}

// LatestFor returns the latest datum for device deviceID under metric t.
func (a *API) LatestFor(t metrictype.Type, deviceID int) (*sample.Datum, error) {
	h, ok := a.handlers[t]
	if !ok {
		return nil, nil
	}
	return h.LatestFor(deviceID)
}

// LatestStatsFor returns device deviceID's latest datum under metric t
// with min/max/avg taken from sessionID's own rolling statistics. Metrics
// whose handler does not maintain sessions return the plain latest datum.
func (a *API) LatestStatsFor(t metrictype.Type, deviceID int, sessionID string) (*sample.Datum, error) {
	h, ok := a.handlers[t]
	if !ok {
		return nil, nil
	}
	if sh, ok := h.(StatsHandler); ok {
		return sh.LatestStatsFor(deviceID, sessionID)
	}
	return h.LatestFor(deviceID)
}

// BulkLatest returns every device's latest datum under metric t.
func (a *API) BulkLatest(t metrictype.Type) map[int]*sample.Datum {
	h, ok := a.handlers[t]
	if !ok {
		return map[int]*sample.Datum{}
	}
	return h.BulkLatest()
}

// Snapshot returns every enabled metric's latest datum for device
// deviceID, taking each handler's mutex in turn — never more than one at
// a time, so sampling loops are never blocked for longer than a single
// handler's own read.
func (a *API) Snapshot(deviceID int) map[metrictype.Type]*sample.Datum {
	out := map[metrictype.Type]*sample.Datum{}
	types := make([]metrictype.Type, 0, len(a.handlers))
	for t := range a.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		d, err := a.handlers[t].LatestFor(deviceID)
		if err == nil && d != nil {
			out[t] = d
		}
	}
	return out
}
