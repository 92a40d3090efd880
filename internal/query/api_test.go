package query

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/handler"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
)

func newHandlerWithDatum(t *testing.T, ty metrictype.Type, deviceID int, current int64) handler.Handler {
	t.Helper()
	logger, _ := logs.DiscardLogger()
	h := handler.NewPassthrough(handler.NewBase(ty, nil, logger))
	h.PreHandle(&sample.Record{Type: ty, TimestampUs: 1, Devices: map[int]*sample.Datum{deviceID: {Current: current}}})
	return h
}

func TestLatestForKnownMetric(t *testing.T) {
	api := NewAPI(map[metrictype.Type]handler.Handler{
		metrictype.Power: newHandlerWithDatum(t, metrictype.Power, 0, 150),
	})
	d, err := api.LatestFor(metrictype.Power, 0)
	assert.NilError(t, err)
	assert.Equal(t, d.Current, int64(150))
}

func TestLatestForUnknownMetricReturnsNil(t *testing.T) {
	api := NewAPI(map[metrictype.Type]handler.Handler{})
	d, err := api.LatestFor(metrictype.Power, 0)
	assert.NilError(t, err)
	assert.Assert(t, d == nil)
}

func TestLatestStatsForDelegatesToStatsHandler(t *testing.T) {
	logger, _ := logs.DiscardLogger()
	h := handler.NewStats(handler.NewBase(metrictype.Power, nil, logger))
	h.EnsureSession(0, "sess")
	h.PreHandle(&sample.Record{Type: metrictype.Power, TimestampUs: 1, Devices: map[int]*sample.Datum{0: {Current: 10}}})
	h.Handle(nil)
	h.PreHandle(&sample.Record{Type: metrictype.Power, TimestampUs: 2, Devices: map[int]*sample.Datum{0: {Current: 30}}})
	h.Handle(nil)

	api := NewAPI(map[metrictype.Type]handler.Handler{metrictype.Power: h})
	d, err := api.LatestStatsFor(metrictype.Power, 0, "sess")
	assert.NilError(t, err)
	assert.Equal(t, d.Min, int64(10))
	assert.Equal(t, d.Max, int64(30))
}

func TestLatestStatsForNonStatsHandlerFallsBackToLatest(t *testing.T) {
	api := NewAPI(map[metrictype.Type]handler.Handler{
		metrictype.FrequencyRequest: newHandlerWithDatum(t, metrictype.FrequencyRequest, 0, 77),
	})
	d, err := api.LatestStatsFor(metrictype.FrequencyRequest, 0, "anything")
	assert.NilError(t, err)
	assert.Equal(t, d.Current, int64(77))
}

func TestBulkLatestReturnsEveryDevice(t *testing.T) {
	logger, _ := logs.DiscardLogger()
	h := handler.NewPassthrough(handler.NewBase(metrictype.Power, nil, logger))
	h.PreHandle(&sample.Record{Type: metrictype.Power, TimestampUs: 1, Devices: map[int]*sample.Datum{
		0: {Current: 10}, 1: {Current: 20},
	}})
	api := NewAPI(map[metrictype.Type]handler.Handler{metrictype.Power: h})
	bulk := api.BulkLatest(metrictype.Power)
	assert.Equal(t, len(bulk), 2)
}

func TestBulkLatestUnknownMetricReturnsEmptyMap(t *testing.T) {
	api := NewAPI(map[metrictype.Type]handler.Handler{})
	bulk := api.BulkLatest(metrictype.Power)
	assert.Equal(t, len(bulk), 0)
}

func TestSnapshotCollectsAcrossHandlers(t *testing.T) {
	api := NewAPI(map[metrictype.Type]handler.Handler{
		metrictype.Power:            newHandlerWithDatum(t, metrictype.Power, 0, 100),
		metrictype.TemperatureGPU:   newHandlerWithDatum(t, metrictype.TemperatureGPU, 0, 55),
		metrictype.FrequencyRequest: newHandlerWithDatum(t, metrictype.FrequencyRequest, 1, 900), // different device
	})
	snap := api.Snapshot(0)
	assert.Equal(t, len(snap), 2)
	assert.Equal(t, snap[metrictype.Power].Current, int64(100))
	assert.Equal(t, snap[metrictype.TemperatureGPU].Current, int64(55))
}
