package metrictype

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestAllMatchesRegistry(t *testing.T) {
	for _, typ := range All() {
		_, ok := Lookup(typ)
		assert.Assert(t, ok, "type %v missing from registry", typ)
	}
}

func TestByNameRoundTrips(t *testing.T) {
	for _, typ := range All() {
		got, ok := ByName(typ.String())
		assert.Assert(t, ok)
		assert.Equal(t, got, typ)
	}
}

func TestByNameUnknown(t *testing.T) {
	_, ok := ByName("not_a_real_metric")
	assert.Assert(t, !ok)
}

// EU active/stall/idle ratio readings are a single accumulated-time
// counter per device/tile, the same shape as frequency-throttle-time —
// not the (active_time, engine_kind, subdevice) tuple KindActiveTimePair
// describes. Both must stay on the gauge-read path its TimeWeightedAvg
// variant consumes.
func TestEURatiosShareFrequencyThrottleTimeShape(t *testing.T) {
	for _, typ := range []Type{EUActiveRatio, EUStallRatio, EUIdleRatio} {
		info, ok := Lookup(typ)
		assert.Assert(t, ok)
		assert.Equal(t, info.Kind, KindCounter)
		assert.Equal(t, info.Variant, VariantTimeWeightedAvg)
	}
	throttleInfo, _ := Lookup(FrequencyThrottleTime)
	assert.Equal(t, throttleInfo.Kind, KindCounter)
	assert.Equal(t, throttleInfo.Variant, VariantTimeWeightedAvg)
}

func TestEngineUtilTypesUseActiveTimePair(t *testing.T) {
	for _, typ := range []Type{
		EngineUtilCompute, EngineUtilMedia, EngineUtilCopy,
		EngineUtilRender, EngineUtil3D, EngineUtilPerEngine,
	} {
		info, ok := Lookup(typ)
		assert.Assert(t, ok)
		assert.Equal(t, info.Kind, KindActiveTimePair)
		assert.Equal(t, info.Variant, VariantEngineGroup)
	}
}
