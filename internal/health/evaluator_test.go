package health

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEvaluateGaugeOK(t *testing.T) {
	e := NewEvaluator()
	r := e.EvaluateGauge(0, CoreTemperature, 50, 80, 100)
	assert.Equal(t, r.Status, StatusOK)
}

func TestEvaluateGaugeWarningAtThrottle(t *testing.T) {
	e := NewEvaluator()
	r := e.EvaluateGauge(0, CoreTemperature, 80, 80, 100)
	assert.Equal(t, r.Status, StatusWarning)
}

func TestEvaluateGaugeCriticalAtShutdown(t *testing.T) {
	e := NewEvaluator()
	r := e.EvaluateGauge(0, CoreTemperature, 100, 80, 100)
	assert.Equal(t, r.Status, StatusCritical)
}

func TestEvaluateGaugeCustomThresholdRaisesWarningFloor(t *testing.T) {
	e := NewEvaluator()
	assert.NilError(t, e.SetCustomThreshold(0, CoreTemperature, 90, 100))

	// Above the built-in throttle (80) but below the custom floor (90).
	r := e.EvaluateGauge(0, CoreTemperature, 85, 80, 100)
	assert.Equal(t, r.Status, StatusOK)

	r = e.EvaluateGauge(0, CoreTemperature, 90, 80, 100)
	assert.Equal(t, r.Status, StatusWarning)
}

func TestSetCustomThresholdRejectsOutOfRange(t *testing.T) {
	e := NewEvaluator()
	err := e.SetCustomThreshold(0, CoreTemperature, 0, 100)
	assert.ErrorContains(t, err, "must be > 0 and <= shutdown")

	err = e.SetCustomThreshold(0, CoreTemperature, 150, 100)
	assert.ErrorContains(t, err, "must be > 0 and <= shutdown")
}

func TestSetCustomThresholdAcceptsUnsetSentinel(t *testing.T) {
	e := NewEvaluator()
	assert.NilError(t, e.SetCustomThreshold(0, CoreTemperature, 90, 100))
	assert.NilError(t, e.SetCustomThreshold(0, CoreTemperature, UnsetThreshold, 100))
	r := e.EvaluateGauge(0, CoreTemperature, 85, 80, 100)
	assert.Equal(t, r.Status, StatusWarning) // back to the built-in throttle of 80
}

func TestEvaluateMemory(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, e.EvaluateMemory(0, 0, 0).Status, StatusOK)
	assert.Equal(t, e.EvaluateMemory(0, 1, 0).Status, StatusWarning)
	assert.Equal(t, e.EvaluateMemory(0, 0, 1).Status, StatusCritical)
	assert.Equal(t, e.EvaluateMemory(0, 5, 1).Status, StatusCritical) // uncorrectable wins
}

func TestEvaluateFabricPort(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, e.EvaluateFabricPort(0, false, false).Status, StatusUnknown)
	assert.Equal(t, e.EvaluateFabricPort(0, true, true).Status, StatusOK)
	assert.Equal(t, e.EvaluateFabricPort(0, false, true).Status, StatusCritical)
}

func TestCustomThresholdsAreScopedPerDevice(t *testing.T) {
	e := NewEvaluator()
	assert.NilError(t, e.SetCustomThreshold(0, CoreTemperature, 90, 100))
	r := e.EvaluateGauge(1, CoreTemperature, 85, 80, 100)
	assert.Equal(t, r.Status, StatusWarning) // device 1 never got the custom threshold
}
