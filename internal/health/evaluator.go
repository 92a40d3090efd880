// Package health implements the per-component threshold evaluator: core
// temperature, memory temperature, power, memory errors, and fabric
// port, applied to the latest query snapshot.
package health

import (
	"sync"

	"github.com/TApplencourt/xpumanager/internal/xpumerr"
)

// Component is one of the five evaluated health components, numbered as
// the original CLI's --component flag expects.
type Component int

const (
	CoreTemperature Component = 1
	MemoryTemperature Component = 2
	Power             Component = 3
	Memory            Component = 4
	FabricPort        Component = 5
)

// Status is the evaluator's outcome for one component on one device.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "Warning"
	StatusCritical Status = "Critical"
	StatusUnknown  Status = "Unknown"
)

// UnsetThreshold is the sentinel value meaning "no custom threshold
// configured", matching the original CLI's -1 convention.
const UnsetThreshold int64 = -1

// Result is the evaluator's structured outcome for one component.
type Result struct {
	Component         Component
	Status            Status
	Description       string
	ThrottleThreshold int64
	ShutdownThreshold int64
	CustomThreshold   int64
}

// Evaluator holds per-device, per-component custom thresholds and
// applies the gauge/critical/warning comparison. Custom thresholds are
// reloaded live by internal/appconfig without touching the sampling
// loops.
type Evaluator struct {
	mu      sync.RWMutex
	custom  map[int]map[Component]int64
}

// NewEvaluator returns an Evaluator with no custom thresholds configured.
func NewEvaluator() *Evaluator {
	return &Evaluator{custom: map[int]map[Component]int64{}}
}

// SetCustomThreshold validates and records a custom threshold for
// deviceID's component c. A threshold must be > 0 and <= shutdown, or
// equal to UnsetThreshold to clear it; anything else is InvalidThreshold.
func (e *Evaluator) SetCustomThreshold(deviceID int, c Component, threshold, shutdown int64) error {
	if threshold != UnsetThreshold && (threshold <= 0 || threshold > shutdown) {
		return xpumerr.New(xpumerr.InvalidThreshold,
			"custom threshold %d for component %d must be > 0 and <= shutdown threshold %d", threshold, c, shutdown)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	byComponent, ok := e.custom[deviceID]
	if !ok {
		byComponent = map[Component]int64{}
		e.custom[deviceID] = byComponent
	}
	byComponent[c] = threshold
	return nil
}

// customThresholdFor returns the configured custom threshold, or
// UnsetThreshold if none was set.
func (e *Evaluator) customThresholdFor(deviceID int, c Component) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if byComponent, ok := e.custom[deviceID]; ok {
		if v, ok := byComponent[c]; ok {
			return v
		}
	}
	return UnsetThreshold
}

// EvaluateGauge applies the threshold comparison for a gauge-backed
// component (core temp, memory temp, power): Critical when current >=
// shutdown; Warning when current >= max(throttle, custom); else OK.
func (e *Evaluator) EvaluateGauge(deviceID int, c Component, current, throttle, shutdown int64) Result {
	custom := e.customThresholdFor(deviceID, c)
	result := Result{
		Component:         c,
		ThrottleThreshold: throttle,
		ShutdownThreshold: shutdown,
		CustomThreshold:   custom,
	}

	if shutdown > 0 && current >= shutdown {
		result.Status = StatusCritical
		result.Description = "current value has reached the shutdown threshold"
		return result
	}
	warnThreshold := throttle
	if custom != UnsetThreshold && custom > warnThreshold {
		warnThreshold = custom
	}
	if warnThreshold > 0 && current >= warnThreshold {
		result.Status = StatusWarning
		result.Description = "current value has reached the throttle threshold"
		return result
	}
	result.Status = StatusOK
	result.Description = "within normal range"
	return result
}

// EvaluateMemory derives the memory component's status from RAS
// uncorrectable error counters: any uncorrectable error is Critical, any
// correctable error is Warning, otherwise OK.
func (e *Evaluator) EvaluateMemory(deviceID int, correctableErrors, uncorrectableErrors int64) Result {
	result := Result{Component: Memory}
	switch {
	case uncorrectableErrors > 0:
		result.Status = StatusCritical
		result.Description = "uncorrectable memory errors detected"
	case correctableErrors > 0:
		result.Status = StatusWarning
		result.Description = "correctable memory errors detected"
	default:
		result.Status = StatusOK
		result.Description = "no memory errors detected"
	}
	return result
}

// EvaluateFabricPort derives the fabric port component's status from the
// port's link-up state.
func (e *Evaluator) EvaluateFabricPort(deviceID int, linkUp bool, known bool) Result {
	result := Result{Component: FabricPort}
	if !known {
		result.Status = StatusUnknown
		result.Description = "fabric port state unavailable"
		return result
	}
	if linkUp {
		result.Status = StatusOK
		result.Description = "fabric port link up"
	} else {
		result.Status = StatusCritical
		result.Description = "fabric port link down"
	}
	return result
}
