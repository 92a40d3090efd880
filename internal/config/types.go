// Package config implements the device-configuration command surface:
// validated parsing of composite string arguments, dispatch to the
// hardware-sysman capability, and structured result reporting.
package config

// Status is the command surface's outcome classification.
type Status string

const (
	StatusOK     Status = "OK"
	StatusCancel Status = "CANCEL"
	StatusError  Status = "ERROR"
)

// Result is the structured outcome of every config command-surface
// operation: {status, return, error?, details…}. The command surface
// never renders tables — callers format Result for display.
type Result struct {
	Status  Status
	Return  string
	Error   string
	Details map[string]any
}

func errorResult(message string) Result {
	return Result{Status: StatusError, Return: message}
}

// QueryRequest asks for a device's (and optionally one tile's) current
// configuration.
type QueryRequest struct {
	Device string
	TileID int // -1 means "all tiles"
}

// SetPowerLimitRequest applies a device-level power limit. Interval is
// preserved verbatim in the result but, per the open design question,
// always dispatched as 0 — the binding does not use it.
type SetPowerLimitRequest struct {
	Device   string
	Watts    int
	Interval int
}

// SetFrequencyRangeRequest applies a tile-level frequency range.
type SetFrequencyRangeRequest struct {
	Device string
	TileID int
	Min    int
	Max    int
}

// SetStandbyRequest applies a tile-level standby mode.
type SetStandbyRequest struct {
	Device string
	TileID int
	Mode   string
}

// SetSchedulerRequest applies a tile-level scheduler mode from its raw
// comma-delimited spec string (e.g. "timeslice,20000,5000").
type SetSchedulerRequest struct {
	Device string
	TileID int
	Spec   string
}

// SetPerformanceFactorRequest applies a tile-level engine performance
// factor.
type SetPerformanceFactorRequest struct {
	Device string
	TileID int
	Engine string
	Value  float64
}

// SetFabricPortRequest enables or disables one fabric port.
type SetFabricPortRequest struct {
	Device  string
	TileID  int
	Port    int
	Enabled int
}

// SetFabricBeaconingRequest toggles beaconing on one fabric port.
type SetFabricBeaconingRequest struct {
	Device    string
	TileID    int
	Port      int
	Beaconing int
}

// SetMemoryEccRequest enables or disables memory ECC; the change is
// pending until the next reset/reboot.
type SetMemoryEccRequest struct {
	Device string
	Enable int
}

// ResetDeviceRequest resets a device after the caller confirms against
// its active process list.
type ResetDeviceRequest struct {
	Device    string
	Confirmed bool
}
