package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/TApplencourt/xpumanager/internal/device"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/query"
	"github.com/TApplencourt/xpumanager/internal/sysman"
	"github.com/TApplencourt/xpumanager/internal/xpumerr"
)

// Surface is the config command surface: every operation validates its
// arguments, resolves the target device, dispatches to the
// hardware-sysman capability, and formats a structured Result. It never
// renders tables.
type Surface struct {
	Registry *device.Registry
	Cap      sysman.Capability
	QueryAPI *query.API
	Logger   logs.StructuredLogger
}

// NewSurface builds a Surface bound to reg/cap/q.
func NewSurface(reg *device.Registry, cap sysman.Capability, q *query.API, logger logs.StructuredLogger) *Surface {
	return &Surface{Registry: reg, Cap: cap, QueryAPI: q, Logger: logger}
}

// resolveDevice accepts either a decimal device ID or a BDF string, per
// the rule that the BDF form is accepted wherever a device ID is
// expected.
func (s *Surface) resolveDevice(spec string) (*device.Device, error) {
	if device.ParseBDF(spec) {
		return s.Registry.ByBDF(spec)
	}
	id, err := strconv.Atoi(spec)
	if err != nil {
		return nil, badArgument("invalid device Id")
	}
	return s.Registry.ByID(id)
}

func fromErr(err error) Result {
	if xe, ok := err.(*xpumerr.Error); ok {
		return Result{Status: StatusError, Return: xe.Message, Error: xe.Message}
	}
	return Result{Status: StatusError, Return: err.Error(), Error: err.Error()}
}

// Query reports a device's (and optionally one tile's) current
// configuration, read back through the query API so it reflects the
// latest sampled snapshot rather than a fresh hardware round-trip.
func (s *Surface) Query(ctx context.Context, req QueryRequest) Result {
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	details := map[string]any{
		"device_id":      d.ID,
		"bdf":             d.BDF,
		"num_tiles":       d.Properties.NumTiles,
		"firmware":        d.Properties.FirmwareVersion,
	}
	if req.TileID >= 0 {
		details["tile_id"] = req.TileID
	}
	if s.QueryAPI != nil {
		details["snapshot"] = s.QueryAPI.Snapshot(d.ID)
	}
	return Result{Status: StatusOK, Return: "OK", Details: details}
}

// SetPowerLimit applies a device-level power limit.
func (s *Surface) SetPowerLimit(ctx context.Context, req SetPowerLimitRequest) Result {
	if req.Watts <= 0 {
		return errorResult("invalid parameter: power limit should bigger than 0")
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	// The interval parameter is reserved: the current hardware-sysman
	// binding always receives 0 regardless of what the caller passed.
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_power_limit", PowerWatts: req.Watts, Interval: 0,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	return Result{
		Status: StatusOK,
		Return: fmt.Sprintf("Succeed to set the power limit on GPU %d.", d.ID),
		Details: map[string]any{"interval": req.Interval},
	}
}

// SetFrequencyRange applies a tile-level frequency range.
func (s *Surface) SetFrequencyRange(ctx context.Context, req SetFrequencyRangeRequest) Result {
	if req.Min <= 0 || req.Max <= 0 {
		return fromErr(badArgument("invalid parameter: min/max frequency should bigger than 0"))
	}
	if req.Min > req.Max {
		return fromErr(badArgument("invalid parameter: min frequency should not be bigger than max frequency"))
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_frequency_range", TileID: req.TileID, FreqMin: req.Min, FreqMax: req.Max,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf(
		"Succeed to change the core frequency range on GPU %d tile %d.", d.ID, req.TileID)}
}

// SetStandby applies a tile-level standby mode.
func (s *Surface) SetStandby(ctx context.Context, req SetStandbyRequest) Result {
	mode, perr := ParseStandby(req.Mode)
	if perr != nil {
		return fromErr(perr)
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_standby", TileID: req.TileID, Standby: mode,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf(
		"Succeed to change the standby mode on GPU %d tile %d.", d.ID, req.TileID)}
}

// SetScheduler applies a tile-level scheduler mode from its raw spec
// string.
func (s *Surface) SetScheduler(ctx context.Context, req SetSchedulerRequest) Result {
	spec, perr := ParseScheduler(req.Spec)
	if perr != nil {
		return fromErr(perr)
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_scheduler", TileID: req.TileID, Scheduler: spec,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf(
		"Succeed to change the scheduler mode on GPU %d tile %d.", d.ID, req.TileID)}
}

// SetPerformanceFactor applies a tile-level engine performance factor.
func (s *Surface) SetPerformanceFactor(ctx context.Context, req SetPerformanceFactorRequest) Result {
	engine := strings.ToLower(strings.TrimSpace(req.Engine))
	if engine != "compute" && engine != "media" {
		return fromErr(badArgument("invalid engine"))
	}
	if req.Value < 0.0 || req.Value > 100.0 {
		return fromErr(badArgument("invalid factor"))
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_performance_factor", TileID: req.TileID, Engine: engine, Factor: req.Value,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf(
		"Succeed to change the %s performance factor to %g on GPU %d tile %d.",
		engine, req.Value, d.ID, req.TileID)}
}

// SetFabricPort enables or disables one fabric port.
func (s *Surface) SetFabricPort(ctx context.Context, req SetFabricPortRequest) Result {
	if (req.Enabled != 0 && req.Enabled != 1) || req.Port < 0 {
		return fromErr(badArgument("invalid parameter enabled"))
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_fabric_port", TileID: req.TileID, Port: req.Port, Enabled: req.Enabled == 1,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	state := "down"
	if req.Enabled == 1 {
		state = "up"
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf(
		"Succeed to change Xe Link port %d to %s.", req.Port, state)}
}

// SetFabricBeaconing toggles beaconing on one fabric port.
func (s *Surface) SetFabricBeaconing(ctx context.Context, req SetFabricBeaconingRequest) Result {
	if req.Beaconing != 0 && req.Beaconing != 1 {
		return fromErr(badArgument("invalid parameter value: beaconing"))
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_fabric_beaconing", TileID: req.TileID, Port: req.Port, Beaconing: req.Beaconing == 1,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	state := "off"
	if req.Beaconing == 1 {
		state = "on"
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf(
		"Succeed to change Xe Link port %d beaconing to %s.", req.Port, state)}
}

// SetMemoryEcc enables or disables memory ECC; the change is reported as
// pending until the next reset/reboot.
func (s *Surface) SetMemoryEcc(ctx context.Context, req SetMemoryEccRequest) Result {
	if req.Enable != 0 && req.Enable != 1 {
		return fromErr(badArgument("invalid parameter value"))
	}
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	enabled := req.Enable == 1
	res, err := s.Cap.Apply(ctx, sysman.DeviceHandle{ID: d.ID}, sysman.ApplyParams{
		Op: "set_memory_ecc", EccEnabled: enabled,
	})
	if err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	if !res.OK {
		return errorResult(res.Message)
	}
	verb := "disable"
	pending := "disabled"
	if enabled {
		verb, pending = "enable", "enabled"
	}
	return Result{
		Status: StatusOK,
		Return: fmt.Sprintf("Successfully %s ECC memory on GPU %d. Please reset the GPU or reboot the OS for the change to take effect.", verb, d.ID),
		Details: map[string]any{"pending": pending},
	}
}

// ResetDevice resets a device; the caller is expected to have already
// confirmed against ProcessList — Confirmed=false reports CANCEL without
// touching hardware.
func (s *Surface) ResetDevice(ctx context.Context, req ResetDeviceRequest) Result {
	d, err := s.resolveDevice(req.Device)
	if err != nil {
		return fromErr(err)
	}
	if !req.Confirmed {
		return Result{Status: StatusCancel, Return: "Reset is cancelled"}
	}
	if err := s.Cap.Reset(ctx, sysman.DeviceHandle{ID: d.ID}, true); err != nil {
		return fromErr(xpumerr.New(xpumerr.HardwareFailure, "%v", err))
	}
	return Result{Status: StatusOK, Return: fmt.Sprintf("Succeed to reset the GPU %d", d.ID)}
}

// ActiveProcesses returns the active process list for deviceSpec, for
// the caller to present before requesting confirmation for ResetDevice.
func (s *Surface) ActiveProcesses(ctx context.Context, deviceSpec string) ([]sysman.ProcessInfo, error) {
	d, err := s.resolveDevice(deviceSpec)
	if err != nil {
		return nil, err
	}
	return s.Cap.ProcessList(ctx, sysman.DeviceHandle{ID: d.ID})
}
