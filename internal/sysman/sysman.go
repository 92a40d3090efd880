// Package sysman declares the narrow capability interface the data-logic
// pipeline and config command surface consume to reach real hardware.
// The real NVML/Level-Zero binding is out of scope; this package only
// defines the boundary and a deterministic in-memory fake (see fake.go)
// used by every test in the sampler, device, config, and service packages.
package sysman

import (
	"context"
	"time"

	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
)

// DeviceHandle is an opaque reference a Capability implementation hands
// back from EnumerateDevices; callers never inspect its internals.
type DeviceHandle struct {
	ID int
}

// EngineHandle identifies one engine on one subdevice of a device.
type EngineHandle struct {
	Handle      uint64
	Kind        string
	OnSubdevice bool
	SubdeviceID int
}

// FabricPortHandle identifies one side of a fabric link.
type FabricPortHandle struct {
	Handle          uint64
	AttachID        uint32
	RemoteFabricID  uint32
	RemoteAttachID  uint32
}

// Properties is the property bag a device advertises: name/value string
// pairs plus the handful of typed fields the pipeline reads directly.
type Properties struct {
	Name            string
	BDF             string
	FabricID        uint32
	NumTiles        int
	FirmwareVersion string
	Extra           map[string]string
}

// ApplyResult is what a mutator returns to the config command surface.
type ApplyResult struct {
	OK      bool
	Message string
}

// ApplyParams is a loosely typed bag of arguments for Apply; the config
// command surface is responsible for populating the fields a given
// operation needs and Apply implementations read only what they expect.
type ApplyParams struct {
	Op          string
	TileID      int
	PowerWatts  int
	Interval    int
	FreqMin     int
	FreqMax     int
	Standby     string
	Scheduler   SchedulerSpec
	Engine      string
	Factor      float64
	Port        int
	Enabled     bool
	Beaconing   bool
	EccEnabled  bool
	Force       bool
}

// SchedulerSpec mirrors the parsed scheduler command: mode plus its
// numeric parameters (unused ones are zero).
type SchedulerSpec struct {
	Mode string
	V1   int64
	V2   int64
}

// ProcessInfo is one entry of a device's active-process list, surfaced so
// reset_device can be confirmed against live users.
type ProcessInfo struct {
	PID     int32
	Command string
	MemUsed int64
}

// Capability is the hardware-sysman boundary: one read method per raw
// measurement family, one mutator, and the introspection operations the
// device registry needs at startup.
type Capability interface {
	// ReadGauge samples an instantaneous or counter-kind reading for
	// metric type t on device d; subdevice -1 means device-level.
	ReadGauge(ctx context.Context, d DeviceHandle, t metrictype.Type, subdevice int) (*sample.Datum, error)
	// ReadActiveTime samples the active-time pairs backing engine-group
	// metrics; time-weighted-average metrics are read through ReadGauge.
	ReadActiveTime(ctx context.Context, d DeviceHandle, t metrictype.Type) ([]sample.ActiveTimeSample, error)
	Apply(ctx context.Context, d DeviceHandle, p ApplyParams) (ApplyResult, error)
	EnumerateDevices(ctx context.Context) ([]DeviceHandle, error)
	DeviceProperties(ctx context.Context, d DeviceHandle) (Properties, error)
	EngineHandles(ctx context.Context, d DeviceHandle) ([]EngineHandle, error)
	FabricPortHandles(ctx context.Context, d DeviceHandle) ([]FabricPortHandle, error)
	Reset(ctx context.Context, d DeviceHandle, force bool) error
	ProcessList(ctx context.Context, d DeviceHandle) ([]ProcessInfo, error)
}

// Now is overridable in tests; production code leaves it as time.Now.
var Now = time.Now
