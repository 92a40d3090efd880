// Package device maintains the fleet's device registry: stable IDs, BDF
// lookup, capability/property bags, and engine/fabric-port topology.
package device

import (
	"context"

	"github.com/blang/semver"

	"github.com/TApplencourt/xpumanager/internal/sysman"
	"github.com/TApplencourt/xpumanager/internal/xpumerr"
)

// FabricDirection distinguishes the two throughput counters a fabric port
// exposes.
type FabricDirection int

const (
	FabricReceived FabricDirection = iota
	FabricTransmitted
)

// EngineKey groups engine handles the way the engine-group utilization
// handler needs them: by subdevice and engine kind.
type EngineKey struct {
	SubdeviceID int
	Kind        string
}

// FabricPortKey identifies one side of a fabric link.
type FabricPortKey struct {
	AttachID       uint32
	RemoteFabricID uint32
	RemoteAttachID uint32
}

// Device is the registry's view of one accelerator: its stable ID, BDF,
// property bag, and topology. Engine and fabric maps are populated once
// at registration and are never mutated afterward — callers receive
// borrowed, read-only views.
type Device struct {
	ID         int
	BDF        string
	Properties sysman.Properties
	Engines    map[EngineKey][]sysman.EngineHandle
	FabricPort map[FabricPortKey][]sysman.FabricPortHandle
}

// EncodeFabricThroughputID computes a composite ID so that both sides of
// the same physical link can be joined deterministically. The layout is
// attachID<<34 | remoteFabricID<<20 | remoteAttachID<<2 | direction (a
// 2-bit tag). The fields do not get disjoint bit ranges: a remoteAttachID
// of 2^18 or more overlaps remoteFabricID's bits, a remoteFabricID of 2^14
// or more overlaps attachID's bits, and attachID bits above bit 29 are
// shifted out, so such inputs can produce the same ID.
func EncodeFabricThroughputID(attachID, remoteFabricID, remoteAttachID uint32, direction FabricDirection) uint64 {
	return uint64(attachID)<<34 | uint64(remoteFabricID)<<20 | uint64(remoteAttachID)<<2 | uint64(direction)
}

// Registry maps device IDs and BDFs to Device values and exposes the
// platform-family predicate (reported by the discovery CLI; the
// engine-group handler does not consult it).
type Registry struct {
	byID  map[int]*Device
	byBDF map[string]*Device
	order []int

	// atsPredicate decides whether a device is ATS-style, the platform
	// family that reports only per-engine handles (true), or one that
	// reports all-engines-of-kind aggregate handles (false). Devices the
	// predicate does not recognize yield false. The engine-group handler
	// takes the per-engine maximum for every device whatever this says.
	atsPredicate func(props sysman.Properties) bool

	minFirmware semver.Version
}

// DefaultATSPredicate matches devices whose name contains "ATS" — the
// only concrete signal the upstream source exposes for this choice.
func DefaultATSPredicate(props sysman.Properties) bool {
	return containsATS(props.Name)
}

func containsATS(name string) bool {
	for i := 0; i+3 <= len(name); i++ {
		if name[i] == 'A' && name[i+1] == 'T' && name[i+2] == 'S' {
			return true
		}
	}
	return false
}

// NewRegistry enumerates devices through cap and builds the topology maps.
// minFirmware, if non-zero, is the baseline every device's reported
// firmware string must meet or exceed; devices below it are still
// registered (so discovery/query keep working) but FirmwareBaseline will
// report the mismatch.
func NewRegistry(ctx context.Context, cap sysman.Capability, atsPredicate func(sysman.Properties) bool, minFirmware semver.Version) (*Registry, error) {
	if atsPredicate == nil {
		atsPredicate = DefaultATSPredicate
	}
	handles, err := cap.EnumerateDevices(ctx)
	if err != nil {
		return nil, xpumerr.New(xpumerr.HardwareFailure, "enumerate devices: %v", err)
	}
	r := &Registry{
		byID:         map[int]*Device{},
		byBDF:        map[string]*Device{},
		atsPredicate: atsPredicate,
		minFirmware:  minFirmware,
	}
	for _, h := range handles {
		props, err := cap.DeviceProperties(ctx, h)
		if err != nil {
			return nil, xpumerr.New(xpumerr.HardwareFailure, "device %d properties: %v", h.ID, err)
		}
		engines, err := cap.EngineHandles(ctx, h)
		if err != nil {
			return nil, xpumerr.New(xpumerr.HardwareFailure, "device %d engine handles: %v", h.ID, err)
		}
		ports, err := cap.FabricPortHandles(ctx, h)
		if err != nil {
			return nil, xpumerr.New(xpumerr.HardwareFailure, "device %d fabric port handles: %v", h.ID, err)
		}

		d := &Device{
			ID:         h.ID,
			BDF:        props.BDF,
			Properties: props,
			Engines:    map[EngineKey][]sysman.EngineHandle{},
			FabricPort: map[FabricPortKey][]sysman.FabricPortHandle{},
		}
		for _, e := range engines {
			key := EngineKey{SubdeviceID: e.SubdeviceID, Kind: e.Kind}
			d.Engines[key] = append(d.Engines[key], e)
		}
		for _, p := range ports {
			key := FabricPortKey{AttachID: p.AttachID, RemoteFabricID: p.RemoteFabricID, RemoteAttachID: p.RemoteAttachID}
			d.FabricPort[key] = append(d.FabricPort[key], p)
		}

		r.byID[d.ID] = d
		if d.BDF != "" {
			r.byBDF[d.BDF] = d
		}
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// ByID returns the device registered under id.
func (r *Registry) ByID(id int) (*Device, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, xpumerr.New(xpumerr.DeviceNotFound, "no device with id %d", id)
	}
	return d, nil
}

// ByBDF returns the device registered under the given PCI BDF string.
func (r *Registry) ByBDF(bdf string) (*Device, error) {
	d, ok := r.byBDF[bdf]
	if !ok {
		return nil, xpumerr.New(xpumerr.DeviceNotFound, "no device with BDF %s", bdf)
	}
	return d, nil
}

// All returns every registered device ID, in registration order.
func (r *Registry) All() []int {
	out := make([]int, len(r.order))
	copy(out, r.order)
	return out
}

// IsATSStyle reports whether d is an ATS-style device, one that reports
// only per-engine handles, per the registry's configured predicate.
func (r *Registry) IsATSStyle(d *Device) bool {
	return r.atsPredicate(d.Properties)
}

// FirmwareBaseline parses d's reported firmware version and compares it
// against the registry's configured minimum, returning a
// FirmwareVersionMismatch error if the device falls short. A device
// whose firmware string does not parse as semver is treated as meeting
// baseline — the original source only tracks a handful of exact formats
// and this registry does not attempt to normalize them all.
func (r *Registry) FirmwareBaseline(d *Device) error {
	if r.minFirmware.EQ(semver.Version{}) {
		return nil
	}
	v, err := semver.ParseTolerant(d.Properties.FirmwareVersion)
	if err != nil {
		return nil
	}
	if v.LT(r.minFirmware) {
		return xpumerr.New(xpumerr.FirmwareVersionMismatch,
			"device %d firmware %s is below required baseline %s", d.ID, v, r.minFirmware)
	}
	return nil
}

// ParseBDF reports whether s matches the PCI BDF pattern
// dddd:bb:dd.f — used wherever a device ID is accepted and the caller
// supplied a BDF string instead.
func ParseBDF(s string) bool {
	if len(s) != 12 {
		return false
	}
	isHex := func(b byte) bool {
		return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
	}
	for i, want := range "dddd:bb:dd.f" {
		switch want {
		case 'd', 'b', 'f':
			if !isHex(s[i]) {
				return false
			}
		default:
			if byte(s[i]) != byte(want) {
				return false
			}
		}
	}
	return true
}
