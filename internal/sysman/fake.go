package sysman

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
)

// FakeDevice is one device's mutable state inside Fake. Tests populate
// GaugeScripts/ActiveTimeScripts to drive successive ticks deterministically.
type FakeDevice struct {
	Handle     DeviceHandle
	Props      Properties
	Engines    []EngineHandle
	FabricPort []FabricPortHandle
	Processes  []ProcessInfo

	// GaugeScripts[t] is consumed one element per call to ReadGauge for
	// metric type t; once exhausted the last element repeats.
	GaugeScripts map[metrictype.Type][]*sample.Datum
	gaugeCursor  map[metrictype.Type]int

	// ActiveTimeScripts[t] is consumed the same way for ReadActiveTime.
	ActiveTimeScripts map[metrictype.Type][][]sample.ActiveTimeSample
	activeCursor      map[metrictype.Type]int

	// ApplyErr, when set, is returned by Apply regardless of params.
	ApplyErr error
	// LastApply records the most recent ApplyParams seen, for assertions.
	LastApply ApplyParams

	// ReadErr, when set, is returned by ReadGauge/ReadActiveTime instead
	// of consuming a script entry — simulates a transient hardware fault.
	ReadErr error
}

// Fake is a deterministic in-memory Capability used throughout the test
// suite; it is not a production NVML/Level-Zero binding.
type Fake struct {
	mu      sync.Mutex
	Devices map[int]*FakeDevice
}

// NewFake builds an empty Fake; call AddDevice to populate it.
func NewFake() *Fake {
	return &Fake{Devices: map[int]*FakeDevice{}}
}

// AddDevice registers d (by its Handle.ID) and returns it for further
// configuration.
func (f *Fake) AddDevice(d *FakeDevice) *FakeDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.GaugeScripts == nil {
		d.GaugeScripts = map[metrictype.Type][]*sample.Datum{}
	}
	if d.ActiveTimeScripts == nil {
		d.ActiveTimeScripts = map[metrictype.Type][][]sample.ActiveTimeSample{}
	}
	d.gaugeCursor = map[metrictype.Type]int{}
	d.activeCursor = map[metrictype.Type]int{}
	f.Devices[d.Handle.ID] = d
	return d
}

func (f *Fake) device(d DeviceHandle) (*FakeDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fd, ok := f.Devices[d.ID]
	if !ok {
		return nil, fmt.Errorf("fake sysman: unknown device %d", d.ID)
	}
	return fd, nil
}

func (f *Fake) ReadGauge(ctx context.Context, d DeviceHandle, t metrictype.Type, subdevice int) (*sample.Datum, error) {
	fd, err := f.device(d)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if fd.ReadErr != nil {
		return nil, fd.ReadErr
	}
	script := fd.GaugeScripts[t]
	if len(script) == 0 {
		return &sample.Datum{}, nil
	}
	idx := fd.gaugeCursor[t]
	if idx >= len(script) {
		idx = len(script) - 1
	} else {
		fd.gaugeCursor[t] = idx + 1
	}
	return script[idx].Clone(), nil
}

func (f *Fake) ReadActiveTime(ctx context.Context, d DeviceHandle, t metrictype.Type) ([]sample.ActiveTimeSample, error) {
	fd, err := f.device(d)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if fd.ReadErr != nil {
		return nil, fd.ReadErr
	}
	script := fd.ActiveTimeScripts[t]
	if len(script) == 0 {
		return nil, nil
	}
	idx := fd.activeCursor[t]
	if idx >= len(script) {
		idx = len(script) - 1
	} else {
		fd.activeCursor[t] = idx + 1
	}
	out := make([]sample.ActiveTimeSample, len(script[idx]))
	copy(out, script[idx])
	return out, nil
}

func (f *Fake) Apply(ctx context.Context, d DeviceHandle, p ApplyParams) (ApplyResult, error) {
	fd, err := f.device(d)
	if err != nil {
		return ApplyResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fd.LastApply = p
	if fd.ApplyErr != nil {
		return ApplyResult{}, fd.ApplyErr
	}
	return ApplyResult{OK: true, Message: "applied"}, nil
}

func (f *Fake) EnumerateDevices(ctx context.Context) ([]DeviceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.Devices))
	for id := range f.Devices {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]DeviceHandle, len(ids))
	for i, id := range ids {
		out[i] = DeviceHandle{ID: id}
	}
	return out, nil
}

func (f *Fake) DeviceProperties(ctx context.Context, d DeviceHandle) (Properties, error) {
	fd, err := f.device(d)
	if err != nil {
		return Properties{}, err
	}
	return fd.Props, nil
}

func (f *Fake) EngineHandles(ctx context.Context, d DeviceHandle) ([]EngineHandle, error) {
	fd, err := f.device(d)
	if err != nil {
		return nil, err
	}
	return fd.Engines, nil
}

func (f *Fake) FabricPortHandles(ctx context.Context, d DeviceHandle) ([]FabricPortHandle, error) {
	fd, err := f.device(d)
	if err != nil {
		return nil, err
	}
	return fd.FabricPort, nil
}

func (f *Fake) Reset(ctx context.Context, d DeviceHandle, force bool) error {
	_, err := f.device(d)
	return err
}

func (f *Fake) ProcessList(ctx context.Context, d DeviceHandle) ([]ProcessInfo, error) {
	fd, err := f.device(d)
	if err != nil {
		return nil, err
	}
	return fd.Processes, nil
}

var _ Capability = (*Fake)(nil)
