// Package sample defines the immutable per-tick record that flows from a
// sampling loop into its bound data handler.
package sample

import "github.com/TApplencourt/xpumanager/internal/metrictype"

// ActiveTimeSample is the raw per-engine reading the engine-group
// handler consumes: a monotonic active-time counter
// (microseconds) paired with the timestamp it was read at, tagged with
// which engine and subdevice it came from.
type ActiveTimeSample struct {
	ActiveTimeUs int64
	TimestampUs  int64
	EngineKind   string
	OnSubdevice  bool
	SubdeviceID  int
	// EngineIndex disambiguates multiple engines of the same kind on the
	// same subdevice (e.g. two COMPUTE engines on subdevice 0).
	EngineIndex int
}

// Datum is a single device's measurement at one instant. Current is a
// scaled integer; Scale records the divisor a consumer must apply to
// recover a real-valued quantity. Min/Max/Avg are populated by handlers
// that maintain rolling statistics; Accumulated is populated for
// counter-kind metrics. Extended carries opaque per-handler raw data
// (e.g. the ActiveTimeSample slice for engine-group handlers) that never
// crosses the sink boundary.
type Datum struct {
	Current       int64
	Scale         int64
	Min           int64
	Max           int64
	Avg           float64
	Accumulated   int64
	HasAccumulated bool
	TimestampUs   int64
	NumSubdevices int
	Subdevices    map[int]*Datum
	Extended      []ActiveTimeSample
}

// Clone returns a deep copy safe to hand to a caller outside the handler's
// mutex, so a reader never observes a datum that a later write mutates.
func (d *Datum) Clone() *Datum {
	if d == nil {
		return nil
	}
	out := *d
	if d.Subdevices != nil {
		out.Subdevices = make(map[int]*Datum, len(d.Subdevices))
		for id, sub := range d.Subdevices {
			out.Subdevices[id] = sub.Clone()
		}
	}
	if d.Extended != nil {
		out.Extended = append([]ActiveTimeSample(nil), d.Extended...)
	}
	return &out
}

// Record is an immutable snapshot of one sampling round for one metric
// type across every device the sampler visited. A sampling loop produces
// exactly one Record per tick and hands it to its handler's pre_handle.
type Record struct {
	Type        metrictype.Type
	TimestampUs int64
	Devices     map[int]*Datum
}
