package handler

import "github.com/TApplencourt/xpumanager/internal/sample"

// engineKey identifies one engine instance across consecutive ticks so a
// delta can be computed against the matching previous reading.
type engineKey struct {
	subdeviceID int
	kind        string
	index       int
}

// groupKey identifies one (subdevice, engine kind) utilization group.
type groupKey struct {
	subdeviceID int
	kind        string
}

// EngineGroup is the engine-group utilization variant. Whether the
// hardware reports a single all-engines-of-kind aggregate handle or many
// per-engine handles, the computation is the same: per engine, derive
// util = scale*100*Δactive/Δt clamped to [0, 100*scale], then take the
// maximum over every engine in the same (subdevice, kind) group. A group
// with one aggregate entry reduces to that entry's own value, so the
// hardware-generation distinction never needs special-casing here — only
// which handles the capability layer reports differs.
type EngineGroup struct {
	*Base
}

// NewEngineGroup wraps b as an EngineGroup handler.
func NewEngineGroup(b *Base) *EngineGroup {
	return &EngineGroup{Base: b}
}

func (e *EngineGroup) Handle(record *sample.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil {
		return
	}
	for deviceID, datum := range e.latest.Devices {
		var prevDatum *sample.Datum
		if e.previous != nil {
			prevDatum = e.previous.Devices[deviceID]
		}
		prevByKey := map[engineKey]sample.ActiveTimeSample{}
		if prevDatum != nil {
			for _, s := range prevDatum.Extended {
				prevByKey[engineKey{s.SubdeviceID, s.EngineKind, s.EngineIndex}] = s
			}
		}

		scale := datum.Scale
		if scale == 0 {
			scale = 1
		}

		groups := map[groupKey]int64{}
		anySubdevice := false
		for _, cur := range datum.Extended {
			prev, ok := prevByKey[engineKey{cur.SubdeviceID, cur.EngineKind, cur.EngineIndex}]
			if !ok {
				continue
			}
			deltaT := cur.TimestampUs - prev.TimestampUs
			deltaActive := cur.ActiveTimeUs - prev.ActiveTimeUs
			if deltaT <= 0 || deltaActive < 0 {
				continue
			}
			util := (scale * 100 * deltaActive) / deltaT
			if util < 0 {
				util = 0
			}
			if max := 100 * scale; util > max {
				util = max
			}
			gk := groupKey{cur.SubdeviceID, cur.EngineKind}
			if cur.OnSubdevice {
				anySubdevice = true
			}
			if existing, ok := groups[gk]; !ok || util > existing {
				groups[gk] = util
			}
		}

		if datum.NumSubdevices == 0 || !anySubdevice {
			var max int64
			has := false
			for _, v := range groups {
				if !has || v > max {
					max, has = v, true
				}
			}
			if has {
				datum.Current = max
			}
			continue
		}

		if datum.Subdevices == nil {
			datum.Subdevices = map[int]*sample.Datum{}
		}
		for gk, util := range groups {
			sub, ok := datum.Subdevices[gk.subdeviceID]
			if !ok {
				sub = &sample.Datum{Scale: scale, TimestampUs: datum.TimestampUs}
				datum.Subdevices[gk.subdeviceID] = sub
			}
			sub.Current = util
		}
	}
}

var _ Handler = (*EngineGroup)(nil)
