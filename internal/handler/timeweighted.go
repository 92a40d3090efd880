package handler

import "github.com/TApplencourt/xpumanager/internal/sample"

// TimeWeightedAvg handles metrics whose natural report is an integral
// since boot (e.g. frequency-throttle-time): it behaves as CounterRate
// but normalizes the resulting fraction into [0, scale] instead of a
// per-second rate.
type TimeWeightedAvg struct {
	*Base
}

// NewTimeWeightedAvg wraps b as a TimeWeightedAvg handler.
func NewTimeWeightedAvg(b *Base) *TimeWeightedAvg {
	return &TimeWeightedAvg{Base: b}
}

func (t *TimeWeightedAvg) Handle(record *sample.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		return
	}
	for deviceID, datum := range t.latest.Devices {
		raw := datum.Current
		prevCurrent := datum.Current

		var prevDatum *sample.Datum
		if t.previous != nil {
			prevDatum = t.previous.Devices[deviceID]
		}
		if prevDatum != nil {
			prevCurrent = prevDatum.Current
		}

		datum.Accumulated = raw
		datum.HasAccumulated = true

		if prevDatum == nil || !prevDatum.HasAccumulated {
			datum.Current = prevCurrent
			continue
		}
		deltaT := datum.TimestampUs - prevDatum.TimestampUs
		deltaValue := raw - prevDatum.Accumulated
		if deltaT <= 0 || deltaValue < 0 {
			datum.Current = prevCurrent
			continue
		}
		scale := datum.Scale
		if scale == 0 {
			scale = 1
		}
		fraction := (deltaValue * scale) / deltaT
		if fraction < 0 {
			fraction = 0
		}
		if fraction > scale {
			fraction = scale
		}
		datum.Current = fraction
	}
}

var _ Handler = (*TimeWeightedAvg)(nil)
