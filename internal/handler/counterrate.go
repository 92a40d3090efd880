package handler

import "github.com/TApplencourt/xpumanager/internal/sample"

// usPerSecond converts a microsecond delta into the per-second rate
// factor the counter-rate formula applies: current := (Δvalue *
// usPerSecond) / Δt(us) yields a value already in native per-second
// units, independent of whatever display scale a metric's datum reports.
const usPerSecond = 1_000_000

// CounterRate derives a rate from a counter-kind metric's accumulated
// delta: current := (Δvalue * usPerSecond) / Δt(us). Also maintains
// accumulated := latest raw value. A missing previous sample, Δt <= 0,
// or a negative delta (counter reset) publishes nothing for that device
// this tick — the previously published current is retained.
type CounterRate struct {
	*Base
}

// NewCounterRate wraps b as a CounterRate handler.
func NewCounterRate(b *Base) *CounterRate {
	return &CounterRate{Base: b}
}

func (c *CounterRate) Handle(record *sample.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return
	}
	for deviceID, datum := range c.latest.Devices {
		raw := datum.Current
		prevCurrent := datum.Current

		var prevDatum *sample.Datum
		if c.previous != nil {
			prevDatum = c.previous.Devices[deviceID]
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
		datum.Current = (deltaValue * usPerSecond) / deltaT
	}
}

var _ Handler = (*CounterRate)(nil)
