// Package metrictype is the closed registry of measurable quantities the
// sampling loops and data handler family are parameterized over.
package metrictype

// Kind classifies how a raw reading must be turned into a published value.
type Kind int

const (
	// KindGauge readings are already the value to publish.
	KindGauge Kind = iota
	// KindCounter readings are monotonic accumulators; handlers derive a rate.
	KindCounter
	// KindActiveTimePair readings are (active_time, timestamp) tuples used
	// to derive an engine-group utilization.
	KindActiveTimePair
	// KindDerived readings exist only as handler output, never sampled raw.
	KindDerived
)

// Variant selects which data handler implementation a Type binds to.
type Variant int

const (
	VariantPassthrough Variant = iota
	VariantStats
	VariantCounterRate
	VariantTimeWeightedAvg
	VariantEngineGroup
)

// Type is the closed enumeration of measurable quantities.
type Type int

const (
	Power Type = iota
	Energy
	FrequencyActual
	FrequencyRequest
	TemperatureGPU
	TemperatureMemory
	MemoryUsed
	MemoryUtilization
	MemoryBandwidth
	MemoryReadThroughput
	MemoryWriteThroughput
	EngineUtilCompute
	EngineUtilMedia
	EngineUtilCopy
	EngineUtilRender
	EngineUtil3D
	EUActiveRatio
	EUStallRatio
	EUIdleRatio
	RASErrors
	FrequencyThrottleTime
	PCIeReadThroughput
	PCIeWriteThroughput
	EngineUtilPerEngine
	FabricThroughput
)

// Info is the static, per-Type registration row: its Kind, the handler
// Variant it binds to, the default scale divisor applied to published
// values, and a short human name used in logs and the CLI.
type Info struct {
	Kind    Kind
	Variant Variant
	Scale   int64
	Name    string
}

// order lists every registered Type in a stable, deterministic sequence;
// map iteration order is not, so All() walks this instead.
var order = []Type{
	Power, Energy, FrequencyActual, FrequencyRequest, TemperatureGPU,
	TemperatureMemory, MemoryUsed, MemoryUtilization, MemoryBandwidth,
	MemoryReadThroughput, MemoryWriteThroughput, EngineUtilCompute,
	EngineUtilMedia, EngineUtilCopy, EngineUtilRender, EngineUtil3D,
	EUActiveRatio, EUStallRatio, EUIdleRatio, RASErrors,
	FrequencyThrottleTime, PCIeReadThroughput, PCIeWriteThroughput,
	EngineUtilPerEngine, FabricThroughput,
}

var registry = map[Type]Info{
	Power:                  {KindGauge, VariantStats, 1000, "power"},
	Energy:                 {KindCounter, VariantCounterRate, 1, "energy"},
	FrequencyActual:        {KindGauge, VariantStats, 1, "frequency_actual"},
	FrequencyRequest:       {KindGauge, VariantPassthrough, 1, "frequency_request"},
	TemperatureGPU:         {KindGauge, VariantStats, 1, "temperature_gpu"},
	TemperatureMemory:      {KindGauge, VariantStats, 1, "temperature_memory"},
	MemoryUsed:             {KindGauge, VariantStats, 1, "memory_used"},
	MemoryUtilization:      {KindGauge, VariantStats, 100, "memory_utilization"},
	MemoryBandwidth:        {KindGauge, VariantStats, 100, "memory_bandwidth"},
	MemoryReadThroughput:   {KindCounter, VariantCounterRate, 1, "memory_read_throughput"},
	MemoryWriteThroughput:  {KindCounter, VariantCounterRate, 1, "memory_write_throughput"},
	EngineUtilCompute:      {KindActiveTimePair, VariantEngineGroup, 100, "engine_util_compute"},
	EngineUtilMedia:        {KindActiveTimePair, VariantEngineGroup, 100, "engine_util_media"},
	EngineUtilCopy:         {KindActiveTimePair, VariantEngineGroup, 100, "engine_util_copy"},
	EngineUtilRender:       {KindActiveTimePair, VariantEngineGroup, 100, "engine_util_render"},
	EngineUtil3D:           {KindActiveTimePair, VariantEngineGroup, 100, "engine_util_3d"},
	EUActiveRatio:          {KindCounter, VariantTimeWeightedAvg, 100, "eu_active_ratio"},
	EUStallRatio:           {KindCounter, VariantTimeWeightedAvg, 100, "eu_stall_ratio"},
	EUIdleRatio:            {KindCounter, VariantTimeWeightedAvg, 100, "eu_idle_ratio"},
	RASErrors:              {KindCounter, VariantCounterRate, 1, "ras_errors"},
	FrequencyThrottleTime:  {KindCounter, VariantTimeWeightedAvg, 100, "frequency_throttle_time"},
	PCIeReadThroughput:     {KindCounter, VariantCounterRate, 1, "pcie_read_throughput"},
	PCIeWriteThroughput:    {KindCounter, VariantCounterRate, 1, "pcie_write_throughput"},
	EngineUtilPerEngine:    {KindActiveTimePair, VariantEngineGroup, 100, "engine_util_per_engine"},
	FabricThroughput:       {KindCounter, VariantCounterRate, 1, "fabric_throughput"},
}

// Lookup returns the registered Info for t and reports whether t is known.
func Lookup(t Type) (Info, bool) {
	info, ok := registry[t]
	return info, ok
}

// All returns every registered Type, in a stable declaration order.
func All() []Type {
	types := make([]Type, len(order))
	copy(types, order)
	return types
}

func (t Type) String() string {
	if info, ok := registry[t]; ok {
		return info.Name
	}
	return "unknown"
}

// ByName looks up a Type by its registered short name (the inverse of
// String), for callers parsing a metric name from a flag or config file.
func ByName(name string) (Type, bool) {
	for _, t := range order {
		if registry[t].Name == name {
			return t, true
		}
	}
	return 0, false
}
