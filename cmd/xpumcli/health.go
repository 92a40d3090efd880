package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TApplencourt/xpumanager/internal/device"
	"github.com/TApplencourt/xpumanager/internal/health"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
)

// resolveDeviceSpec accepts either a decimal device ID or a BDF string,
// the same rule internal/config.Surface applies, without exposing
// Surface's private resolver outside its package.
func resolveDeviceSpec(svc liveService, spec string) (int, error) {
	if device.ParseBDF(spec) {
		d, err := svc.Registry.ByBDF(spec)
		if err != nil {
			return 0, err
		}
		return d.ID, nil
	}
	id, err := strconv.Atoi(spec)
	if err != nil {
		return 0, err
	}
	d, err := svc.Registry.ByID(id)
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

// gaugeComponentMetric maps the three gauge-backed health components to
// the metric type their current reading comes from.
var gaugeComponentMetric = map[health.Component]metrictype.Type{
	health.CoreTemperature:   metrictype.TemperatureGPU,
	health.MemoryTemperature: metrictype.TemperatureMemory,
	health.Power:             metrictype.Power,
}

func newHealthCmd() *cobra.Command {
	var device *string
	var component *int
	var threshold, shutdown, throttle *int64

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Evaluate one component's status for one device or all devices",
		Long: `--threshold, mirroring comlet_health.cpp, sets a custom warning
threshold for --component before evaluating; -1 (the default) leaves
whatever custom threshold was previously configured untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLiveService(cmd.Context(), func(svc liveService) error {
				comp := health.Component(*component)
				ids := svc.Registry.All()
				if *device != "" {
					id, err := resolveDeviceSpec(svc, *device)
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
						os.Exit(1)
					}
					ids = []int{id}
				}

				if *threshold != health.UnsetThreshold {
					for _, id := range ids {
						if err := svc.ApplyThreshold(id, comp, *threshold, *shutdown); err != nil {
							fmt.Fprintf(os.Stderr, "device %d: %v\n", id, err)
						}
					}
				}

				for _, id := range ids {
					printHealthResult(svc, id, comp, *shutdown, *throttle)
				}
				return nil
			})
		},
	}

	device = deviceFlag(cmd)
	component = cmd.Flags().Int("component", int(health.CoreTemperature), "1=core temp 2=mem temp 3=power 4=memory 5=fabric port")
	threshold = cmd.Flags().Int64("threshold", health.UnsetThreshold, "custom warning threshold to configure before evaluating, -1 to leave unset")
	shutdown = cmd.Flags().Int64("shutdown", 0, "shutdown ceiling to validate --threshold against and evaluate gauge components with")
	throttle = cmd.Flags().Int64("throttle", 0, "static throttle ceiling to evaluate gauge components against")
	return cmd
}

func printHealthResult(svc liveService, deviceID int, comp health.Component, shutdown, throttle int64) {
	var result health.Result
	switch comp {
	case health.CoreTemperature, health.MemoryTemperature, health.Power:
		t := gaugeComponentMetric[comp]
		datum, err := svc.Query.LatestFor(t, deviceID)
		var current int64
		if err == nil && datum != nil {
			current = datum.Current
		}
		result = svc.Health.EvaluateGauge(deviceID, comp, current, throttle, shutdown)
	case health.Memory:
		datum, err := svc.Query.LatestFor(metrictype.RASErrors, deviceID)
		var uncorrectable int64
		if err == nil && datum != nil {
			uncorrectable = datum.Accumulated
		}
		result = svc.Health.EvaluateMemory(deviceID, 0, uncorrectable)
	case health.FabricPort:
		// No live link-state reading is wired into sysman.Capability yet;
		// report Unknown rather than guessing.
		result = svc.Health.EvaluateFabricPort(deviceID, false, false)
	default:
		fmt.Printf("device %d: unknown component %d\n", deviceID, comp)
		return
	}
	fmt.Printf("device %d component %d: %s — %s\n", deviceID, comp, result.Status, result.Description)
}
