package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TApplencourt/xpumanager/internal/config"
	"github.com/TApplencourt/xpumanager/internal/exitcode"
)

// printResult renders a config.Result the way every config subcommand
// does, then returns the process exit code its Status maps to.
func printResult(res config.Result) int {
	switch res.Status {
	case config.StatusOK:
		fmt.Println(res.Return)
		for k, v := range res.Details {
			fmt.Printf("  %s: %v\n", k, v)
		}
		return exitcode.Success
	case config.StatusCancel:
		fmt.Println(res.Return)
		return exitcode.Success
	default:
		fmt.Fprintln(os.Stderr, res.Error)
		return exitcode.GenericError
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Query or change one device's runtime configuration",
	}
	cmd.AddCommand(
		newConfigQueryCmd(),
		newConfigPowerLimitCmd(),
		newConfigFrequencyRangeCmd(),
		newConfigStandbyCmd(),
		newConfigSchedulerCmd(),
		newConfigPerformanceFactorCmd(),
		newConfigFabricPortCmd(),
		newConfigFabricBeaconingCmd(),
		newConfigMemoryEccCmd(),
		newConfigResetCmd(),
	)
	return cmd
}

func deviceFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("device", "", "device ID or BDF string (required)")
}

func tileFlag(cmd *cobra.Command) *int {
	return cmd.Flags().Int("tile", -1, "tile ID, -1 for every tile")
}

func newConfigQueryCmd() *cobra.Command {
	var device *string
	var tile *int
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Report a device's current configuration and latest snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.Query(cmd.Context(), config.QueryRequest{Device: *device, TileID: *tile})
			})
		},
	}
	device = deviceFlag(cmd)
	tile = tileFlag(cmd)
	return cmd
}

func newConfigPowerLimitCmd() *cobra.Command {
	var dev *string
	var watts, interval *int
	cmd := &cobra.Command{
		Use:   "set-power-limit",
		Short: "Apply a device-level power limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetPowerLimit(cmd.Context(), config.SetPowerLimitRequest{
					Device: *dev, Watts: *watts, Interval: *interval,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	watts = cmd.Flags().Int("watts", 0, "power limit in watts (required)")
	interval = cmd.Flags().Int("interval", 0, "averaging interval in ms (carried through, not dispatched)")
	return cmd
}

func newConfigFrequencyRangeCmd() *cobra.Command {
	var dev *string
	var tile, min, max *int
	cmd := &cobra.Command{
		Use:   "set-frequency-range",
		Short: "Apply a tile-level core frequency range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetFrequencyRange(cmd.Context(), config.SetFrequencyRangeRequest{
					Device: *dev, TileID: *tile, Min: *min, Max: *max,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	tile = tileFlag(cmd)
	min = cmd.Flags().Int("min", 0, "minimum frequency in MHz")
	max = cmd.Flags().Int("max", 0, "maximum frequency in MHz")
	return cmd
}

func newConfigStandbyCmd() *cobra.Command {
	var dev *string
	var tile *int
	var mode *string
	cmd := &cobra.Command{
		Use:   "set-standby",
		Short: "Apply a tile-level standby mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetStandby(cmd.Context(), config.SetStandbyRequest{
					Device: *dev, TileID: *tile, Mode: *mode,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	tile = tileFlag(cmd)
	mode = cmd.Flags().String("mode", "default", "standby mode name")
	return cmd
}

func newConfigSchedulerCmd() *cobra.Command {
	var dev *string
	var tile *int
	var spec *string
	cmd := &cobra.Command{
		Use:   "set-scheduler",
		Short: "Apply a tile-level scheduler mode from its comma-delimited spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetScheduler(cmd.Context(), config.SetSchedulerRequest{
					Device: *dev, TileID: *tile, Spec: *spec,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	tile = tileFlag(cmd)
	spec = cmd.Flags().String("spec", "", "e.g. timeslice,20000,5000 (required)")
	return cmd
}

func newConfigPerformanceFactorCmd() *cobra.Command {
	var dev *string
	var tile *int
	var engine *string
	var value *float64
	cmd := &cobra.Command{
		Use:   "set-performance-factor",
		Short: "Apply a tile-level engine performance factor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetPerformanceFactor(cmd.Context(), config.SetPerformanceFactorRequest{
					Device: *dev, TileID: *tile, Engine: *engine, Value: *value,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	tile = tileFlag(cmd)
	engine = cmd.Flags().String("engine", "compute", "engine kind")
	value = cmd.Flags().Float64("value", 100, "performance factor [0..100]")
	return cmd
}

func newConfigFabricPortCmd() *cobra.Command {
	var dev *string
	var tile, port, enabled *int
	cmd := &cobra.Command{
		Use:   "set-fabric-port",
		Short: "Enable or disable one fabric port",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetFabricPort(cmd.Context(), config.SetFabricPortRequest{
					Device: *dev, TileID: *tile, Port: *port, Enabled: *enabled,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	tile = tileFlag(cmd)
	port = cmd.Flags().Int("port", 0, "fabric port index")
	enabled = cmd.Flags().Int("enabled", 1, "1 to enable, 0 to disable")
	return cmd
}

func newConfigFabricBeaconingCmd() *cobra.Command {
	var dev *string
	var tile, port, beaconing *int
	cmd := &cobra.Command{
		Use:   "set-fabric-beaconing",
		Short: "Toggle beaconing on one fabric port",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetFabricBeaconing(cmd.Context(), config.SetFabricBeaconingRequest{
					Device: *dev, TileID: *tile, Port: *port, Beaconing: *beaconing,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	tile = tileFlag(cmd)
	port = cmd.Flags().Int("port", 0, "fabric port index")
	beaconing = cmd.Flags().Int("beaconing", 1, "1 to turn on, 0 to turn off")
	return cmd
}

func newConfigMemoryEccCmd() *cobra.Command {
	var dev *string
	var enable *int
	cmd := &cobra.Command{
		Use:   "set-memory-ecc",
		Short: "Enable or disable memory ECC (pending until reset)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				return svc.Config.SetMemoryEcc(cmd.Context(), config.SetMemoryEccRequest{
					Device: *dev, Enable: *enable,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	enable = cmd.Flags().Int("enable", 1, "1 to enable, 0 to disable")
	return cmd
}

func newConfigResetCmd() *cobra.Command {
	var dev *string
	var confirm *bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a device, after confirming against its active process list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigOp(cmd, func(svc liveService) config.Result {
				if *confirm {
					if procs, err := svc.Config.ActiveProcesses(cmd.Context(), *dev); err == nil && len(procs) > 0 {
						fmt.Printf("%d active process(es) using this device\n", len(procs))
					}
				}
				return svc.Config.ResetDevice(cmd.Context(), config.ResetDeviceRequest{
					Device: *dev, Confirmed: *confirm,
				})
			})
		},
	}
	dev = deviceFlag(cmd)
	confirm = cmd.Flags().Bool("yes", false, "confirm the reset")
	return cmd
}

// runConfigOp starts a live Service, runs op against it, prints the
// result, and exits with the exit code its Status maps to.
func runConfigOp(cmd *cobra.Command, op func(svc liveService) config.Result) error {
	code := 0
	err := withLiveService(cmd.Context(), func(svc liveService) error {
		code = printResult(op(svc))
		return nil
	})
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}
