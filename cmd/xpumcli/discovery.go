package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/spf13/cobra"

	"github.com/TApplencourt/xpumanager/internal/service"
)

func newDiscoveryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discovery",
		Short: "List registered devices, preceded by a host summary banner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscovery(cmd.Context())
		},
	}
}

func printHostBanner() {
	info, err := host.Info()
	hostname, platform, kernel := "unknown", "unknown", "unknown"
	if err == nil {
		hostname, platform, kernel = info.Hostname, info.Platform+" "+info.PlatformVersion, info.KernelVersion
	}
	cores, cerr := cpu.Counts(true)
	vm, merr := mem.VirtualMemory()

	fmt.Printf("host: %s  platform: %s  kernel: %s\n", hostname, platform, kernel)
	if cerr == nil {
		fmt.Printf("cpus: %d logical\n", cores)
	}
	if merr == nil {
		fmt.Printf("memory: %.1f GiB total, %.0f%% used\n", float64(vm.Total)/(1<<30), vm.UsedPercent)
	}
	fmt.Println()
}

func runDiscovery(ctx context.Context) error {
	printHostBanner()

	return withLiveService(ctx, func(svc *service.Service) error {
		ids := svc.Registry.All()
		if len(ids) == 0 {
			fmt.Println("no devices registered")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tBDF\tNAME\tTILES\tFIRMWARE\tATS-STYLE")
		for _, id := range ids {
			d, err := svc.Registry.ByID(id)
			if err != nil {
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%t\n",
				d.ID, d.BDF, d.Properties.Name, d.Properties.NumTiles,
				d.Properties.FirmwareVersion, svc.Registry.IsATSStyle(d))
		}
		return tw.Flush()
	})
}
