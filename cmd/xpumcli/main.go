// Command xpumcli is the offline device-discovery, configuration, and
// telemetry inspection CLI. It never talks to a running daemon over RPC
// — that surface is out of scope here — so every invocation builds its
// own in-process service.Service bound to whatever sysman.Capability is
// available and tears it down again on exit.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/service"
	"github.com/TApplencourt/xpumanager/internal/sink"
	"github.com/TApplencourt/xpumanager/internal/sysman"
)

// discardWriter is the persistence sink backend the CLI runs against; it
// never needs to query its own sink writes back, only the live handlers.
type discardWriter struct{}

func (discardWriter) Write(ctx context.Context, e sink.Entry) error { return nil }

// cliSampleInterval is short enough that a command which starts the
// service, waits briefly, then queries sees at least one completed tick.
const cliSampleInterval = 150 * time.Millisecond

// buildService constructs a standalone Service against the deterministic
// in-memory fake. The real NVML/Level-Zero binding is out of scope, so
// every xpumcli invocation necessarily runs against whatever the fake
// capability reports until one is wired in.
func buildService(ctx context.Context) (*service.Service, error) {
	intervals := map[metrictype.Type]time.Duration{}
	for _, t := range metrictype.All() {
		intervals[t] = cliSampleInterval
	}
	return service.New(ctx, service.Options{
		Cap:          sysman.NewFake(),
		Logger:       logs.Default(),
		SinkWriter:   discardWriter{},
		SinkCapacity: 256,
		Intervals:    intervals,
	})
}

// liveService is the concrete Service type every subcommand operates
// against; aliased here so subcommand files don't each import service.
type liveService = *service.Service

// withLiveService starts svc's sampling loops, gives them time for one
// tick, runs fn, then stops the service — the shape every data-reading
// subcommand shares.
func withLiveService(ctx context.Context, fn func(liveService) error) error {
	svc, err := buildService(ctx)
	if err != nil {
		return err
	}
	svc.Start(ctx)
	time.Sleep(cliSampleInterval * 2)
	defer svc.Stop()
	return fn(svc)
}

func main() {
	root := &cobra.Command{
		Use:   "xpumcli",
		Short: "Discover, configure, and inspect GPUs without a running daemon",
		Long: `xpumcli builds its own telemetry and configuration pipeline for the
duration of one invocation — there is no daemon process it attaches to.`,
	}

	root.AddCommand(newDiscoveryCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newHealthCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newDumpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
