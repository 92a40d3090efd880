package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TApplencourt/xpumanager/internal/handler"
	"github.com/TApplencourt/xpumanager/internal/metrictype"
)

func newStatsCmd() *cobra.Command {
	var device *string
	var sessionID *string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the full metric snapshot for one device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLiveService(cmd.Context(), func(svc liveService) error {
				id, err := resolveDeviceSpec(svc, *device)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}

				session := *sessionID
				if session == "" {
					session = uuid.New().String()
				}
				// Only stats-variant handlers maintain sessions; ensure one
				// exists and let it see a tick so LatestStatsFor reports
				// this session's own running min/max/avg rather than the
				// default's.
				for _, t := range metrictype.All() {
					if h, ok := svc.Handlers[t]; ok {
						if s, ok := h.(*handler.Stats); ok {
							s.EnsureSession(id, session)
						}
					}
				}
				time.Sleep(cliSampleInterval * 2)

				fmt.Printf("device %d session %s\n", id, session)
				for _, t := range metrictype.All() {
					d, err := svc.Query.LatestStatsFor(t, id, session)
					if err != nil || d == nil {
						continue
					}
					fmt.Printf("  %-24s current=%d min=%d max=%d avg=%.2f scale=%d\n",
						t, d.Current, d.Min, d.Max, d.Avg, d.Scale)
				}
				return nil
			})
		},
	}

	device = deviceFlag(cmd)
	sessionID = cmd.Flags().String("session", "", "session ID to read rolling statistics from; a fresh one is generated when omitted")
	return cmd
}
