package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TApplencourt/xpumanager/internal/metrictype"
	"github.com/TApplencourt/xpumanager/internal/sample"
)

func newDumpCmd() *cobra.Command {
	var metric *string
	var asCSV *bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every device's latest value for one metric type",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := metrictype.ByName(*metric)
			if !ok {
				return fmt.Errorf("unknown metric %q", *metric)
			}
			return withLiveService(cmd.Context(), func(svc liveService) error {
				bulk := svc.Query.BulkLatest(t)
				ids := svc.Registry.All()
				if *asCSV {
					return dumpCSV(ids, bulk)
				}
				return dumpTable(ids, bulk)
			})
		},
	}

	metric = cmd.Flags().String("metric", "", "metric type name, e.g. power, temperature_gpu (required)")
	asCSV = cmd.Flags().Bool("csv", false, "write rows as CSV instead of a table")
	return cmd
}

func dumpTable(ids []int, bulk map[int]*sample.Datum) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tCURRENT\tMIN\tMAX\tAVG\tSCALE")
	for _, id := range ids {
		d, ok := bulk[id]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.2f\t%d\n", id, d.Current, d.Min, d.Max, d.Avg, d.Scale)
	}
	return tw.Flush()
}

func dumpCSV(ids []int, bulk map[int]*sample.Datum) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"device", "current", "min", "max", "avg", "scale"}); err != nil {
		return err
	}
	for _, id := range ids {
		d, ok := bulk[id]
		if !ok {
			continue
		}
		row := []string{
			strconv.Itoa(id),
			strconv.FormatInt(d.Current, 10),
			strconv.FormatInt(d.Min, 10),
			strconv.FormatInt(d.Max, 10),
			strconv.FormatFloat(d.Avg, 'f', 2, 64),
			strconv.FormatInt(d.Scale, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
