package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print the quarterly trend, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Quarter", "Total", "Tier 1", "Tier 2", "Tier 3", "Universal", "Strategic", "Collective"})
		for _, p := range analytics.BuildTrend(store.Quarters(cmd.Context())) {
			t.AppendRow(table.Row{p.Quarter, p.TotalIndicators, p.Tier1Count, p.Tier2Count, p.Tier3Count,
				p.UniversalCount, p.StrategicCount, p.CollectiveCount})
		}
		t.Render()
		return nil
	},
}

var quartersCmd = &cobra.Command{
	Use:   "quarters",
	Short: "List stored quarter snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Key", "Indicators", "Saved"})
		for _, snap := range store.Quarters(cmd.Context()) {
			saved := snap.Timestamp
			if ts, err := time.Parse(time.RFC3339Nano, snap.Timestamp); err == nil {
				saved = humanize.Time(ts)
			}
			t.AppendRow(table.Row{snap.Key, snap.IndicatorCount, saved})
		}
		t.Render()
		return nil
	},
}

var quartersDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete one snapshot, e.g. 2025-Q1",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		if !store.DeleteQuarter(cmd.Context(), args[0]) {
			return fmt.Errorf("failed to delete %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <from> <to>",
	Short: "Unified diff between two quarter snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		from, ok := store.Quarter(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("quarter %s not found", args[0])
		}
		to, ok := store.Quarter(cmd.Context(), args[1])
		if !ok {
			return fmt.Errorf("quarter %s not found", args[1])
		}
		diff, err := report.DiffQuarters(*from, *to)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "no differences")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
		return nil
	},
}

func init() {
	quartersCmd.AddCommand(quartersDeleteCmd)
}
