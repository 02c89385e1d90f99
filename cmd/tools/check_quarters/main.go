package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/config"
	"github.com/david/ywc-dashboard/internal/db"
)

func main() {
	configPath := flag.String("config", "", "path to a config YAML")
	limit := flag.Int("limit", 12, "max quarters to show")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	backend, err := db.OpenBackend(ctx, cfg.Store.Backend, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer backend.Close()

	history := db.NewStore(backend.KV, nil).Quarters(ctx)
	if len(history) > *limit {
		history = history[:*limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Quarter", "Indicators", "Tier 1", "Tier 2", "Tier 3", "Saved"})

	for _, snap := range history {
		saved := "unknown"
		if ts, err := time.Parse(time.RFC3339Nano, snap.Timestamp); err == nil {
			saved = humanize.Time(ts)
		}
		tiers := analytics.TierMetrics(snap.Data)
		t.AppendRow(table.Row{snap.Key, humanize.Comma(int64(snap.IndicatorCount)), tiers[0].Total, tiers[1].Total, tiers[2].Total, saved})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Quarters", len(history)})
	t.Render()
}
