package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/david/ywc-dashboard/internal/config"
	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/ingest"
	"github.com/david/ywc-dashboard/internal/models"
)

type slotResult struct {
	Slot       string `json:"slot"`
	Indicators int    `json:"indicators"`
	Changed    int    `json:"changed"`
	Saved      bool   `json:"saved"`
}

type output struct {
	Slots  []slotResult `json:"slots"`
	DryRun bool         `json:"dry_run"`
}

// Re-derives tier and pillar numbers for the working set and every stored
// quarter. Running it twice changes nothing the second time.
func main() {
	configPath := flag.String("config", "", "path to a config YAML")
	dryRun := flag.Bool("dry-run", false, "report changes without saving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	backend, err := db.OpenBackend(ctx, cfg.Store.Backend, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, nil)
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer backend.Close()

	store := db.NewStore(backend.KV, nil)
	result := output{Slots: []slotResult{}, DryRun: *dryRun}

	if working := store.LoadIndicators(ctx); working != nil {
		changed := recompute(working)
		saved := !*dryRun && changed > 0 && store.SaveIndicators(ctx, working)
		result.Slots = append(result.Slots, slotResult{Slot: db.IndicatorsKey, Indicators: len(working), Changed: changed, Saved: saved})
	}

	for _, snap := range store.Quarters(ctx) {
		changed := recompute(snap.Data)
		saved := false
		if !*dryRun && changed > 0 {
			// SaveQuarter restamps the snapshot, which is the record of the rewrite.
			saved = store.SaveQuarter(ctx, snap.Quarter, snap.Year, snap.Data)
		}
		result.Slots = append(result.Slots, slotResult{Slot: snap.Key, Indicators: len(snap.Data), Changed: changed, Saved: saved})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// recompute updates indicators in place and returns how many changed.
func recompute(indicators []models.Indicator) int {
	before := make([][2]int, len(indicators))
	for i, ind := range indicators {
		before[i] = [2]int{ind.TierNumber, ind.PillarNumber}
	}
	ingest.Recompute(indicators)
	changed := 0
	for i, ind := range indicators {
		if before[i] != [2]int{ind.TierNumber, ind.PillarNumber} {
			changed++
		}
	}
	return changed
}
