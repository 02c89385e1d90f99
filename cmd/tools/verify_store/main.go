package main

import (
	"context"
	"fmt"
	"log"

	"github.com/david/ywc-dashboard/internal/config"
	"github.com/david/ywc-dashboard/internal/db"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}

	ctx := context.Background()
	backend, err := db.OpenBackend(ctx, cfg.Store.Backend, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, nil)
	if err != nil {
		log.Fatalf("Unable to open store: %v", err)
	}
	defer backend.Close()

	for _, key := range db.AllKeys {
		raw, ok, err := backend.KV.Get(ctx, key)
		if err != nil {
			log.Fatalf("Read %s failed: %v", key, err)
		}
		if !ok {
			fmt.Printf("%-16s missing\n", key)
			continue
		}
		fmt.Printf("%-16s %d bytes\n", key, len(raw))
	}

	store := db.NewStore(backend.KV, nil)
	indicators := store.LoadIndicators(ctx)
	quarters := store.Quarters(ctx)

	fmt.Printf("Backend: %s\n", backend.Name)
	fmt.Printf("Working set: %d indicators\n", len(indicators))
	fmt.Printf("Quarters: %d\n", len(quarters))
	fmt.Printf("Settings: %+v\n", store.LoadSettings(ctx))
}
