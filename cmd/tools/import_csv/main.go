package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/david/ywc-dashboard/internal/config"
	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/ingest"
)

func main() {
	file := flag.String("file", "", "CSV file to import")
	remote := flag.String("url", "", "import a CSV published at this URL instead of -file")
	configPath := flag.String("config", "", "path to a config YAML")
	dryRun := flag.Bool("dry-run", false, "validate only; do not write to the store")
	flag.Parse()

	if *file == "" && *remote == "" {
		log.Fatal("Please provide a CSV file using -file or -url flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	backend, err := db.OpenBackend(ctx, cfg.Store.Backend, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	pipeline := ingest.NewPipeline(db.NewStore(backend.KV, nil), nil)
	run := pipeline.Import
	if *dryRun {
		run = pipeline.Parse
	}

	var result *ingest.ImportResult
	if *remote != "" {
		log.Printf("Importing %s into %s store", *remote, backend.Name)
		body, name, ferr := ingest.NewFetcher().FetchCSV(ctx, *remote)
		if ferr != nil {
			log.Fatalf("Fetch failed: %v", ferr)
		}
		result, err = run(ctx, bytes.NewReader(body), name)
	} else {
		f, ferr := os.Open(*file)
		if ferr != nil {
			log.Fatalf("Failed to open %s: %v", *file, ferr)
		}
		defer f.Close()
		log.Printf("Importing %s into %s store", *file, backend.Name)
		result, err = run(ctx, f, *file)
	}
	var importErr *ingest.ImportError
	if errors.As(err, &importErr) {
		for _, msg := range importErr.Errors {
			log.Printf("  %s", msg)
		}
		log.Fatal("Import rejected")
	}
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	if *dryRun {
		log.Printf("Dry run OK. %s: %d indicators", result.Meta.FileName, result.Meta.RowCount)
		return
	}
	log.Printf("Import finished for %s. Rows: %d, Quarter: %s, Persisted: %t",
		result.Meta.FileName, result.Meta.RowCount, result.Quarter, result.Persisted)
	if !result.Persisted {
		os.Exit(1)
	}
}
