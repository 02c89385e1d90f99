package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/david/ywc-dashboard/internal/api"
	"github.com/david/ywc-dashboard/internal/config"
	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a config YAML (embedded defaults when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := db.OpenBackend(ctx, cfg.Store.Backend, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer backend.Close()

	store := db.NewStore(backend.KV, logger.Named("store"))
	srv := api.NewServer(store, api.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		Organization:   cfg.Report.Organization,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", zap.String("addr", cfg.Addr()), zap.String("store", backend.Name))
		if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		os.Exit(1)
	}
}
