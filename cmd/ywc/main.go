package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/david/ywc-dashboard/internal/config"
	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ywc",
	Short: "Operator tools for the YWC indicator dashboard",
	Long: `ywc works directly against the dashboard store: it renders reports,
prints the quarterly trend, diffs snapshots and manages settings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Log.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config YAML (embedded defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(reportCmd, trendCmd, quartersCmd, diffCmd, settingsCmd, clearCmd)
}

// openStore opens the configured backend. The returned func releases it.
func openStore(cmd *cobra.Command) (*db.Store, func(), error) {
	backend, err := db.OpenBackend(cmd.Context(), cfg.Store.Backend, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("store opened", zap.String("backend", backend.Name))
	return db.NewStore(backend.KV, logger.Named("store")), backend.Close, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
