// Package main implements notifyd, the task board's notification daemon.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/metrics"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/store"
)

var (
	// configPath is the YAML config file to load.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "notifyd",
	Short: "Generate task board notifications",
	Long: `notifyd scans every user's tasks and writes reminders, overdue alerts,
overtime warnings and weekly insights into the notification store.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
}

// runtime bundles everything a command needs to run the engine.
type runtime struct {
	cfg      *model.AppConfig
	logger   *zap.Logger
	store    *store.SQLiteStore
	registry *prometheus.Registry
	engine   *notify.Engine
}

// openRuntime loads the config and wires the logger, store, metrics and
// engine from it.
func openRuntime() (*runtime, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Database.Path, err)
	}

	engineCfg, err := notify.ConfigFrom(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	e := notify.New(s, clock.Real{}, engineCfg,
		notify.WithLogger(logger.Named("notify")),
		notify.WithMetrics(metrics.New(reg)),
	)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		registry: reg,
		engine:   e,
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing store", zap.Error(err))
	}
	_ = r.logger.Sync()
}
