package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/trigger"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run both notification cycles on their schedules",
	Long: `Run the frequent cycle every trigger.frequent_interval and the weekly
cycle on trigger.weekly_schedule until interrupted.

When metrics.addr is set, Prometheus metrics are served on /metrics.

Examples:
  # Run with the default config file
  notifyd run

  # Run with a custom config and debug logging
  TASKBOARD_LOG_LEVEL=debug notifyd run --config ./taskboard.yaml`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	loc, err := rt.cfg.Location()
	if err != nil {
		return err
	}
	tr, err := trigger.New(rt.engine, rt.cfg.Trigger, loc, rt.logger.Named("trigger"))
	if err != nil {
		return err
	}

	var srv *http.Server
	if rt.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
		srv = &http.Server{
			Addr:              rt.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rt.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		rt.logger.Info("serving metrics", zap.String("addr", rt.cfg.Metrics.Addr))
	}

	tr.Start(ctx)
	rt.logger.Info("notifyd started",
		zap.Duration("frequent_interval", rt.cfg.Trigger.FrequentInterval),
		zap.String("weekly_schedule", rt.cfg.Trigger.WeeklySchedule),
		zap.Time("next_weekly", tr.NextWeekly(time.Now())))

	<-ctx.Done()
	rt.logger.Info("shutting down")
	tr.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn("stopping metrics server", zap.Error(err))
		}
	}
	return nil
}
