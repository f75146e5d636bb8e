package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/careercrawl/internal/metrics"
	"github.com/amishk599/careercrawl/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run crawls on the configured schedule",
	Long:  "Start the cron scheduler and, when enabled, the Prometheus metrics endpoint; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"companies", len(cfg.Companies),
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Driver,
		"ai", cfg.AI.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	a, err := buildApp(ctx, cfg, logger, appOptions{metrics: m})
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		return err
	}
	defer a.Close()

	run := func(ctx context.Context) {
		targets, err := a.targets(ctx)
		if err != nil {
			logger.Error("failed to load targets", "error", err)
			return
		}
		if len(targets) == 0 {
			logger.Warn("no companies to crawl")
			return
		}
		a.crawler.Run(ctx, targets, a.runOptions())
	}

	g, gctx := errgroup.WithContext(ctx)
	if m != nil {
		g.Go(func() error { return m.Serve(gctx, cfg.Metrics.Addr, logger) })
	}
	g.Go(func() error { return scheduler.New(cfg.Schedule, run, logger).Run(gctx) })
	if err := g.Wait(); err != nil {
		logger.Error("serve failed", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
