package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/influencer-analytics/internal/app"
	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/pkg/distlock"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
	"github.com/ignite/influencer-analytics/internal/report"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "generate one report and exit")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	app.ConfigureLogging(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Redis == nil && a.DB == nil {
		logger.Warn("no redis or database configured, report runs are not coordinated across workers")
	}
	lock := distlock.NewLock(a.Redis, a.DB, "report", cfg.Report.LockTTL())
	job := report.NewJob(a.Service, a.Documents, lock, report.Options{
		Prefix:   cfg.Report.KeyPrefix,
		Interval: cfg.Report.Interval(),
	})

	if *once {
		if _, err := job.RunOnce(ctx); err != nil {
			logger.Error("report run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	a.Start(ctx)
	if err := job.Start(ctx); err != nil {
		logger.Error("failed to start report job", "error", err)
		os.Exit(1)
	}
	logger.Info("worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	job.Stop()
	cancel()
	logger.Info("worker stopped")
}
