package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"crew_migrator/internal/config"
	"crew_migrator/internal/progress"
	"crew_migrator/internal/runner"
	"crew_migrator/internal/service"
	"crew_migrator/internal/source/legacy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)

	ledger, err := progress.Open(cfg.Paths.DownloadProgressFile())
	if err != nil {
		logger.Error("failed to open progress file", "error", err)
		os.Exit(1)
	}

	downloader := legacy.NewDownloader(legacy.DownloaderConfig{
		Timeout:        cfg.Download.Timeout,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
	}, logger)

	svc := service.NewDownloadService(
		legacy.New(cfg.Paths.ScrapedJSON, logger),
		downloader,
		ledger,
		progress.NewReporter(cfg.Paths.ReportDir),
		cfg.Paths,
		cfg.Migration.DelayBetweenRecords,
		logger,
	)

	r := runner.New(logger, cfg.Migration.Timeout)
	err = r.Run(context.Background(), "download", func(ctx context.Context) error {
		stats, err := svc.Download(ctx)
		if err != nil {
			return err
		}
		logger.Info("download stats",
			"records", stats.Records,
			"downloaded", stats.Downloaded,
			"skipped", stats.Skipped,
			"errors", stats.Errors,
			"duration", stats.Duration,
		)
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
