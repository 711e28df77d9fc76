package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"crew_migrator/internal/assets"
	"crew_migrator/internal/config"
	"crew_migrator/internal/domain"
	"crew_migrator/internal/progress"
	"crew_migrator/internal/publisher"
	"crew_migrator/internal/runner"
	"crew_migrator/internal/service"
	"crew_migrator/internal/source/legacy"
	"crew_migrator/internal/storage/blob"
	"crew_migrator/internal/storage/mssql"
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
	ctx := context.Background()

	db, err := sqlx.ConnectContext(ctx, "sqlserver", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ledger, err := progress.Open(cfg.Paths.ProgressFile())
	if err != nil {
		logger.Error("failed to open progress file", "error", err)
		os.Exit(1)
	}

	uploader := blob.NewUploader(blob.Config{
		BaseURL:        cfg.Blob.BaseURL,
		SASToken:       cfg.Blob.SASToken,
		Timeout:        cfg.Blob.Timeout,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
	}, logger)

	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rmq, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rmq.Close()
		pub = rmq
	}

	svc := service.NewMigrationService(
		legacy.New(cfg.Paths.ScrapedJSON, logger),
		mssql.NewFreelancerStore(db),
		mssql.NewLinkStore(db),
		assets.NewLocator(logger),
		assets.NewCopier(logger),
		uploader,
		ledger,
		progress.NewReporter(cfg.Paths.ReportDir),
		pub,
		mssql.NewTransactionManager(db),
		cfg.Paths,
		cfg.Migration,
		logger,
	)

	r := runner.New(logger, cfg.Migration.Timeout)
	err = r.Run(ctx, "migrate", func(ctx context.Context) error {
		stats, err := svc.Migrate(ctx)
		if err != nil {
			return err
		}
		logStats(logger, stats)
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func logStats(logger *slog.Logger, stats *domain.MigrationStats) {
	logger.Info("migration stats",
		"matched", stats.Matched,
		"unmatched", stats.Unmatched,
		"located", stats.Located,
		"files_missing", stats.FilesMissing,
		"copied", stats.Copied,
		"already_existed", stats.AlreadyExisted,
		"uploaded", stats.Uploaded,
		"profiles_updated", stats.ProfilesUpdated,
		"links_updated", stats.LinksUpdated,
		"missing_links", stats.MissingLinks,
		"skipped", stats.Skipped,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
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
