package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/unisportai/unisport-sync/external/unisport"
	"github.com/unisportai/unisport-sync/internal/config"
	"github.com/unisportai/unisport-sync/internal/infrastructure/repository/postgres"
	"github.com/unisportai/unisport-sync/internal/platform/logging"
	"github.com/unisportai/unisport-sync/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DBURL)
	if err != nil {
		logger.Error("connect database failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	client, err := unisport.NewClient(unisport.ClientConfig{
		BaseURL:        cfg.UnisportBaseURL,
		LocationsURL:   cfg.UnisportLocationsURL,
		OffersURL:      cfg.UnisportOffersURL,
		UserAgent:      cfg.UnisportUserAgent,
		Timeout:        cfg.UnisportTimeout,
		MaxRetries:     cfg.UnisportMaxRetries,
		RequestDelay:   cfg.RequestDelay,
		Logger:         logger,
		CircuitEnabled: cfg.CircuitEnabled,
		CircuitCount:   cfg.CircuitFailureCount,
		CircuitTimeout: cfg.CircuitOpenTimeout,
	})
	if err != nil {
		logger.Error("build unisport client failed", "error", err)
		os.Exit(1)
	}

	ingestion := usecase.NewIngestionService(
		postgres.NewLocationRepository(db),
		postgres.NewOfferRepository(db),
		postgres.NewCourseRepository(db),
		postgres.NewSessionRepository(db),
		postgres.NewTrainerRepository(db),
		postgres.NewRunLogRepository(db),
		logger,
	)
	matcher := usecase.NewNameMatcher(cfg.FuzzyMatchThreshold, logger)
	merger := usecase.NewLocationMerger(matcher, logger)
	sync := usecase.NewCatalogSyncService(client, merger, ingestion, logger)

	logger.InfoContext(ctx, "catalog sync starting",
		"base_url", cfg.UnisportBaseURL,
		"fuzzy_threshold", cfg.FuzzyMatchThreshold,
	)

	report, err := sync.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "catalog sync failed",
			"error", err,
			"fetch_failures", report.FetchFailures,
		)
		os.Exit(1)
	}
}
