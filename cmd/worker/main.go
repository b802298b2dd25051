package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docdigest/internal/cli"
	"docdigest/internal/config"
	"docdigest/internal/infra/backend"
	"docdigest/internal/infra/db"
	"docdigest/internal/infra/ledger"
	"docdigest/internal/infra/source"
	workerPkg "docdigest/internal/infra/worker"
	"docdigest/internal/observability/logging"
	"docdigest/internal/usecase/digest"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := cli.LoadEnv(os.Getenv("ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cli.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.String("inbox_dir", workerConfig.InboxDir),
		slog.String("output_dir", workerConfig.OutputDir),
		slog.Int("health_port", workerConfig.HealthPort))

	digestConfig, err := config.LoadDigestConfig()
	if err != nil {
		return err
	}
	logging.LogFallbacks(logger, digestConfig.Warnings)
	svc, _, err := backend.NewService(logger, digestConfig)
	if err != nil {
		return err
	}
	svc.Progress = digest.LogProgress{}

	if err := os.MkdirAll(workerConfig.InboxDir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	inbox, err := source.NewDir(workerConfig.InboxDir, source.DefaultRules(), nil)
	if err != nil {
		return err
	}

	l, err := ledger.Open(workerConfig.LedgerPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Error("failed to close ledger", slog.Any("error", err))
		}
	}()

	database, err := openDatabase(ctx, logger)
	if err != nil {
		return err
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
	}

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	metricsServer := workerPkg.NewMetricsServer(fmt.Sprintf(":%d", workerConfig.MetricsPort), logger)
	grpcHealth := workerPkg.NewGRPCHealthServer(fmt.Sprintf(":%d", workerConfig.GRPCHealthPort), logger)
	startServer(ctx, logger, "health", healthServer.Start)
	startServer(ctx, logger, "metrics", metricsServer.Start)
	startServer(ctx, logger, "grpc health", grpcHealth.Start)

	job := &workerPkg.Job{
		Service:   svc,
		Source:    inbox,
		Ledger:    l,
		OutputDir: workerConfig.OutputDir,
		DB:        database,
		Metrics:   workerMetrics,
	}
	scheduler, err := workerPkg.NewScheduler(workerConfig, job, logger, healthServer)
	if err != nil {
		return err
	}
	scheduler.Start()
	healthServer.SetReady(true)
	grpcHealth.SetServing(true)
	if n, err := l.Len(); err == nil {
		logger.Info("worker started", slog.Int("ledger_entries", n))
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)
	grpcHealth.SetServing(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(stopCtx)
	logger.Info("worker stopped")
	return nil
}

// openDatabase connects to DATABASE_URL and applies the schema. It returns a
// nil database when DATABASE_URL is not set.
func openDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Info("DATABASE_URL not set, postgres sink disabled")
		return nil, nil
	}

	connCfg, warnings := db.LoadConnectionConfig()
	logging.LogFallbacks(logger, warnings)
	database, err := db.Open(ctx, dsn, connCfg)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	logger.Info("postgres sink enabled")
	return database, nil
}

func startServer(ctx context.Context, logger *slog.Logger, name string, start func(context.Context) error) {
	go func() {
		if err := start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" server failed", slog.Any("error", err))
		}
	}()
}
