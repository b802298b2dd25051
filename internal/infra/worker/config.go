package worker

import (
	"fmt"
	"log/slog"
	"time"

	"docdigest/internal/pkg/config"
)

// WorkerConfig holds the configuration for the digest worker.
// It controls the cron schedule, where documents are picked up and written,
// and the ports of the health, metrics and gRPC health servers.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Example usage:
//
//	cfg, _ := LoadConfigFromEnv(logger, metrics)
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal("Invalid configuration: %v", err)
//	}
type WorkerConfig struct {
	// CronSchedule is the cron expression for job scheduling.
	// Format: "minute hour day month weekday"
	// Default: "0 * * * *" (hourly)
	CronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "Asia/Karachi"
	Timezone string

	// RunTimeout bounds a single digest run.
	// Range: 1m-4h
	// Default: 30 minutes
	RunTimeout time.Duration

	// InboxDir is scanned for documents on every run.
	InboxDir string

	// OutputDir receives one timestamped CSV file per run.
	OutputDir string

	// LedgerPath is the bbolt file remembering digested contents.
	LedgerPath string

	// HealthPort serves /health and /health/ready.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int

	// MetricsPort serves /metrics.
	// Default: 9090
	MetricsPort int

	// GRPCHealthPort serves grpc.health.v1.Health.
	// Default: 9092
	GRPCHealthPort int
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:   "0 * * * *",
		Timezone:       "Asia/Karachi",
		RunTimeout:     30 * time.Minute,
		InboxDir:       "inbox",
		OutputDir:      "output",
		LedgerPath:     "digest-ledger.db",
		HealthPort:     9091,
		MetricsPort:    9090,
		GRPCHealthPort: 9092,
	}
}

// Validate checks if the configuration values are valid.
// If multiple fields are invalid, all errors are collected and returned together.
//
// Validation rules:
//   - CronSchedule: Must be a valid cron expression (validated by robfig/cron parser)
//   - Timezone: Must be a valid IANA timezone name
//   - RunTimeout: Must be positive
//   - InboxDir, OutputDir, LedgerPath: Must not be empty
//   - Ports: Must be between 1024 and 65535 and distinct
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errors = append(errors, fmt.Errorf("run timeout: %w", err))
	}

	for _, p := range []struct{ name, value string }{
		{"inbox dir", c.InboxDir},
		{"output dir", c.OutputDir},
		{"ledger path", c.LedgerPath},
	} {
		if p.value == "" {
			errors = append(errors, fmt.Errorf("%s: must not be empty", p.name))
		}
	}

	ports := map[int]string{}
	for _, p := range []struct {
		name  string
		value int
	}{
		{"health port", c.HealthPort},
		{"metrics port", c.MetricsPort},
		{"grpc health port", c.GRPCHealthPort},
	} {
		if err := config.ValidateIntRange(p.value, 1024, 65535); err != nil {
			errors = append(errors, fmt.Errorf("%s: %w", p.name, err))
			continue
		}
		if other, ok := ports[p.value]; ok {
			errors = append(errors, fmt.Errorf("%s: %d already used by %s", p.name, p.value, other))
		}
		ports[p.value] = p.name
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy: an invalid value is
// replaced by its default, logged as a warning and counted in metrics. It
// never returns an error.
//
// Environment variables:
//   - CRON_SCHEDULE: Cron expression (default: "0 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Asia/Karachi")
//   - WORKER_TIMEOUT: Duration string 1m-4h (default: 30m)
//   - WORKER_INBOX_DIR, WORKER_OUTPUT_DIR, WORKER_LEDGER_PATH: paths
//   - HEALTH_PORT, METRICS_PORT, GRPC_HEALTH_PORT: Integer 1024-65535
//
// Warning log format:
//
//	logger.Warn("Configuration fallback applied",
//	    slog.String("field", "CronSchedule"),
//	    slog.String("warning", "Invalid CRON_SCHEDULE='bad cron': ..."))
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	note := func(field, metricField string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(metricField)
		metrics.RecordFallback(metricField, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	note("CronSchedule", "cron_schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	note("Timezone", "timezone", result)

	result = config.LoadEnvDuration("WORKER_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	note("RunTimeout", "run_timeout", result)

	cfg.InboxDir = config.LoadEnvString("WORKER_INBOX_DIR", cfg.InboxDir)
	cfg.OutputDir = config.LoadEnvString("WORKER_OUTPUT_DIR", cfg.OutputDir)
	cfg.LedgerPath = config.LoadEnvString("WORKER_LEDGER_PATH", cfg.LedgerPath)

	port := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }

	result = config.LoadEnvInt("HEALTH_PORT", cfg.HealthPort, port)
	cfg.HealthPort = result.Value.(int)
	note("HealthPort", "health_port", result)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, port)
	cfg.MetricsPort = result.Value.(int)
	note("MetricsPort", "metrics_port", result)

	result = config.LoadEnvInt("GRPC_HEALTH_PORT", cfg.GRPCHealthPort, port)
	cfg.GRPCHealthPort = result.Value.(int)
	note("GRPCHealthPort", "grpc_health_port", result)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
