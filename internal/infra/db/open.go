// Package db opens the Postgres connection pool used by the record sink and
// owns its schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	pkgconfig "docdigest/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNoDSN is returned by Open when no connection string is given.
var ErrNoDSN = errors.New("database dsn not set")

// PingTimeout bounds the connectivity check performed by Open.
const PingTimeout = 5 * time.Second

// ConfigMetrics tracks fallbacks applied while loading the pool settings.
var ConfigMetrics = pkgconfig.NewConfigMetrics("database")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// LoadConnectionConfig reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Invalid values fall back to
// the defaults and are reported as warnings.
func LoadConnectionConfig() (ConnectionConfig, []string) {
	def := DefaultConnectionConfig()
	l := pkgconfig.NewLoader(ConfigMetrics)
	cfg := ConnectionConfig{
		MaxOpenConns:    l.Int("DB_MAX_OPEN_CONNS", def.MaxOpenConns, pkgconfig.ValidatePositiveInt),
		MaxIdleConns:    l.Int("DB_MAX_IDLE_CONNS", def.MaxIdleConns, pkgconfig.ValidatePositiveInt),
		ConnMaxLifetime: l.Duration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, pkgconfig.ValidatePositiveDuration),
		ConnMaxIdleTime: l.Duration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, pkgconfig.ValidatePositiveDuration),
	}
	l.Finish()
	return cfg, l.Warnings()
}

// Open creates a connection pool for dsn, applies cfg and verifies the
// connection with a ping.
func Open(ctx context.Context, dsn string, cfg ConnectionConfig) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	Configure(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established successfully")
	return db, nil
}

// Configure applies the pool settings to db.
func Configure(db *sql.DB, cfg ConnectionConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))
}
