package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"
)

// DBCircuitBreaker guards a *sql.DB so that an unreachable database fails
// fast instead of blocking every record write.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// DBConfig opens after five consecutive failures and retries after 30s.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// NewDBCircuitBreaker wraps db with DBConfig.
func NewDBCircuitBreaker(db *sql.DB) *DBCircuitBreaker {
	return NewDBCircuitBreakerWithConfig(db, DBConfig())
}

// NewDBCircuitBreakerWithConfig wraps db with cfg.
func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(cfg), db: db}
}

// ExecContext executes a statement through the breaker.
func (d *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return Call(d.cb, func() (sql.Result, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
}

// QueryContext runs a query through the breaker.
func (d *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return Call(d.cb, func() (*sql.Rows, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
}

// BeginTx starts a transaction through the breaker. Statements inside the
// transaction are not guarded individually.
func (d *DBCircuitBreaker) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return Call(d.cb, func() (*sql.Tx, error) {
		return d.db.BeginTx(ctx, opts)
	})
}

// State returns the breaker state.
func (d *DBCircuitBreaker) State() gobreaker.State {
	return d.cb.State()
}

// IsOpen reports whether the breaker is open.
func (d *DBCircuitBreaker) IsOpen() bool {
	return d.cb.IsOpen()
}

// DB returns the unguarded connection.
func (d *DBCircuitBreaker) DB() *sql.DB {
	return d.db
}
