package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the Prometheus default registry on /metrics.
type MetricsServer struct {
	addr   string
	logger *slog.Logger
}

// NewMetricsServer creates a metrics server listening on addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	return &MetricsServer{addr: addr, logger: logger}
}

// Handler returns the HTTP handler serving /metrics.
func (m *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is cancelled. It returns http.ErrServerClosed on
// graceful shutdown.
func (m *MetricsServer) Start(ctx context.Context) error {
	return serve(ctx, m.logger, "metrics", &http.Server{
		Addr:         m.addr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})
}
