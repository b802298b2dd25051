package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DigestServiceName is the service name reported by the gRPC health server.
const DigestServiceName = "docdigest.Worker"

// GRPCHealthServer serves the standard grpc.health.v1.Health service so that
// orchestrators using gRPC probes can check the worker.
type GRPCHealthServer struct {
	addr   string
	logger *slog.Logger
	health *health.Server
	server *grpc.Server
}

// NewGRPCHealthServer creates a gRPC health server. Both the overall status
// and DigestServiceName start as NOT_SERVING.
func NewGRPCHealthServer(addr string, logger *slog.Logger) *GRPCHealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(DigestServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCHealthServer{addr: addr, logger: logger, health: hs, server: srv}
}

// SetServing flips the reported status of the worker.
func (g *GRPCHealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(DigestServiceName, status)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (g *GRPCHealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		g.health.Shutdown()
		g.server.GracefulStop()
		g.logger.Info("grpc health server stopped")
	}()

	g.logger.Info("grpc health server starting", slog.String("addr", lis.Addr().String()))
	if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health server: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until ctx is cancelled.
func (g *GRPCHealthServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", g.addr, err)
	}
	return g.Serve(ctx, lis)
}
