// Package grpcserver exposes the standard grpc.health.v1 service so that
// orchestrators can probe the ingestion service over gRPC.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-checked service.
const ServiceName = "jobmate.ingestion.v1.Ingestion"

// Probe checks a backing dependency. A non-nil error marks the service
// NOT_SERVING.
type Probe func(ctx context.Context) error

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	probe  Probe
}

// NewServer constructs a Server. probe may be nil.
func NewServer(probe Probe) *Server {
	s := &Server{
		grpc:   grpc.NewServer(grpc.UnaryInterceptor(logUnary)),
		health: health.NewServer(),
		probe:  probe,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve blocks accepting connections on lis.
func (s *Server) Serve(lis net.Listener) error { return s.grpc.Serve(lis) }

// Refresh runs the probe once and updates the reported status.
func (s *Server) Refresh(ctx context.Context) {
	if s.probe == nil {
		return
	}
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.probe(ctx); err != nil {
		slog.Warn("health probe failed", "err", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
}

// Watch refreshes the status every interval until ctx ends.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval/2)
			s.Refresh(probeCtx)
			cancel()
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Debug("grpc call failed", "method", info.FullMethod, "err", err)
	}
	return resp, err
}
