// Package healthcheck exposes the standard grpc.health.v1 service so
// orchestrators can probe the process without touching the HTTP API.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/snake-check/internal/logging"
)

// ServiceName is the health service name reported alongside the overall ("")
// status.
const ServiceName = "snakecheck.Classifier"

// Server runs a gRPC server that only hosts the health service.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
}

// NewServer creates a health server reporting NOT_SERVING until MarkServing.
func NewServer(logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{grpcServer: grpcServer, health: healthServer, logger: logger.Named("healthcheck")}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve blocks serving on listener until Stop is called.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC health service listening", zap.String("addr", listener.Addr().String()))
	if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return logging.NewOperationError("healthcheck.serve", "", err)
	}
	return nil
}

// MarkServing reports the classifier as ready.
func (s *Server) MarkServing() {
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// MarkNotServing reports the classifier as draining.
func (s *Server) MarkNotServing() {
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

// Stop flips every status to NOT_SERVING and stops the gRPC server once
// in-flight probes finish.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Probe dials addr and returns nil only when the service reports SERVING.
func Probe(ctx context.Context, addr string) error {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return logging.NewOperationError("healthcheck.dial", "", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return logging.NewOperationError("healthcheck.check", "", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %s is %s", ServiceName, resp.GetStatus())
	}
	return nil
}
