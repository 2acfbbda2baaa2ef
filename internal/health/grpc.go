package health

import (
	"context"
	"fmt"
	"net"
	"time"

	logger "log/slog"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the monitor through the standard gRPC health service.
type GRPCServer struct {
	monitor  *Monitor
	port     int
	interval time.Duration
	server   *grpc.Server
	health   *grpchealth.Server
	cancel   context.CancelFunc
	log      logger.Logger
}

func NewGRPCServer(monitor *Monitor, port int, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCServer{
		monitor:  monitor,
		port:     port,
		interval: interval,
		server:   srv,
		health:   hs,
		log:      *logger.Default().With("component", "grpc_health"),
	}
}

// Start listens and serves until Stop. It blocks.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on %d: %w", s.port, err)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.sync(ctx)
	go s.loop(ctx)

	s.log.Info("gRPC health server listening", "port", s.port)
	return s.server.Serve(lis)
}

func (s *GRPCServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sync(ctx)
		}
	}
}

// sync maps the aggregated status onto the overall ("") service.
func (s *GRPCServer) sync(ctx context.Context) {
	report := s.monitor.CheckHealth(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if report.SystemStatus == StatusCritical {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}
