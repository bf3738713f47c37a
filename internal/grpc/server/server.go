package server

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"malt-scraper/internal/grpc/interceptors"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
	"malt-scraper/pkg/models"
)

// ProfileService is the part of profiles.Service exposed over gRPC
type ProfileService interface {
	ProcessProfile(ctx context.Context, url string) (*profiles.Result, error)
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)
}

type Server struct {
	service ProfileService
	logger  logging.Logger
	metrics *interceptors.MetricsCollector
	health  *health.Server
	grpc    *grpc.Server
}

func NewServer(service ProfileService, logger logging.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logging.OrGlobal(logger).WithField("component", "grpc"),
		metrics: interceptors.NewMetricsCollector(),
		health:  health.NewServer(),
	}

	s.grpc = grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(s.logger),
			interceptors.LoggingInterceptor(s.logger),
			interceptors.MetricsInterceptor(s.metrics),
		),
	)

	s.grpc.RegisterService(&ProfileServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ProfileServiceName, healthpb.HealthCheckResponse_SERVING)

	// Enable reflection for debugging
	reflection.Register(s.grpc)

	return s
}

// Start serves on lis until Stop is called
func (s *Server) Start(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpc.Serve(lis)
}

// Stop marks the service not serving and waits for in-flight calls
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server...")
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Metrics returns per-method call counters
func (s *Server) Metrics() map[string]models.MethodStats {
	return s.metrics.Snapshot()
}
