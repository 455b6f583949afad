package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// InferenceService is the gRPC health service name tracking the detection model
const InferenceService = "inference"

// Service serves the standard grpc.health.v1 protocol
type Service struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewService listens on port and reports the inference service as serving
// when modelLoaded is true.
func NewService(port int, modelLoaded bool) (*Service, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on health port %d: %w", port, err)
	}
	return newWithListener(lis, modelLoaded), nil
}

func newWithListener(lis net.Listener, modelLoaded bool) *Service {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Service{server: srv, health: hs, lis: lis}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.SetModelLoaded(modelLoaded)
	return s
}

func (s *Service) SetModelLoaded(loaded bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if loaded {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(InferenceService, status)
}

func (s *Service) Addr() string {
	return s.lis.Addr().String()
}

// Serve blocks until Shutdown
func (s *Service) Serve() error {
	log.Info().Str("addr", s.Addr()).Msg("gRPC health server listening")
	if err := s.server.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
