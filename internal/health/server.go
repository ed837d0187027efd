package health

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"voicechat-service/internal/observability"
)

// ServiceName is the health service name reported next to the overall status.
const ServiceName = "voicechat.v1.VoiceChat"

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Server exposes grpc.health.v1 for orchestrators.
type Server struct {
	grpc     *grpc.Server
	health   *grpchealth.Server
	listener net.Listener
}

// NewServer listens on addr. Call Serve to start accepting.
func NewServer(addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", addr, err)
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{grpc: srv, health: hs, listener: lis}
	s.SetServing(true)
	return s, nil
}

func (s *Server) Addr() string { return s.listener.Addr().String() }

// Serve blocks until Stop is called.
func (s *Server) Serve() error {
	log.Printf("grpc health listening addr=%s", s.Addr())
	return s.grpc.Serve(s.listener)
}

func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Watch runs check every interval and flips the serving status on change.
func (s *Server) Watch(ctx context.Context, interval time.Duration, check CheckFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := check(checkCtx)
		cancel()

		if ok := err == nil; ok != healthy {
			healthy = ok
			s.SetServing(ok)
			log.Printf("health status changed serving=%t err=%v", ok, err)
		}
	}
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
